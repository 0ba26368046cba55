package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	MinAttribute = 1
	MaxAttribute = 10

	// MinScore and MaxScore bound Score for valid attributes.
	MinScore = 7
	MaxScore = 70
)

// Attributes are the seven 1..10 ratings an LLM assigns to an idea.
type Attributes struct {
	UsefulnessPotential    int `json:"usefulness_potential"`
	FitWithSEOStrategy     int `json:"fitwith_seo_strategy"`
	FitWithContentStrategy int `json:"fitwith_content_strategy"`
	InspirationPotential   int `json:"inspiration_potential"`
	CollaborationPotential int `json:"collaboration_potential"`
	Innovation             int `json:"innovation"`
	Difficulty             int `json:"difficulty"`
}

// Score ranks an idea: the six positive ratings plus inverted difficulty,
// so easier ideas win ties.
func Score(a Attributes) int {
	return a.UsefulnessPotential +
		a.FitWithSEOStrategy +
		a.FitWithContentStrategy +
		a.InspirationPotential +
		a.CollaborationPotential +
		a.Innovation +
		(11 - a.Difficulty)
}

// Validate checks every rating is inside [1,10].
func (a Attributes) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"usefulness_potential", a.UsefulnessPotential},
		{"fitwith_seo_strategy", a.FitWithSEOStrategy},
		{"fitwith_content_strategy", a.FitWithContentStrategy},
		{"inspiration_potential", a.InspirationPotential},
		{"collaboration_potential", a.CollaborationPotential},
		{"innovation", a.Innovation},
		{"difficulty", a.Difficulty},
	}
	for _, f := range fields {
		if f.value < MinAttribute || f.value > MaxAttribute {
			return &ValidationError{
				Field:  f.name,
				Reason: fmt.Sprintf("must be between %d and %d, got %d", MinAttribute, MaxAttribute, f.value),
			}
		}
	}
	return nil
}

// BlogPostIdea is a stored, scored idea.
type BlogPostIdea struct {
	ID             int64  `json:"id"`
	ConversationID int64  `json:"conversation_id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Attributes
	TotalScore     int       `json:"total_score"`
	SentToProd     bool      `json:"sent_to_prod"`
	RawLLMResponse string    `json:"raw_llm_response,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// IdeaDraft is what an IdeaGenerator returns. It never carries a score.
type IdeaDraft struct {
	Title       string
	Description string
	Attributes
	RawResponse string
}

// Validate rejects drafts the store would refuse.
func (d IdeaDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be blank"}
	}
	return d.Attributes.Validate()
}

// NewIdeaDraft is the storage-facing input: a draft bound to its conversation.
type NewIdeaDraft struct {
	ConversationID int64
	IdeaDraft
}
