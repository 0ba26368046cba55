package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MinRawTextLength is the shortest transcript accepted as a conversation.
const MinRawTextLength = 10

// Source tells where a conversation text came from.
type Source string

const (
	SourceManual      Source = "manual"
	SourceTranscribed Source = "transcribed"
	SourceImported    Source = "imported"
)

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	switch s {
	case SourceManual, SourceTranscribed, SourceImported:
		return true
	default:
		return false
	}
}

// ConversationStatus is a free-form lifecycle label; these are the values the pipeline writes.
const (
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// Conversation is a stored transcript. Only Status changes after creation.
type Conversation struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title,omitempty"`
	RawText   string    `json:"raw_text"`
	Source    Source    `json:"source"`
	WordCount int       `json:"word_count"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`
}

// ConversationDraft is the caller-supplied part of a new conversation.
type ConversationDraft struct {
	Title   string
	RawText string
	Source  Source
}

// Normalize fills defaults and validates the draft.
func (d ConversationDraft) Normalize() (ConversationDraft, error) {
	if d.Source == "" {
		d.Source = SourceManual
	}
	if !d.Source.Valid() {
		return d, &ValidationError{Field: "source", Reason: "must be manual, transcribed or imported"}
	}
	if utf8.RuneCountInString(d.RawText) < MinRawTextLength {
		return d, &ValidationError{Field: "raw_text", Reason: "must be at least 10 characters"}
	}
	d.Title = strings.TrimSpace(d.Title)
	return d, nil
}

// WordCount counts whitespace-separated tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ConversationWithIdeas bundles a conversation with its ranked ideas.
type ConversationWithIdeas struct {
	Conversation Conversation   `json:"conversation"`
	Ideas        []BlogPostIdea `json:"ideas"`
	IdeaCount    int            `json:"idea_count"`
	BestScore    int            `json:"best_score"`
}

// DashboardSummary is the overview served to the dashboard.
type DashboardSummary struct {
	ConversationCount int            `json:"conversation_count"`
	IdeaCount         int            `json:"idea_count"`
	TopIdeas          []BlogPostIdea `json:"top_ideas"`
}
