package ports

import (
	"context"
	"time"

	"TalkIdeas/internal/domain"
)

// ConversationStore persists transcripts.
type ConversationStore interface {
	CreateConversation(ctx context.Context, draft domain.ConversationDraft) (int64, error)
	GetConversation(ctx context.Context, id int64) (domain.Conversation, error)
	ListConversations(ctx context.Context) ([]domain.Conversation, error)
	UpdateConversationStatus(ctx context.Context, id int64, status string) error
}

// IdeaStore persists scored blog post ideas.
type IdeaStore interface {
	CreateBlogPostIdea(ctx context.Context, draft domain.NewIdeaDraft) (int64, error)
	GetIdea(ctx context.Context, id int64) (domain.BlogPostIdea, error)
	ListIdeasByConversation(ctx context.Context, conversationID int64) ([]domain.BlogPostIdea, error)
	ListTopIdeas(ctx context.Context, limit int) ([]domain.BlogPostIdea, error)
	ListPendingIdeas(ctx context.Context, limit int) ([]domain.BlogPostIdea, error)
	MarkSentToProd(ctx context.Context, id int64) (bool, error)
}

// DashboardReader serves the combined read models.
type DashboardReader interface {
	GetConversationWithIdeas(ctx context.Context, id int64) (domain.ConversationWithIdeas, error)
	GetDashboardSummary(ctx context.Context) (domain.DashboardSummary, error)
}

// Store is the full storage contract.
type Store interface {
	ConversationStore
	IdeaStore
	DashboardReader
}

// Transcriber turns an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// IdeaGenerator proposes scored blog post ideas for a transcript.
type IdeaGenerator interface {
	Generate(ctx context.Context, transcript string) ([]domain.IdeaDraft, error)
}

// TranscriptImporter extracts a title and plain text from a transcript file.
type TranscriptImporter interface {
	Import(ctx context.Context, path string) (title, text string, err error)
}

// Notifier streams digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
