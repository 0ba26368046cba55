package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"TalkIdeas/internal/domain"
	"TalkIdeas/internal/ports"
)

// Publisher pushes pending ideas to the content channel and flags them as sent.
type Publisher struct {
	ideas    ports.IdeaStore
	notifier ports.Notifier
	logger   *slog.Logger
}

// NewPublisher wires the idea store with a notifier.
func NewPublisher(ideas ports.IdeaStore, notifier ports.Notifier, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Publisher{ideas: ideas, notifier: notifier, logger: logger}
}

// Publish sends up to limit pending ideas as a single digest and returns how
// many were marked sent. Nothing is marked when the digest fails to send.
func (p *Publisher) Publish(ctx context.Context, limit int) (int, error) {
	if p.ideas == nil || p.notifier == nil {
		return 0, fmt.Errorf("publisher misconfigured")
	}

	pending, err := p.ideas.ListPendingIdeas(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending ideas: %w", err)
	}
	if len(pending) == 0 {
		p.logger.Info("no pending ideas to publish")
		return 0, nil
	}

	if err := p.notifier.PublishDigest(ctx, buildDigestMessage(pending)); err != nil {
		return 0, fmt.Errorf("publish digest: %w", err)
	}

	marked := 0
	for _, idea := range pending {
		changed, err := p.ideas.MarkSentToProd(ctx, idea.ID)
		if err != nil {
			return marked, fmt.Errorf("mark idea %d sent: %w", idea.ID, err)
		}
		if changed {
			marked++
		}
	}

	p.logger.Info("ideas published", "count", marked)
	return marked, nil
}

func buildDigestMessage(ideas []domain.BlogPostIdea) string {
	if len(ideas) == 0 {
		return ""
	}

	var b strings.Builder
	for _, idea := range ideas {
		fmt.Fprintf(&b, "- %s\nScore: %d/%d\n%s\n\n",
			idea.Title,
			idea.TotalScore,
			domain.MaxScore,
			idea.Description)
	}

	return b.String()
}
