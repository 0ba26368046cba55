package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"TalkIdeas/internal/domain"
)

func seedIdeas(t *testing.T, repo *memoryRepo) {
	t.Helper()
	id, err := repo.CreateConversation(context.Background(), domain.ConversationDraft{RawText: transcript})
	if err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	for _, d := range twoDrafts() {
		if _, err := repo.CreateBlogPostIdea(context.Background(), domain.NewIdeaDraft{ConversationID: id, IdeaDraft: d}); err != nil {
			t.Fatalf("seed idea: %v", err)
		}
	}
}

func TestPublishSendsDigestAndMarksIdeas(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	seedIdeas(t, repo)
	notifier := &recordingNotifier{}
	pub := NewPublisher(repo, notifier, nil)

	n, err := pub.Publish(context.Background(), 10)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 ideas marked, got %d", n)
	}
	if len(notifier.digests) != 1 {
		t.Fatalf("expected one digest, got %d", len(notifier.digests))
	}
	digest := notifier.digests[0]
	if strings.Index(digest, "ROI Calculator") > strings.Index(digest, "Pricing Page Teardown") {
		t.Fatalf("digest should list the best idea first:\n%s", digest)
	}
	if !strings.Contains(digest, "Score: 54/70") {
		t.Fatalf("digest missing score line:\n%s", digest)
	}

	n, err = pub.Publish(context.Background(), 10)
	if err != nil || n != 0 {
		t.Fatalf("second publish should find nothing: %d %v", n, err)
	}
	if len(notifier.digests) != 1 {
		t.Fatalf("no digest should be sent when nothing is pending")
	}
}

func TestPublishFailureLeavesIdeasPending(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	seedIdeas(t, repo)
	pub := NewPublisher(repo, &recordingNotifier{err: errors.New("telegram down")}, nil)

	if _, err := pub.Publish(context.Background(), 10); err == nil {
		t.Fatalf("expected publish error")
	}
	pending, _ := repo.ListPendingIdeas(context.Background(), 10)
	if len(pending) != 2 {
		t.Fatalf("ideas must stay pending, got %d", len(pending))
	}
}
