package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"TalkIdeas/internal/domain"
)

type memoryRepo struct {
	mu            sync.Mutex
	conversations map[int64]domain.Conversation
	ideas         map[int64]domain.BlogPostIdea
	nextID        int64
	failIdeas     bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		conversations: map[int64]domain.Conversation{},
		ideas:         map[int64]domain.BlogPostIdea{},
	}
}

func (r *memoryRepo) CreateConversation(_ context.Context, draft domain.ConversationDraft) (int64, error) {
	draft, err := draft.Normalize()
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.conversations[r.nextID] = domain.Conversation{
		ID:        r.nextID,
		Title:     draft.Title,
		RawText:   draft.RawText,
		Source:    draft.Source,
		WordCount: domain.WordCount(draft.RawText),
		Status:    domain.StatusPending,
	}
	return r.nextID, nil
}

func (r *memoryRepo) GetConversation(_ context.Context, id int64) (domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return domain.Conversation{}, fmt.Errorf("conversation %d: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

func (r *memoryRepo) ListConversations(context.Context) ([]domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Conversation, 0, len(r.conversations))
	for _, c := range r.conversations {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memoryRepo) UpdateConversationStatus(_ context.Context, id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Status = status
	r.conversations[id] = c
	return nil
}

func (r *memoryRepo) CreateBlogPostIdea(_ context.Context, draft domain.NewIdeaDraft) (int64, error) {
	if r.failIdeas {
		return 0, errors.New("disk full")
	}
	if err := draft.Validate(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conversations[draft.ConversationID]; !ok {
		return 0, domain.ErrNotFound
	}
	r.nextID++
	r.ideas[r.nextID] = domain.BlogPostIdea{
		ID:             r.nextID,
		ConversationID: draft.ConversationID,
		Title:          draft.Title,
		Description:    draft.Description,
		Attributes:     draft.Attributes,
		TotalScore:     domain.Score(draft.Attributes),
		RawLLMResponse: draft.RawResponse,
	}
	return r.nextID, nil
}

func (r *memoryRepo) GetIdea(_ context.Context, id int64) (domain.BlogPostIdea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idea, ok := r.ideas[id]
	if !ok {
		return domain.BlogPostIdea{}, domain.ErrNotFound
	}
	return idea, nil
}

func (r *memoryRepo) ListIdeasByConversation(_ context.Context, conversationID int64) ([]domain.BlogPostIdea, error) {
	return r.filter(func(i domain.BlogPostIdea) bool { return i.ConversationID == conversationID }, 0), nil
}

func (r *memoryRepo) ListTopIdeas(_ context.Context, limit int) ([]domain.BlogPostIdea, error) {
	return r.filter(func(domain.BlogPostIdea) bool { return true }, limit), nil
}

func (r *memoryRepo) ListPendingIdeas(_ context.Context, limit int) ([]domain.BlogPostIdea, error) {
	return r.filter(func(i domain.BlogPostIdea) bool { return !i.SentToProd }, limit), nil
}

func (r *memoryRepo) MarkSentToProd(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idea, ok := r.ideas[id]
	if !ok {
		return false, nil
	}
	idea.SentToProd = true
	r.ideas[id] = idea
	return true, nil
}

func (r *memoryRepo) filter(keep func(domain.BlogPostIdea) bool, limit int) []domain.BlogPostIdea {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.BlogPostIdea{}
	for _, idea := range r.ideas {
		if keep(idea) {
			out = append(out, idea)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type stubTranscriber struct {
	text  string
	err   error
	calls []string
}

func (s *stubTranscriber) Transcribe(_ context.Context, path string) (string, error) {
	s.calls = append(s.calls, path)
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type stubGenerator struct {
	drafts []domain.IdeaDraft
	err    error
}

func (s *stubGenerator) Generate(context.Context, string) ([]domain.IdeaDraft, error) {
	return s.drafts, s.err
}

type stubImporter struct {
	title, text string
	err         error
}

func (s *stubImporter) Import(context.Context, string) (string, string, error) {
	return s.title, s.text, s.err
}

type forgetRecorder struct {
	names []string
}

func (f *forgetRecorder) Forget(name string) {
	f.names = append(f.names, name)
}

type recordingNotifier struct {
	digests []string
	err     error
}

func (n *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	if n.err != nil {
		return n.err
	}
	n.digests = append(n.digests, digest)
	return nil
}

func attrs(u, seo, content, insp, collab, innov, diff int) domain.Attributes {
	return domain.Attributes{
		UsefulnessPotential:    u,
		FitWithSEOStrategy:     seo,
		FitWithContentStrategy: content,
		InspirationPotential:   insp,
		CollaborationPotential: collab,
		Innovation:             innov,
		Difficulty:             diff,
	}
}
