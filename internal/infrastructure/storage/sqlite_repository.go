package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"TalkIdeas/internal/domain"
	"TalkIdeas/internal/ports"
)

const (
	conversationsTable = "conversations"
	ideasTable         = "blog_post_ideas"

	defaultIdeaLimit = 50
	dashboardTopSize = 10

	// Fixed width so that text ordering equals time ordering.
	timeLayout = "2006-01-02 15:04:05.000000000"
)

var conversationColumns = []string{
	"id", "title", "raw_text", "source", "word_count", "created_at", "status",
}

var ideaColumns = []string{
	"id", "conversation_id", "title", "description",
	"usefulness_potential", "fitwith_seo_strategy", "fitwith_content_strategy",
	"inspiration_potential", "collaboration_potential", "innovation", "difficulty",
	"total_score", "sent_to_prod", "raw_llm_response", "created_at",
}

// Repository stores conversations and ideas in a single SQLite file.
type Repository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	now     func() time.Time
}

var _ ports.Store = (*Repository)(nil)

// Open connects to the SQLite file at path and bootstraps the schema.
func Open(ctx context.Context, path string) (*Repository, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := NewRepository(db)
	if err := repo.Bootstrap(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// NewRepository wires an already opened sql.DB.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CreateConversation validates the draft, derives word_count and inserts the row.
func (r *Repository) CreateConversation(ctx context.Context, draft domain.ConversationDraft) (int64, error) {
	draft, err := draft.Normalize()
	if err != nil {
		return 0, err
	}

	query, args, err := r.builder.
		Insert(conversationsTable).
		Columns("title", "raw_text", "source", "word_count", "created_at", "status").
		Values(nullString(draft.Title), draft.RawText, string(draft.Source), domain.WordCount(draft.RawText),
			r.timestamp(), domain.StatusPending).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert conversation: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert conversation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("conversation id: %w", err)
	}
	return id, nil
}

// GetConversation loads a conversation by id.
func (r *Repository) GetConversation(ctx context.Context, id int64) (domain.Conversation, error) {
	query, args, err := r.builder.
		Select(conversationColumns...).
		From(conversationsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("build select conversation: %w", err)
	}

	conv, err := scanConversation(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Conversation{}, fmt.Errorf("conversation %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("select conversation %d: %w", id, err)
	}
	return conv, nil
}

// ListConversations returns every conversation, newest first.
func (r *Repository) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	query, args, err := r.builder.
		Select(conversationColumns...).
		From(conversationsTable).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list conversations: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Conversation, 0)
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		result = append(result, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// UpdateConversationStatus sets the lifecycle label. Repeating it is harmless.
func (r *Repository) UpdateConversationStatus(ctx context.Context, id int64, status string) error {
	query, args, err := r.builder.
		Update(conversationsTable).
		Set("status", status).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update status: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	ok, err := r.exists(ctx, conversationsTable, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("conversation %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// CreateBlogPostIdea validates the draft, computes total_score and inserts the row.
func (r *Repository) CreateBlogPostIdea(ctx context.Context, draft domain.NewIdeaDraft) (int64, error) {
	if err := draft.Validate(); err != nil {
		return 0, err
	}

	ok, err := r.exists(ctx, conversationsTable, draft.ConversationID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("conversation %d: %w", draft.ConversationID, domain.ErrNotFound)
	}

	a := draft.Attributes
	query, args, err := r.builder.
		Insert(ideasTable).
		Columns(ideaColumns[1:]...).
		Values(
			draft.ConversationID,
			draft.Title,
			draft.Description,
			a.UsefulnessPotential,
			a.FitWithSEOStrategy,
			a.FitWithContentStrategy,
			a.InspirationPotential,
			a.CollaborationPotential,
			a.Innovation,
			a.Difficulty,
			domain.Score(a),
			false,
			nullString(draft.RawResponse),
			r.timestamp(),
		).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert idea: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert idea: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("idea id: %w", err)
	}
	return id, nil
}

// GetIdea loads a single idea.
func (r *Repository) GetIdea(ctx context.Context, id int64) (domain.BlogPostIdea, error) {
	query, args, err := r.selectIdeas().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.BlogPostIdea{}, fmt.Errorf("build select idea: %w", err)
	}

	idea, err := scanIdea(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BlogPostIdea{}, fmt.Errorf("idea %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.BlogPostIdea{}, fmt.Errorf("select idea %d: %w", id, err)
	}
	return idea, nil
}

// ListIdeasByConversation returns a conversation's ideas, best score first.
func (r *Repository) ListIdeasByConversation(ctx context.Context, conversationID int64) ([]domain.BlogPostIdea, error) {
	return r.queryIdeas(ctx, r.selectIdeas().Where(sq.Eq{"conversation_id": conversationID}))
}

// ListTopIdeas returns the highest scored ideas overall.
func (r *Repository) ListTopIdeas(ctx context.Context, limit int) ([]domain.BlogPostIdea, error) {
	return r.queryIdeas(ctx, r.selectIdeas().Limit(uint64(normalizeLimit(limit))))
}

// ListPendingIdeas returns unsent ideas, best score first.
func (r *Repository) ListPendingIdeas(ctx context.Context, limit int) ([]domain.BlogPostIdea, error) {
	return r.queryIdeas(ctx, r.selectIdeas().
		Where(sq.Eq{"sent_to_prod": false}).
		Limit(uint64(normalizeLimit(limit))))
}

// MarkSentToProd flips sent_to_prod. It reports whether the idea exists;
// an already sent idea is not written again.
func (r *Repository) MarkSentToProd(ctx context.Context, id int64) (bool, error) {
	query, args, err := r.builder.
		Update(ideasTable).
		Set("sent_to_prod", true).
		Where(sq.Eq{"id": id, "sent_to_prod": false}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build mark sent: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("mark sent: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return true, nil
	}
	return r.exists(ctx, ideasTable, id)
}

// GetConversationWithIdeas bundles a conversation with its ranked ideas.
func (r *Repository) GetConversationWithIdeas(ctx context.Context, id int64) (domain.ConversationWithIdeas, error) {
	conv, err := r.GetConversation(ctx, id)
	if err != nil {
		return domain.ConversationWithIdeas{}, err
	}

	ideas, err := r.ListIdeasByConversation(ctx, id)
	if err != nil {
		return domain.ConversationWithIdeas{}, err
	}

	best := 0
	for _, idea := range ideas {
		if idea.TotalScore > best {
			best = idea.TotalScore
		}
	}

	return domain.ConversationWithIdeas{
		Conversation: conv,
		Ideas:        ideas,
		IdeaCount:    len(ideas),
		BestScore:    best,
	}, nil
}

// GetDashboardSummary counts rows and returns the ten best ideas.
func (r *Repository) GetDashboardSummary(ctx context.Context) (domain.DashboardSummary, error) {
	conversations, err := r.count(ctx, conversationsTable)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	ideas, err := r.count(ctx, ideasTable)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	top, err := r.ListTopIdeas(ctx, dashboardTopSize)
	if err != nil {
		return domain.DashboardSummary{}, err
	}

	return domain.DashboardSummary{
		ConversationCount: conversations,
		IdeaCount:         ideas,
		TopIdeas:          top,
	}, nil
}

func (r *Repository) selectIdeas() sq.SelectBuilder {
	return r.builder.
		Select(ideaColumns...).
		From(ideasTable).
		OrderBy("total_score DESC", "id ASC")
}

func (r *Repository) queryIdeas(ctx context.Context, b sq.SelectBuilder) ([]domain.BlogPostIdea, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select ideas: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ideas: %w", err)
	}
	defer rows.Close()

	result := make([]domain.BlogPostIdea, 0)
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, fmt.Errorf("scan idea: %w", err)
		}
		result = append(result, idea)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

func (r *Repository) exists(ctx context.Context, table string, id int64) (bool, error) {
	query, args, err := r.builder.
		Select("1").
		From(table).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup %s %d: %w", table, id, err)
	}
	return true, nil
}

func (r *Repository) count(ctx context.Context, table string) (int, error) {
	query, args, err := r.builder.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func (r *Repository) timestamp() string {
	return r.now().UTC().Format(timeLayout)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (domain.Conversation, error) {
	var (
		conv      domain.Conversation
		title     sql.NullString
		source    string
		createdAt string
	)
	if err := row.Scan(&conv.ID, &title, &conv.RawText, &source, &conv.WordCount, &createdAt, &conv.Status); err != nil {
		return domain.Conversation{}, err
	}

	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}

	conv.Title = title.String
	conv.Source = domain.Source(source)
	conv.CreatedAt = ts
	return conv, nil
}

func scanIdea(row rowScanner) (domain.BlogPostIdea, error) {
	var (
		idea      domain.BlogPostIdea
		raw       sql.NullString
		createdAt string
	)
	err := row.Scan(
		&idea.ID,
		&idea.ConversationID,
		&idea.Title,
		&idea.Description,
		&idea.UsefulnessPotential,
		&idea.FitWithSEOStrategy,
		&idea.FitWithContentStrategy,
		&idea.InspirationPotential,
		&idea.CollaborationPotential,
		&idea.Innovation,
		&idea.Difficulty,
		&idea.TotalScore,
		&idea.SentToProd,
		&raw,
		&createdAt,
	)
	if err != nil {
		return domain.BlogPostIdea{}, err
	}

	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return domain.BlogPostIdea{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}

	idea.RawLLMResponse = raw.String
	idea.CreatedAt = ts
	return idea, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultIdeaLimit
	}
	return limit
}
