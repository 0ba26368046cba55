package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"TalkIdeas/internal/domain"
	"TalkIdeas/internal/ports"
	"TalkIdeas/internal/staging"
)

// Repository is the part of the store the processor writes to.
type Repository interface {
	ports.ConversationStore
	ports.IdeaStore
}

// Tracker forgets staged filenames once they are processed.
type Tracker interface {
	Forget(name string)
}

// ProcessorDeps wires all driven adapters into the processor.
type ProcessorDeps struct {
	Repository  Repository
	Transcriber ports.Transcriber
	Generator   ports.IdeaGenerator
	Importer    ports.TranscriptImporter
	Tracker     Tracker
	StagingDir  string
	Rules       staging.Rules
	Logger      *slog.Logger
}

// Processor turns staged audio and transcript files into conversations and ideas.
type Processor struct {
	repo        Repository
	transcriber ports.Transcriber
	generator   ports.IdeaGenerator
	importer    ports.TranscriptImporter
	tracker     Tracker
	stagingDir  string
	rules       staging.Rules
	logger      *slog.Logger
}

// Ingested identifies the rows one input produced.
type Ingested struct {
	ConversationID int64   `json:"conversation_id"`
	IdeaIDs        []int64 `json:"idea_ids"`
}

// FileResult is the outcome for one staged file.
type FileResult struct {
	File staging.StagedFile
	Ingested
	Err error
}

// OK reports whether the file was fully processed.
func (r FileResult) OK() bool {
	return r.Err == nil
}

// BatchOptions controls a batch run. Confirm must approve the file list
// before anything is processed.
type BatchOptions struct {
	DeleteAfterSuccess bool
	Confirm            func(files []staging.StagedFile) bool
}

// BatchReport summarizes a batch run.
type BatchReport struct {
	Total     int
	Succeeded int
	Failed    int
	Results   []FileResult
}

// NewProcessor constructs the orchestration component.
func NewProcessor(deps ProcessorDeps) *Processor {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	rules := deps.Rules
	if rules.Prefix == "" && len(rules.Extensions) == 0 {
		rules = staging.DefaultRules()
	}
	return &Processor{
		repo:        deps.Repository,
		transcriber: deps.Transcriber,
		generator:   deps.Generator,
		importer:    deps.Importer,
		tracker:     deps.Tracker,
		stagingDir:  deps.StagingDir,
		rules:       rules,
		logger:      logger,
	}
}

// Discover lists staged audio files in filename order.
func (p *Processor) Discover() ([]staging.StagedFile, error) {
	if err := os.MkdirAll(p.stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return staging.ListStaged(p.stagingDir, p.rules)
}

// ProcessBatch processes files one after another. Per-file failures are
// counted and never stop the batch.
func (p *Processor) ProcessBatch(ctx context.Context, files []staging.StagedFile, opts BatchOptions) (BatchReport, error) {
	ordered := append([]staging.StagedFile(nil), files...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Filename < ordered[j].Filename })

	report := BatchReport{Total: len(ordered)}
	if len(ordered) == 0 {
		p.logger.Info("no audio files found", "dir", p.stagingDir)
		return report, nil
	}

	if opts.Confirm == nil || !opts.Confirm(ordered) {
		p.logger.Info("processing cancelled", "files", len(ordered))
		return report, domain.ErrCancelled
	}

	p.logger.Info("starting batch processing", "files", len(ordered), "delete_after", opts.DeleteAfterSuccess)
	for _, file := range ordered {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result := p.ProcessFile(ctx, file)
		report.Results = append(report.Results, result)
		if !result.OK() {
			report.Failed++
			continue
		}
		report.Succeeded++

		if opts.DeleteAfterSuccess {
			if err := os.Remove(file.Path); err != nil {
				p.logger.Error("delete staged file", "file", file.Filename, "error", err)
			} else {
				p.logger.Info("deleted staged file", "file", file.Filename)
			}
		}
	}

	p.logger.Info("batch processing complete",
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"total", report.Total,
	)
	return report, nil
}

// ProcessFile transcribes one staged file and stores the conversation and its ideas.
func (p *Processor) ProcessFile(ctx context.Context, file staging.StagedFile) FileResult {
	log := p.logger.With("file", file.Filename)
	log.Info("processing file", "path", file.Path, "size_bytes", file.Size)

	result := FileResult{File: file}
	if p.transcriber == nil {
		result.Err = fmt.Errorf("%w: transcriber is not configured", domain.ErrTranscription)
		log.Error("process file", "error", result.Err)
		return result
	}

	text, err := p.transcriber.Transcribe(ctx, file.Path)
	if err != nil {
		result.Err = wrapAs(domain.ErrTranscription, err)
		log.Error("transcription failed", "error", err)
		return result
	}

	result.Ingested, result.Err = p.ingest(ctx, domain.ConversationDraft{
		Title:   "Audio: " + file.Filename,
		RawText: text,
		Source:  domain.SourceTranscribed,
	})
	if result.Err != nil {
		log.Error("process file", "conversation_id", result.ConversationID, "error", result.Err)
		return result
	}

	if p.tracker != nil {
		p.tracker.Forget(file.Filename)
	}
	log.Info("file processed", "conversation_id", result.ConversationID, "ideas", len(result.IdeaIDs))
	return result
}

// ProcessText stores a manually entered conversation and generates its ideas.
func (p *Processor) ProcessText(ctx context.Context, title, text string) (Ingested, error) {
	return p.ingest(ctx, domain.ConversationDraft{Title: title, RawText: text, Source: domain.SourceManual})
}

// ImportFile reads a transcript export and runs it through idea generation.
func (p *Processor) ImportFile(ctx context.Context, path string) (Ingested, error) {
	if p.importer == nil {
		return Ingested{}, fmt.Errorf("transcript importer is not configured")
	}

	title, text, err := p.importer.Import(ctx, path)
	if err != nil {
		return Ingested{}, fmt.Errorf("import %s: %w", path, err)
	}

	ingested, err := p.ingest(ctx, domain.ConversationDraft{Title: title, RawText: text, Source: domain.SourceImported})
	if err != nil {
		return ingested, err
	}
	p.logger.Info("transcript imported", "path", path, "conversation_id", ingested.ConversationID, "ideas", len(ingested.IdeaIDs))
	return ingested, nil
}

func (p *Processor) ingest(ctx context.Context, draft domain.ConversationDraft) (Ingested, error) {
	if p.repo == nil {
		return Ingested{}, fmt.Errorf("repository is not configured")
	}

	var out Ingested
	id, err := p.repo.CreateConversation(ctx, draft)
	if err != nil {
		return out, fmt.Errorf("save conversation: %w", err)
	}
	out.ConversationID = id
	p.logger.Debug("conversation saved", "conversation_id", id, "source", string(draft.Source))

	if p.generator == nil {
		p.markStatus(ctx, id, domain.StatusFailed)
		return out, fmt.Errorf("%w: idea generator is not configured", domain.ErrGeneration)
	}

	drafts, err := p.generator.Generate(ctx, draft.RawText)
	if err != nil {
		p.markStatus(ctx, id, domain.StatusFailed)
		return out, wrapAs(domain.ErrGeneration, err)
	}
	for i, d := range drafts {
		if err := d.Validate(); err != nil {
			p.markStatus(ctx, id, domain.StatusFailed)
			return out, fmt.Errorf("%w: idea %d: %w", domain.ErrGeneration, i+1, err)
		}
	}

	out.IdeaIDs = make([]int64, 0, len(drafts))
	for _, d := range drafts {
		ideaID, err := p.repo.CreateBlogPostIdea(ctx, domain.NewIdeaDraft{ConversationID: id, IdeaDraft: d})
		if err != nil {
			p.markStatus(ctx, id, domain.StatusFailed)
			return out, fmt.Errorf("save idea %q: %w", d.Title, err)
		}
		out.IdeaIDs = append(out.IdeaIDs, ideaID)
		p.logger.Debug("idea saved", "idea_id", ideaID, "title", d.Title, "score", domain.Score(d.Attributes))
	}

	p.markStatus(ctx, id, domain.StatusProcessed)
	return out, nil
}

func (p *Processor) markStatus(ctx context.Context, id int64, status string) {
	if err := p.repo.UpdateConversationStatus(ctx, id, status); err != nil {
		p.logger.Error("update conversation status", "conversation_id", id, "status", status, "error", err)
	}
}

func wrapAs(sentinel, err error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
