package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"TalkIdeas/internal/domain"
	"TalkIdeas/internal/staging"
)

const transcript = "We talked about pricing pages, onboarding emails and a calculator for ROI."

func twoDrafts() []domain.IdeaDraft {
	return []domain.IdeaDraft{
		{Title: "Pricing Page Teardown", Description: "Walk through three pricing pages.", Attributes: attrs(8, 7, 8, 6, 7, 6, 5)},
		{Title: "ROI Calculator", Description: "Build a calculator.", Attributes: attrs(9, 8, 8, 7, 7, 8, 4)},
	}
}

func stageFile(t *testing.T, dir, name string) staging.StagedFile {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return staging.StagedFile{Path: path, Filename: name, Size: 5}
}

func approve([]staging.StagedFile) bool { return true }

func TestProcessFileStoresConversationAndIdeas(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	tracker := &forgetRecorder{}
	p := NewProcessor(ProcessorDeps{
		Repository:  repo,
		Transcriber: &stubTranscriber{text: transcript},
		Generator:   &stubGenerator{drafts: twoDrafts()},
		Tracker:     tracker,
		StagingDir:  t.TempDir(),
	})

	file := stageFile(t, t.TempDir(), "blog_pricing.wav")
	result := p.ProcessFile(context.Background(), file)
	if !result.OK() {
		t.Fatalf("process file: %v", result.Err)
	}
	if len(result.IdeaIDs) != 2 {
		t.Fatalf("expected 2 ideas, got %d", len(result.IdeaIDs))
	}

	conv, err := repo.GetConversation(context.Background(), result.ConversationID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if conv.Title != "Audio: blog_pricing.wav" {
		t.Fatalf("unexpected title %q", conv.Title)
	}
	if conv.Source != domain.SourceTranscribed {
		t.Fatalf("unexpected source %q", conv.Source)
	}
	if conv.Status != domain.StatusProcessed {
		t.Fatalf("unexpected status %q", conv.Status)
	}
	if len(tracker.names) != 1 || tracker.names[0] != "blog_pricing.wav" {
		t.Fatalf("expected filename to be forgotten, got %v", tracker.names)
	}
}

func TestProcessFileTranscriptionFailure(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	p := NewProcessor(ProcessorDeps{
		Repository:  repo,
		Transcriber: &stubTranscriber{err: errors.New("model offline")},
		Generator:   &stubGenerator{drafts: twoDrafts()},
	})

	result := p.ProcessFile(context.Background(), stageFile(t, t.TempDir(), "blog_a.wav"))
	if !errors.Is(result.Err, domain.ErrTranscription) {
		t.Fatalf("expected transcription error, got %v", result.Err)
	}
	if len(repo.conversations) != 0 {
		t.Fatalf("no conversation should be stored on transcription failure")
	}
}

func TestProcessFileGenerationFailureMarksConversationFailed(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	tracker := &forgetRecorder{}
	p := NewProcessor(ProcessorDeps{
		Repository:  repo,
		Transcriber: &stubTranscriber{text: transcript},
		Generator:   &stubGenerator{err: errors.New("rate limited")},
		Tracker:     tracker,
	})

	result := p.ProcessFile(context.Background(), stageFile(t, t.TempDir(), "blog_a.wav"))
	if !errors.Is(result.Err, domain.ErrGeneration) {
		t.Fatalf("expected generation error, got %v", result.Err)
	}
	conv, err := repo.GetConversation(context.Background(), result.ConversationID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if conv.Status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %q", conv.Status)
	}
	if len(tracker.names) != 0 {
		t.Fatalf("failed file must stay tracked")
	}
}

func TestProcessFileRejectsInvalidDraftsBeforeInsert(t *testing.T) {
	t.Parallel()

	drafts := twoDrafts()
	drafts[1].Difficulty = 11
	repo := newMemoryRepo()
	p := NewProcessor(ProcessorDeps{
		Repository:  repo,
		Transcriber: &stubTranscriber{text: transcript},
		Generator:   &stubGenerator{drafts: drafts},
	})

	result := p.ProcessFile(context.Background(), stageFile(t, t.TempDir(), "blog_a.wav"))
	if !errors.Is(result.Err, domain.ErrGeneration) || !errors.Is(result.Err, domain.ErrValidation) {
		t.Fatalf("expected generation+validation error, got %v", result.Err)
	}
	if len(repo.ideas) != 0 {
		t.Fatalf("no idea should be stored when a draft is invalid, got %d", len(repo.ideas))
	}
}

func TestProcessFileZeroIdeasIsSuccess(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	p := NewProcessor(ProcessorDeps{
		Repository:  repo,
		Transcriber: &stubTranscriber{text: transcript},
		Generator:   &stubGenerator{},
	})

	result := p.ProcessFile(context.Background(), stageFile(t, t.TempDir(), "blog_a.wav"))
	if !result.OK() {
		t.Fatalf("process file: %v", result.Err)
	}
	if len(result.IdeaIDs) != 0 {
		t.Fatalf("expected no ideas, got %d", len(result.IdeaIDs))
	}
}

func TestProcessFileIdeaStoreFailure(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	repo.failIdeas = true
	p := NewProcessor(ProcessorDeps{
		Repository:  repo,
		Transcriber: &stubTranscriber{text: transcript},
		Generator:   &stubGenerator{drafts: twoDrafts()},
	})

	result := p.ProcessFile(context.Background(), stageFile(t, t.TempDir(), "blog_a.wav"))
	if result.OK() {
		t.Fatalf("expected idea store failure")
	}
	conv, _ := repo.GetConversation(context.Background(), result.ConversationID)
	if conv.Status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %q", conv.Status)
	}
}

func TestProcessBatchRequiresConfirmation(t *testing.T) {
	t.Parallel()

	transcriber := &stubTranscriber{text: transcript}
	p := NewProcessor(ProcessorDeps{
		Repository:  newMemoryRepo(),
		Transcriber: transcriber,
		Generator:   &stubGenerator{drafts: twoDrafts()},
	})
	files := []staging.StagedFile{stageFile(t, t.TempDir(), "blog_a.wav")}

	if _, err := p.ProcessBatch(context.Background(), files, BatchOptions{}); !errors.Is(err, domain.ErrCancelled) {
		t.Fatalf("expected cancellation without confirm func, got %v", err)
	}
	decline := func([]staging.StagedFile) bool { return false }
	if _, err := p.ProcessBatch(context.Background(), files, BatchOptions{Confirm: decline}); !errors.Is(err, domain.ErrCancelled) {
		t.Fatalf("expected cancellation when declined, got %v", err)
	}
	if len(transcriber.calls) != 0 {
		t.Fatalf("nothing should be transcribed without approval")
	}
}

func TestProcessBatchEmptyList(t *testing.T) {
	t.Parallel()

	p := NewProcessor(ProcessorDeps{Repository: newMemoryRepo()})
	report, err := p.ProcessBatch(context.Background(), nil, BatchOptions{})
	if err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if report.Total != 0 || len(report.Results) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

type failingFor struct {
	stubTranscriber
	fail string
}

func (f *failingFor) Transcribe(ctx context.Context, path string) (string, error) {
	if filepath.Base(path) == f.fail {
		return "", errors.New("corrupt audio")
	}
	return f.stubTranscriber.Transcribe(ctx, path)
}

func TestProcessBatchContinuesAfterFailureAndDeletesSuccesses(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := []staging.StagedFile{
		stageFile(t, dir, "blog_c.m4a"),
		stageFile(t, dir, "blog_a.wav"),
		stageFile(t, dir, "blog_b.mp3"),
	}
	transcriber := &failingFor{stubTranscriber: stubTranscriber{text: transcript}, fail: "blog_b.mp3"}
	p := NewProcessor(ProcessorDeps{
		Repository:  newMemoryRepo(),
		Transcriber: transcriber,
		Generator:   &stubGenerator{drafts: twoDrafts()},
		StagingDir:  dir,
	})

	var approved []string
	confirm := func(list []staging.StagedFile) bool {
		for _, f := range list {
			approved = append(approved, f.Filename)
		}
		return true
	}

	report, err := p.ProcessBatch(context.Background(), files, BatchOptions{DeleteAfterSuccess: true, Confirm: confirm})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if report.Total != 3 || report.Succeeded != 2 || report.Failed != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	want := []string{"blog_a.wav", "blog_b.mp3", "blog_c.m4a"}
	for i, name := range want {
		if approved[i] != name || report.Results[i].File.Filename != name {
			t.Fatalf("files not processed in name order: %v", approved)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "blog_a.wav")); !os.IsNotExist(err) {
		t.Fatalf("successful file should be deleted")
	}
	if _, err := os.Stat(filepath.Join(dir, "blog_b.mp3")); err != nil {
		t.Fatalf("failed file must be kept: %v", err)
	}
}

func TestProcessBatchKeepsFilesByDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := stageFile(t, dir, "blog_a.wav")
	p := NewProcessor(ProcessorDeps{
		Repository:  newMemoryRepo(),
		Transcriber: &stubTranscriber{text: transcript},
		Generator:   &stubGenerator{drafts: twoDrafts()},
	})

	report, err := p.ProcessBatch(context.Background(), []staging.StagedFile{file}, BatchOptions{Confirm: approve})
	if err != nil || report.Succeeded != 1 {
		t.Fatalf("batch: %+v %v", report, err)
	}
	if _, err := os.Stat(file.Path); err != nil {
		t.Fatalf("file should be kept: %v", err)
	}
}

func TestProcessBatchStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewProcessor(ProcessorDeps{
		Repository:  newMemoryRepo(),
		Transcriber: &stubTranscriber{text: transcript},
		Generator:   &stubGenerator{},
	})

	files := []staging.StagedFile{stageFile(t, t.TempDir(), "blog_a.wav")}
	if _, err := p.ProcessBatch(ctx, files, BatchOptions{Confirm: approve}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestDiscoverCreatesStagingDirAndListsAudio(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "staging")
	p := NewProcessor(ProcessorDeps{StagingDir: dir})

	files, err := p.Discover()
	if err != nil {
		t.Fatalf("discover on missing dir: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected empty listing, got %d", len(files))
	}

	stageFile(t, dir, "blog_b.wav")
	stageFile(t, dir, "blog_a.mp3")
	stageFile(t, dir, "notes.txt")
	files, err = p.Discover()
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(files) != 2 || files[0].Filename != "blog_a.mp3" {
		t.Fatalf("unexpected listing %+v", files)
	}
}

func TestProcessTextAndImportFile(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	p := NewProcessor(ProcessorDeps{
		Repository: repo,
		Generator:  &stubGenerator{drafts: twoDrafts()},
		Importer:   &stubImporter{title: "Client call", text: transcript},
	})

	manual, err := p.ProcessText(context.Background(), "Notes", transcript)
	if err != nil {
		t.Fatalf("process text: %v", err)
	}
	imported, err := p.ImportFile(context.Background(), "call.html")
	if err != nil {
		t.Fatalf("import file: %v", err)
	}

	conv, _ := repo.GetConversation(context.Background(), manual.ConversationID)
	if conv.Source != domain.SourceManual {
		t.Fatalf("expected manual source, got %q", conv.Source)
	}
	conv, _ = repo.GetConversation(context.Background(), imported.ConversationID)
	if conv.Source != domain.SourceImported || conv.Title != "Client call" {
		t.Fatalf("unexpected imported conversation %+v", conv)
	}

	if _, err := p.ProcessText(context.Background(), "", "short"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for short text, got %v", err)
	}
}
