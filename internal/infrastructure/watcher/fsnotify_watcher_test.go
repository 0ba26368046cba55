package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"TalkIdeas/internal/staging"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []staging.Event
	seen   chan struct{}
}

func (h *recordingHandler) Handle(_ context.Context, ev staging.Event) staging.Outcome {
	h.mu.Lock()
	h.events = append(h.events, ev)
	h.mu.Unlock()
	select {
	case h.seen <- struct{}{}:
	default:
	}
	return staging.Outcome{Filename: filepath.Base(ev.Path)}
}

func TestNewRejectsMissingDirectory(t *testing.T) {
	t.Parallel()

	if _, err := New(filepath.Join(t.TempDir(), "missing"), &recordingHandler{}, nil); err == nil {
		t.Fatalf("expected error for missing watched dir")
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := New(file, &recordingHandler{}, nil); err == nil {
		t.Fatalf("expected error when watched path is a file")
	}
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cases := []struct {
		op   fsnotify.Op
		want staging.Op
	}{
		{fsnotify.Create, staging.OpCreate},
		{fsnotify.Write, staging.OpWrite},
		{fsnotify.Rename, staging.OpRemove},
		{fsnotify.Remove, staging.OpRemove},
		{fsnotify.Chmod, staging.OpChmod},
	}
	for _, tc := range cases {
		ev, ok := translate(fsnotify.Event{Name: filepath.Join(dir, "blog_x.wav"), Op: tc.op})
		if !ok {
			t.Fatalf("%v: not translated", tc.op)
		}
		if ev.Op != tc.want {
			t.Fatalf("%v: got %v, want %v", tc.op, ev.Op, tc.want)
		}
	}

	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	ev, _ := translate(fsnotify.Event{Name: sub, Op: fsnotify.Create})
	if !ev.IsDir {
		t.Fatalf("expected directory create to be flagged")
	}
}

func TestRunForwardsCreateEvents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	handler := &recordingHandler{seen: make(chan struct{}, 1)}
	w, err := New(dir, handler, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-w.Ready():
	case <-time.After(5 * time.Second):
		t.Fatalf("watcher did not become ready")
	}

	target := filepath.Join(dir, "blog_meeting.wav")
	if err := os.WriteFile(target, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		found := false
		handler.mu.Lock()
		for _, ev := range handler.events {
			if ev.Op == staging.OpCreate && ev.Path == target {
				found = true
			}
		}
		handler.mu.Unlock()
		if found {
			break
		}
		select {
		case <-handler.seen:
		case <-deadline:
			t.Fatalf("create event for %s not observed", target)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("watcher did not stop")
	}
}
