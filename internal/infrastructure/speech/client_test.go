package speech

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"TalkIdeas/internal/domain"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blog_call.wav")
	if err := os.WriteFile(path, []byte("fake-audio-bytes"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func TestClientTranscribe(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		if header.Filename != "blog_call.wav" || string(body) != "fake-audio-bytes" {
			http.Error(w, "unexpected upload", http.StatusBadRequest)
			return
		}
		if r.FormValue("model") != "large-v3" {
			http.Error(w, "unexpected model", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"text":"we should blog about onboarding"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "secret", "large-v3", 0)
	text, err := client.Transcribe(context.Background(), writeAudio(t))
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "we should blog about onboarding" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestClientTranscribeErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	audio := writeAudio(t)

	_, err := NewClient(server.URL, "", "", 0).Transcribe(context.Background(), audio)
	if !errors.Is(err, domain.ErrTranscription) {
		t.Fatalf("expected transcription error for 503, got %v", err)
	}

	_, err = NewClient("", "", "", 0).Transcribe(context.Background(), audio)
	if !errors.Is(err, domain.ErrTranscription) {
		t.Fatalf("expected transcription error without endpoint, got %v", err)
	}

	if _, err := NewClient(server.URL, "", "", 0).Transcribe(context.Background(), filepath.Join(t.TempDir(), "nope.wav")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestClientRejectsEmptyTranscript(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte(`{"text":"   "}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "", "", 0).Transcribe(context.Background(), writeAudio(t))
	if !errors.Is(err, domain.ErrTranscription) {
		t.Fatalf("expected transcription error for empty text, got %v", err)
	}
}
