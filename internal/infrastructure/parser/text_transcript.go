package parser

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// TextTranscript imports plain-text and Markdown transcripts.
type TextTranscript struct{}

// NewTextTranscript returns the plain-text importer.
func NewTextTranscript() *TextTranscript {
	return &TextTranscript{}
}

func (t *TextTranscript) Name() string {
	return "text"
}

func (t *TextTranscript) Extensions() []string {
	return []string{".txt", ".md"}
}

// Import uses a leading Markdown heading as the title, otherwise the file name.
func (t *TextTranscript) Import(_ context.Context, path string) (string, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read transcript: %w", err)
	}

	text := strings.TrimSpace(strings.ReplaceAll(string(raw), "\r\n", "\n"))
	title := titleFromPath(path)
	if first, rest, _ := strings.Cut(text, "\n"); strings.HasPrefix(first, "# ") {
		title = strings.TrimSpace(strings.TrimPrefix(first, "# "))
		text = strings.TrimSpace(rest)
	}

	if text == "" {
		return "", "", fmt.Errorf("transcript %s is empty", path)
	}
	return title, text, nil
}
