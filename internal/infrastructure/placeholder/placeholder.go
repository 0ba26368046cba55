// Package placeholder provides offline stand-ins for the transcription and
// idea generation providers.
package placeholder

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"TalkIdeas/internal/domain"
	"TalkIdeas/internal/ports"
)

const (
	transcriptPrefix = "Placeholder transcript for "
	rawResponse      = "placeholder response"
	subjectWords     = 6
)

// Transcriber returns a canned transcript naming the file.
type Transcriber struct{}

var _ ports.Transcriber = Transcriber{}

func (Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return transcriptPrefix + stem + ".\nA configured transcription provider returns the recognized speech here.", nil
}

// Generator returns two fixed ideas about the transcript's subject.
type Generator struct{}

var _ ports.IdeaGenerator = Generator{}

func (Generator) Generate(ctx context.Context, transcript string) ([]domain.IdeaDraft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	subject := Subject(transcript)
	return []domain.IdeaDraft{
		{
			Title:       fmt.Sprintf("Key Insights from %s", subject),
			Description: "Main takeaways and actionable insights from this conversation",
			Attributes: domain.Attributes{
				UsefulnessPotential:    8,
				FitWithSEOStrategy:     7,
				FitWithContentStrategy: 8,
				InspirationPotential:   6,
				CollaborationPotential: 7,
				Innovation:             6,
				Difficulty:             5,
			},
			RawResponse: rawResponse,
		},
		{
			Title:       fmt.Sprintf("Lessons Learned: %s", subject),
			Description: "Strategic lessons and implementation ideas",
			Attributes: domain.Attributes{
				UsefulnessPotential:    7,
				FitWithSEOStrategy:     6,
				FitWithContentStrategy: 7,
				InspirationPotential:   8,
				CollaborationPotential: 6,
				Innovation:             7,
				Difficulty:             6,
			},
			RawResponse: rawResponse,
		},
	}, nil
}

// Subject names what a transcript is about: the file stem for placeholder
// transcripts, otherwise the first few words of the first line.
func Subject(transcript string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(transcript), "\n")
	if rest, ok := strings.CutPrefix(line, transcriptPrefix); ok {
		return strings.TrimSuffix(rest, ".")
	}

	words := strings.Fields(line)
	if len(words) == 0 {
		return "this conversation"
	}
	if len(words) > subjectWords {
		words = words[:subjectWords]
	}
	return strings.Join(words, " ")
}
