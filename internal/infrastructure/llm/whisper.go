package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"TalkIdeas/internal/config"
	"TalkIdeas/internal/domain"
	"TalkIdeas/internal/ports"
)

// WhisperTranscriber implements ports.Transcriber with the OpenAI audio API.
type WhisperTranscriber struct {
	client openai.Client
	model  openai.AudioModel
}

var _ ports.Transcriber = (*WhisperTranscriber)(nil)

// NewWhisperTranscriber builds a transcriber; the model defaults to whisper-1.
func NewWhisperTranscriber(cfg config.TranscriberConfig, opts ...option.RequestOption) (*WhisperTranscriber, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("transcriber: openai api key is empty")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(cfg.Timeout))
	}
	clientOpts = append(clientOpts, opts...)

	model := openai.AudioModel(cfg.Model)
	if model == "" {
		model = openai.AudioModelWhisper1
	}

	return &WhisperTranscriber{client: openai.NewClient(clientOpts...), model: model}, nil
}

// Transcribe uploads the audio file and returns the recognized text.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	resp, err := w.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  f,
		Model: w.model,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrTranscription, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty transcript for %s", domain.ErrTranscription, path)
	}
	return text, nil
}
