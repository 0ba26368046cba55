package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"TalkIdeas/internal/domain"
	"TalkIdeas/internal/ports"
)

// Client talks to a self-hosted speech-to-text service.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
}

var _ ports.Transcriber = (*Client)(nil)

// NewClient creates a reusable HTTP client; timeout defaults to five minutes.
func NewClient(endpoint, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		model:    model,
		http:     &http.Client{Timeout: timeout},
	}
}

// Transcribe uploads the audio file to {endpoint}/transcribe.
func (c *Client) Transcribe(ctx context.Context, path string) (string, error) {
	if c.endpoint == "" {
		return "", fmt.Errorf("%w: speech endpoint is not configured", domain.ErrTranscription)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	var resp struct {
		Text string `json:"text"`
	}
	if err := c.upload(ctx, "/transcribe", f, filepath.Base(path), &resp); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrTranscription, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty transcript for %s", domain.ErrTranscription, path)
	}
	return text, nil
}

// upload streams the file as multipart form data so large recordings are not buffered.
func (c *Client) upload(ctx context.Context, path string, file io.Reader, filename string, v any) error {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		err := writeForm(form, file, filename, c.model)
		if err == nil {
			err = form.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, pr)
	if err != nil {
		_ = pr.Close()
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		_ = pr.Close()
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func writeForm(form *multipart.Writer, file io.Reader, filename, model string) error {
	if model != "" {
		if err := form.WriteField("model", model); err != nil {
			return fmt.Errorf("write model field: %w", err)
		}
	}
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy audio: %w", err)
	}
	return nil
}
