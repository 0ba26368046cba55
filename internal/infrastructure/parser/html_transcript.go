package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var spaceExpr = regexp.MustCompile(`\s+`)

// HTMLTranscript extracts transcript text from meeting-tool HTML exports and web pages.
type HTMLTranscript struct {
	client *http.Client
}

// NewHTMLTranscript wires an HTTP client for URL imports; a nil client gets a 20s timeout.
func NewHTMLTranscript(client *http.Client) *HTMLTranscript {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTMLTranscript{client: client}
}

// Name identifies the importer inside the registry.
func (h *HTMLTranscript) Name() string {
	return "html"
}

// Extensions lists the file types handled.
func (h *HTMLTranscript) Extensions() []string {
	return []string{".html", ".htm"}
}

// Import reads a local file or an http(s) URL and returns its title and body text.
func (h *HTMLTranscript) Import(ctx context.Context, path string) (string, string, error) {
	var (
		doc *goquery.Document
		err error
	)
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		doc, err = h.fetchDocument(ctx, path)
	} else {
		doc, err = openDocument(path)
	}
	if err != nil {
		return "", "", err
	}

	title, text := extractTranscript(doc)
	if text == "" {
		return "", "", fmt.Errorf("no transcript text found in %s", path)
	}
	if title == "" {
		title = titleFromPath(path)
	}
	return title, text, nil
}

func (h *HTMLTranscript) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "TalkIdeas/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcript page returned %s", resp.Status)
	}

	return parseDocument(resp.Body)
}

func openDocument(path string) (*goquery.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	return parseDocument(f)
}

func parseDocument(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// extractTranscript prefers <title>, then the first heading. Body text comes
// from paragraph-like elements, one per line, skipping nested duplicates.
func extractTranscript(doc *goquery.Document) (string, string) {
	title := collapse(doc.Find("head > title").First().Text())
	if title == "" {
		title = collapse(doc.Find("h1").First().Text())
	}

	var lines []string
	doc.Find("p, li, blockquote").Each(func(_ int, sel *goquery.Selection) {
		if sel.ParentsFiltered("p, li, blockquote").Length() > 0 {
			return
		}
		if line := collapse(sel.Text()); line != "" {
			lines = append(lines, line)
		}
	})

	return title, strings.Join(lines, "\n")
}

func collapse(s string) string {
	return strings.TrimSpace(spaceExpr.ReplaceAllString(s, " "))
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
