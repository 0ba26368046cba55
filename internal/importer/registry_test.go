package importer

import (
	"context"
	"errors"
	"testing"
)

type fakeImporter struct {
	name string
	exts []string
	err  error
}

func (f fakeImporter) Name() string         { return f.name }
func (f fakeImporter) Extensions() []string { return f.exts }
func (f fakeImporter) Import(_ context.Context, path string) (string, string, error) {
	return f.name, path, f.err
}

func TestRegistryDispatchesByExtension(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(fakeImporter{name: "html", exts: []string{".html", ".htm"}})
	reg.Register(fakeImporter{name: "text", exts: []string{".txt"}})

	title, text, err := reg.Import(context.Background(), "/tmp/Call.HTM")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if title != "html" || text != "/tmp/Call.HTM" {
		t.Fatalf("dispatched to wrong importer: %s %s", title, text)
	}

	if _, _, err := reg.Import(context.Background(), "/tmp/call.pdf"); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
	if got := reg.Supported(); len(got) != 3 || got[0] != ".htm" {
		t.Fatalf("unexpected supported list %v", got)
	}
}

func TestRegistryURLs(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	if _, err := reg.Resolve("https://example.com/call"); err == nil {
		t.Fatalf("expected error without url importer")
	}

	reg.RegisterURL(fakeImporter{name: "web"})
	imp, err := reg.Resolve("https://example.com/call")
	if err != nil || imp.Name() != "web" {
		t.Fatalf("resolve url: %v", err)
	}
}

func TestRegistryWrapsImporterErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	reg := NewRegistry()
	reg.Register(fakeImporter{name: "text", exts: []string{".txt"}, err: boom})

	if _, _, err := reg.Import(context.Background(), "a.txt"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
