package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoaderForDispatch(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a.pdf", "*extract.pdfLoader"},
		{"a.PDF", "*extract.pdfLoader"},
		{"a.docx", "*extract.docxLoader"},
		{"a.PpTx", "*extract.pptxLoader"},
		{"a.txt", "*extract.plainLoader"},
		{"a.csv", "*extract.plainLoader"},
		{"a.md", "*extract.plainLoader"},
		{"a.xyz", "*extract.plainLoader"},
		{"noext", "*extract.plainLoader"},
	}
	for _, tt := range tests {
		l := LoaderFor(tt.path, Options{})
		if got := typeName(l); got != tt.want {
			t.Errorf("LoaderFor(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *pdfLoader:
		return "*extract.pdfLoader"
	case *docxLoader:
		return "*extract.docxLoader"
	case *pptxLoader:
		return "*extract.pptxLoader"
	case *plainLoader:
		return "*extract.plainLoader"
	default:
		return "unknown"
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	o.defaults()
	if o.ChunkSize != 900 || o.ChunkOverlap != 150 {
		t.Errorf("defaults = %d/%d, want 900/150", o.ChunkSize, o.ChunkOverlap)
	}

	o = Options{ChunkSize: 600, ChunkOverlap: 600}
	o.defaults()
	if o.ChunkOverlap != 100 {
		t.Errorf("overlap >= size should reset to size/6, got %d", o.ChunkOverlap)
	}
}

func TestLoadAndSplitPlainText(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "notes.txt")
	body := "Line one.\nLine two with   extra spaces."
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	chunks, err := LoadAndSplit(p, dir, Options{})
	if err != nil {
		t.Fatalf("LoadAndSplit: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Meta.Type != TypeText {
		t.Errorf("type = %q", c.Meta.Type)
	}
	if c.Meta.OrigFilename != "notes.txt" {
		t.Errorf("orig_filename = %q", c.Meta.OrigFilename)
	}
	if c.Meta.Page != nil {
		t.Errorf("plain text should not carry a page, got %d", *c.Meta.Page)
	}
	if !strings.Contains(c.Content, "Line one. Line two") {
		t.Errorf("content not normalized: %q", c.Content)
	}
}

func TestLoadAndSplitUnknownExtensionNeverFails(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "blob.xyz")
	if err := os.WriteFile(p, []byte{0xff, 0xfe, 0xfd}, 0o644); err != nil {
		t.Fatal(err)
	}

	chunks, err := LoadAndSplit(p, dir, Options{})
	if err != nil {
		t.Fatalf("unknown extension must not fail: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("undecodable bytes should yield zero chunks, got %d", len(chunks))
	}
}

func TestLoadAndSplitMissingFile(t *testing.T) {
	chunks, err := LoadAndSplit(filepath.Join(t.TempDir(), "gone.txt"), "", Options{})
	if err != nil {
		t.Fatalf("missing plain file degrades to empty, got error %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestLoadAndSplitLongText(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "long.md")
	var sb strings.Builder
	for sb.Len() < 2500 {
		sb.WriteString("alpha beta gamma delta ")
	}
	if err := os.WriteFile(p, []byte(sb.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	chunks, err := LoadAndSplit(p, dir, Options{})
	if err != nil {
		t.Fatalf("LoadAndSplit: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("long input should split into multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c.Content)) > 900 {
			t.Errorf("chunk %d exceeds window size: %d runes", i, len([]rune(c.Content)))
		}
	}
}
