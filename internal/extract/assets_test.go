package extract

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report", "report"},
		{"my report (final).v2", "my_report__final_.v2"},
		{"a-b_c.d", "a-b_c.d"},
		{"über docs", "über_docs"},
	}
	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	for _, in := range []string{"a b c", "x/y\\z", "plain", "mixed 123!.png"} {
		once := slugify(in)
		if twice := slugify(once); twice != once {
			t.Errorf("slugify not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestEnsureAssetsDir(t *testing.T) {
	root := t.TempDir()
	dir, err := ensureAssetsDir("/tmp/in/annual report.pdf", root)
	if err != nil {
		t.Fatalf("ensureAssetsDir: %v", err)
	}
	if filepath.Base(dir) != "annual_report_assets" {
		t.Errorf("dir = %q, want annual_report_assets", filepath.Base(dir))
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("assets dir was not created: %v", err)
	}

	// Creating it again must not fail.
	if _, err := ensureAssetsDir("/tmp/in/annual report.pdf", root); err != nil {
		t.Fatalf("second ensureAssetsDir: %v", err)
	}
}

func TestRelAssetPathForwardSlashes(t *testing.T) {
	root := t.TempDir()
	abs := filepath.Join(root, "doc_assets", "doc_p1_1.png")
	rel, err := relAssetPath(abs, root)
	if err != nil {
		t.Fatalf("relAssetPath: %v", err)
	}
	if strings.Contains(rel, "\\") {
		t.Errorf("rel path must use forward slashes: %q", rel)
	}
	if rel != "doc_assets/doc_p1_1.png" {
		t.Errorf("rel = %q", rel)
	}
}

func TestSaveAsset(t *testing.T) {
	dir := t.TempDir()
	abs, err := saveAsset(dir, "fig.bin", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("saveAsset: %v", err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(data) != 3 {
		t.Errorf("wrote %d bytes, want 3", len(data))
	}
}

func TestSavePNGRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	abs, err := savePNG(dir, "pix.png", src)
	if err != nil {
		t.Fatalf("savePNG: %v", err)
	}
	f, err := os.Open(abs)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Bounds().Dx() != 2 || decoded.Bounds().Dy() != 2 {
		t.Errorf("bounds = %v", decoded.Bounds())
	}
}
