package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeZip(t *testing.T, path string, parts map[string][]byte) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

const docxContentTypes = `<?xml version="1.0"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="xml" ContentType="application/xml"/>
  <Default Extension="png" ContentType="image/png"/>
  <Default Extension="jpeg" ContentType="image/jpeg"/>
</Types>`

func docxDocumentXML(paragraphs ...string) []byte {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		sb.WriteString(`<w:p><w:r><w:t>`)
		sb.WriteString(p)
		sb.WriteString(`</w:t></w:r></w:p>`)
	}
	sb.WriteString(`</w:body></w:document>`)
	return []byte(sb.String())
}

func TestDocxTextOnly(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "memo.docx")
	writeZip(t, p, map[string][]byte{
		"[Content_Types].xml": []byte(docxContentTypes),
		"word/document.xml":   docxDocumentXML("First paragraph.", "Second paragraph."),
	})

	chunks, err := LoadAndSplit(p, dir, Options{})
	if err != nil {
		t.Fatalf("LoadAndSplit: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Meta.Type != TypeText || c.Meta.Page != nil {
		t.Errorf("docx text chunks carry no page: %+v", c.Meta)
	}
	if !strings.Contains(c.Content, "First paragraph. Second paragraph.") {
		t.Errorf("content = %q", c.Content)
	}
}

func TestDocxImagesViaRelationships(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "figures.docx")
	rels := `<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId10" Type="` + docxRelImage + `" Target="media/image2.jpeg"/>
  <Relationship Id="rId2" Type="` + docxRelImage + `" Target="media/image1.png"/>
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`
	writeZip(t, p, map[string][]byte{
		"[Content_Types].xml":          []byte(docxContentTypes),
		"word/document.xml":            docxDocumentXML("Overview of the data."),
		"word/_rels/document.xml.rels": []byte(rels),
		"word/media/image1.png":        []byte("png-bytes"),
		"word/media/image2.jpeg":       []byte("jpeg-bytes"),
	})

	chunks, err := LoadAndSplit(p, dir, Options{})
	if err != nil {
		t.Fatalf("LoadAndSplit: %v", err)
	}

	var images []Chunk
	for _, c := range chunks {
		if c.Meta.Type == TypeImage {
			images = append(images, c)
		}
	}
	if len(images) != 2 {
		t.Fatalf("expected 2 image chunks, got %d", len(images))
	}

	// rId2 sorts before rId10, so image1.png is figure 1 and keeps its
	// declared extension; image2 gets .jpg from its content type.
	if images[0].Meta.FigureNo != 1 || images[1].Meta.FigureNo != 2 {
		t.Errorf("figure numbers = %d, %d", images[0].Meta.FigureNo, images[1].Meta.FigureNo)
	}
	if !strings.HasSuffix(images[0].Meta.ImagePath, "_fig_1.png") {
		t.Errorf("first image path = %q", images[0].Meta.ImagePath)
	}
	if !strings.HasSuffix(images[1].Meta.ImagePath, "_fig_2.jpg") {
		t.Errorf("second image path = %q", images[1].Meta.ImagePath)
	}

	for _, img := range images {
		if img.Meta.Caption == "" || !strings.Contains(img.Meta.Caption, "Overview of the data.") {
			t.Errorf("caption should borrow opening paragraphs, got %q", img.Meta.Caption)
		}
		if !strings.HasPrefix(img.Content, "[Figure ") {
			t.Errorf("content = %q", img.Content)
		}
		abs := filepath.Join(dir, filepath.FromSlash(img.Meta.ImagePath))
		if _, err := os.Stat(abs); err != nil {
			t.Errorf("image file missing on disk: %v", err)
		}
	}
}

func TestDocxMediaScanFallback(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "norels.docx")
	writeZip(t, p, map[string][]byte{
		"[Content_Types].xml":   []byte(docxContentTypes),
		"word/document.xml":     docxDocumentXML("Body text."),
		"word/media/image1.png": []byte("raw"),
	})

	chunks, err := LoadAndSplit(p, dir, Options{})
	if err != nil {
		t.Fatalf("LoadAndSplit: %v", err)
	}
	var images int
	for _, c := range chunks {
		if c.Meta.Type == TypeImage {
			images++
		}
	}
	if images != 1 {
		t.Errorf("media scan fallback should find 1 image, got %d", images)
	}
}

func TestDocxMissingDocumentXML(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "broken.docx")
	writeZip(t, p, map[string][]byte{
		"[Content_Types].xml": []byte(docxContentTypes),
	})

	if _, err := LoadAndSplit(p, dir, Options{}); err == nil {
		t.Fatal("expected error for archive without word/document.xml")
	}
}

func TestDocxNotAZip(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "fake.docx")
	if err := os.WriteFile(p, []byte("this is not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAndSplit(p, dir, Options{}); err == nil {
		t.Fatal("expected error for non-zip docx")
	}
}
