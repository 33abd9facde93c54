// Package extract decomposes uploaded documents into retrieval-ready chunks.
//
// Supported formats:
//   - .pdf  — page text + embedded images (pdfcpu)
//   - .docx — paragraph text + image package parts (archive/zip → word/document.xml)
//   - .pptx — slide text + picture shapes (archive/zip → ppt/slides/slide*.xml)
//   - .txt, .csv, .md and anything else — best-effort plain text
//
// Each chunk is a (content, metadata) pair: text spans carry page or slide
// provenance where the format has one, and extracted images are written under
// <uploadsRoot>/<slug>_assets and referenced by relative path, with sequential
// figure numbers and a caption approximated from nearby text.
package extract

import (
	"path/filepath"
	"strings"
)

// DefaultUploadsRoot is where assets land when the caller passes an empty root.
const DefaultUploadsRoot = "uploads"

// Options tunes the fixed-window text chunking shared by all loaders.
type Options struct {
	ChunkSize    int // runes per chunk
	ChunkOverlap int // runes shared between consecutive chunks, must be < ChunkSize
}

func (o *Options) defaults() {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 900
	}
	if o.ChunkOverlap <= 0 || o.ChunkOverlap >= o.ChunkSize {
		o.ChunkOverlap = o.ChunkSize / 6
	}
}

// Loader extracts the ordered chunk sequence from one document format.
type Loader interface {
	Load(path, assetsRoot string) ([]Chunk, error)
}

// LoaderFor selects a loader by file extension, case-insensitively. Unknown
// extensions get the plain-text loader, so selection never fails.
func LoaderFor(path string, opts Options) Loader {
	opts.defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return &pdfLoader{opts: opts}
	case ".docx":
		return &docxLoader{opts: opts}
	case ".pptx":
		return &pptxLoader{opts: opts}
	case ".txt", ".csv", ".md":
		return &plainLoader{opts: opts}
	default:
		return &plainLoader{opts: opts}
	}
}

// LoadAndSplit detects the file type and returns the document's chunks in
// traversal order. Image files are saved under <uploadsRoot>/<slug>_assets
// before their chunks are emitted. An error here means the whole document
// could not be parsed as its claimed format; per-image failures are logged
// and skipped inside the loaders.
func LoadAndSplit(path, uploadsRoot string, opts Options) ([]Chunk, error) {
	if uploadsRoot == "" {
		uploadsRoot = DefaultUploadsRoot
	}
	return LoaderFor(path, opts).Load(path, uploadsRoot)
}
