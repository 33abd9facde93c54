package extract

import (
	"log"
	"os"
	"path/filepath"
	"strings"
)

// plainLoader handles .txt/.csv/.md and is the fallback for unknown
// extensions: the whole file is read as text, undecodable bytes dropped,
// no page attribution, no images.
type plainLoader struct {
	opts Options
}

func (l *plainLoader) Load(path, assetsRoot string) ([]Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Unreadable input degrades to an empty text stream.
		log.Printf("extract: read %s: %v", path, err)
		return nil, nil
	}

	text := strings.ToValidUTF8(string(data), "")
	filename := filepath.Base(path)

	var chunks []Chunk
	for _, c := range splitText(text, l.opts.ChunkSize, l.opts.ChunkOverlap) {
		chunks = append(chunks, textChunk(c, filename, nil))
	}
	return chunks, nil
}
