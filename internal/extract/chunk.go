package extract

import (
	"encoding/json"
	"fmt"
)

// Chunk kinds.
const (
	TypeText  = "text"
	TypeImage = "image"
)

const defaultImageCaption = "Image from document"

// Chunk is one unit of extracted content, ready for embedding and indexing.
type Chunk struct {
	Content string   `json:"content"`
	Meta    Metadata `json:"metadata"`
}

// Metadata records a chunk's provenance. The field set here is the contract
// the index and the chat API rely on; Page is nil for formats without
// page or slide attribution (DOCX, plain text).
type Metadata struct {
	Type         string `json:"type"`
	OrigFilename string `json:"orig_filename"`
	Page         *int   `json:"page,omitempty"`

	// Image chunks only.
	ImagePath string `json:"image_path,omitempty"`
	FigureNo  int    `json:"figure_no,omitempty"`
	Caption   string `json:"caption,omitempty"`
}

// MarshalJSON keeps the wire shape stable: image chunks always carry
// image_path, figure_no and caption, even when the caption is empty.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"type":          m.Type,
		"orig_filename": m.OrigFilename,
	}
	if m.Page != nil {
		out["page"] = *m.Page
	}
	if m.Type == TypeImage {
		out["image_path"] = m.ImagePath
		out["figure_no"] = m.FigureNo
		out["caption"] = m.Caption
	}
	return json.Marshal(out)
}

func textChunk(content, origFilename string, page *int) Chunk {
	return Chunk{
		Content: content,
		Meta: Metadata{
			Type:         TypeText,
			OrigFilename: origFilename,
			Page:         page,
		},
	}
}

// imageChunk builds the "[Figure <n>] <caption>" record for an image whose
// bytes are already on disk at relPath. Callers must not invoke this for a
// failed asset write.
func imageChunk(relPath, origFilename string, page *int, figureNo int, caption string) Chunk {
	short := caption
	if short == "" {
		short = defaultImageCaption
	}
	return Chunk{
		Content: fmt.Sprintf("[Figure %d] %s", figureNo, short),
		Meta: Metadata{
			Type:         TypeImage,
			OrigFilename: origFilename,
			Page:         page,
			ImagePath:    relPath,
			FigureNo:     figureNo,
			Caption:      caption,
		},
	}
}
