package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
)

const docxRelImage = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"

// docxLoader extracts a Word document: all paragraph text as one stream
// (no page attribution) plus the package's embedded image parts.
type docxLoader struct {
	opts Options
}

func (l *docxLoader) Load(path, assetsRoot string) ([]Chunk, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx %s: %w", path, err)
	}
	defer zr.Close()

	files := zipFileMap(&zr.Reader)

	paragraphs, err := docxParagraphs(files)
	if err != nil {
		return nil, fmt.Errorf("parse docx %s: %w", path, err)
	}

	assetsDir, err := ensureAssetsDir(path, assetsRoot)
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(path)
	base := slugify(docBase(path))

	var chunks []Chunk
	for _, c := range splitText(strings.Join(paragraphs, "\n"), l.opts.ChunkSize, l.opts.ChunkOverlap) {
		chunks = append(chunks, textChunk(c, filename, nil))
	}

	// Word stores no per-image position, so captions borrow the opening
	// paragraphs as a context snippet.
	capN := 6
	if capN > len(paragraphs) {
		capN = len(paragraphs)
	}
	caption := truncateRunes(normalizeWS(strings.Join(paragraphs[:capN], " ")), captionRunes)

	figure := 1
	for i, part := range docxImageParts(files) {
		data, err := readZipFile(part.file)
		if err != nil {
			log.Printf("extract: docx %s: skipping image part %s: %v", filename, part.file.Name, err)
			continue
		}
		name := fmt.Sprintf("%s_fig_%d%s", base, i+1, extForContentType(part.contentType))
		abs, err := saveAsset(assetsDir, name, data)
		if err != nil {
			log.Printf("extract: docx %s: skipping image part %s: %v", filename, part.file.Name, err)
			continue
		}
		rel, err := relAssetPath(abs, assetsRoot)
		if err != nil {
			log.Printf("extract: docx %s: skipping image part %s: %v", filename, part.file.Name, err)
			continue
		}
		chunks = append(chunks, imageChunk(rel, filename, nil, figure, caption))
		figure++
	}

	return chunks, nil
}

// docxParagraphs walks word/document.xml and returns the non-blank
// paragraph texts in document order.
func docxParagraphs(files map[string]*zip.File) ([]string, error) {
	docFile, ok := files["word/document.xml"]
	if !ok {
		return nil, fmt.Errorf("word/document.xml not found in archive")
	}
	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var paragraphs []string
	var current strings.Builder
	inParagraph := false
	inText := false

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
			case "t":
				inText = inParagraph
			case "br", "cr":
				if inParagraph {
					current.WriteByte('\n')
				}
			case "tab":
				if inParagraph {
					current.WriteByte(' ')
				}
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				inParagraph = false
				if text := strings.TrimSpace(current.String()); text != "" {
					paragraphs = append(paragraphs, text)
				}
			}
		}
	}
	return paragraphs, nil
}

type docxImagePart struct {
	file        *zip.File
	contentType string
}

// docxImageParts discovers embedded images. The relationship graph of the
// main document part is the primary route, ordered by relationship ID; only
// when it yields nothing does a sorted scan of word/media/ take over. Zero
// images is a valid terminal outcome.
func docxImageParts(files map[string]*zip.File) []docxImagePart {
	types := ooxmlContentTypes(files)

	rels, err := parseRelationships(files, "word/_rels/document.xml.rels")
	if err != nil {
		rels = nil
	}
	sortRelsByID(rels)

	var parts []docxImagePart
	for _, rel := range rels {
		if rel.Type != docxRelImage {
			continue
		}
		target := resolveRelTarget("word", rel.Target)
		if f, ok := files[target]; ok {
			parts = append(parts, docxImagePart{file: f, contentType: types[partExt(target)]})
		}
	}
	if len(parts) > 0 {
		return parts
	}

	var names []string
	for name := range files {
		if strings.HasPrefix(name, "word/media/") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		parts = append(parts, docxImagePart{file: files[name], contentType: types[partExt(name)]})
	}
	return parts
}

// extForContentType picks the on-disk extension for an image part from its
// declared content type, defaulting to .png.
func extForContentType(ct string) string {
	switch {
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return ".jpg"
	case strings.Contains(ct, "png"):
		return ".png"
	case strings.Contains(ct, "gif"):
		return ".gif"
	default:
		return ".png"
	}
}
