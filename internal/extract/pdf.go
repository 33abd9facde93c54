package extract

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	// Raster decoders for embedded PDF images. JPEG covers YCbCr and CMYK
	// streams, TIFF covers CMYK separations; re-encoding as PNG lands
	// everything in RGB.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// pdfLoader extracts a PDF page by page: page text chunked with 1-based
// page numbers, then the page's embedded images saved as PNG and captioned
// from the page's opening lines.
type pdfLoader struct {
	opts Options
}

func (l *pdfLoader) Load(filePath, assetsRoot string) ([]Chunk, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", filePath, err)
	}
	defer f.Close()

	pctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read %s: %w", filePath, err)
	}

	assetsDir, err := ensureAssetsDir(filePath, assetsRoot)
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(filePath)
	base := slugify(docBase(filePath))

	var chunks []Chunk
	figure := 1
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		page := pageNr
		pageText := pdfPageText(pctx, pageNr)

		for _, c := range splitText(pageText, l.opts.ChunkSize, l.opts.ChunkOverlap) {
			chunks = append(chunks, textChunk(c, filename, &page))
		}

		pageImages, err := pdfcpu.ExtractPageImages(pctx, pageNr, false)
		if err != nil {
			log.Printf("extract: pdf %s page %d: listing images failed: %v", filename, pageNr, err)
			continue
		}
		if len(pageImages) == 0 {
			continue
		}
		// ExtractPageImages keys by object number; order by it so figure
		// numbers and file names are stable across runs.
		images := make([]model.Image, 0, len(pageImages))
		for _, img := range pageImages {
			images = append(images, img)
		}
		sort.Slice(images, func(i, j int) bool { return images[i].ObjNr < images[j].ObjNr })

		caption := pdfPageCaption(pageText)
		for idx, img := range images {
			name := fmt.Sprintf("%s_p%d_%d.png", base, pageNr, idx+1)
			rel, err := savePDFImage(img, assetsDir, name, assetsRoot)
			if err != nil {
				log.Printf("extract: pdf %s page %d: skipping image %d: %v", filename, pageNr, idx+1, err)
				continue
			}
			chunks = append(chunks, imageChunk(rel, filename, &page, figure, caption))
			figure++
		}
	}

	return chunks, nil
}

// savePDFImage decodes one embedded image stream and writes it as PNG,
// returning the path relative to the assets root. Any failure skips just
// this image.
func savePDFImage(img model.Image, dir, name, assetsRoot string) (string, error) {
	data, err := io.ReadAll(img)
	if err != nil {
		return "", fmt.Errorf("read image stream: %w", err)
	}
	raster, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	abs, err := savePNG(dir, name, raster)
	if err != nil {
		return "", err
	}
	return relAssetPath(abs, assetsRoot)
}

// pdfPageCaption approximates a caption from the first few non-blank lines
// of the page's text.
func pdfPageCaption(pageText string) string {
	var lines []string
	for _, line := range strings.Split(pageText, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
			if len(lines) == 4 {
				break
			}
		}
	}
	return truncateRunes(normalizeWS(strings.Join(lines, " ")), captionRunes)
}

func pdfPageText(pctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return pdfStreamText(data)
}

// pdfStringRe matches PDF string literals: (text here)
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// pdfStreamText walks content stream operators and assembles the page text,
// preserving line structure: text-positioning operators (Td/TD/T*/') start
// new lines so caption heuristics can see the page's opening lines.
func pdfStreamText(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteByte('\n')
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")), bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}

	return cleanPDFText(sb.String())
}

// decodePDFString resolves the basic PDF escape sequences, including octal
// escapes like \040.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for j := 0; j < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; j++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

// cleanPDFText tidies extracted text line by line: spaces collapsed and
// non-printable runes dropped within lines, blank lines removed, line
// structure kept.
func cleanPDFText(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		var sb strings.Builder
		prevSpace := false
		for _, r := range line {
			switch {
			case unicode.IsSpace(r):
				if !prevSpace && sb.Len() > 0 {
					sb.WriteByte(' ')
					prevSpace = true
				}
			case unicode.IsPrint(r):
				sb.WriteRune(r)
				prevSpace = false
			}
		}
		if cleaned := strings.TrimSpace(sb.String()); cleaned != "" {
			lines = append(lines, cleaned)
		}
	}
	return strings.Join(lines, "\n")
}
