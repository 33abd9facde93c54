package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"log"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// XML subset of a slide part: the shape tree with text shapes and pictures.
// Element names are matched by local name, so the PresentationML namespaces
// don't need to be spelled out.
type pptxSlideXML struct {
	XMLName xml.Name        `xml:"sld"`
	CSld    pptxCommonSlide `xml:"cSld"`
}

type pptxCommonSlide struct {
	SpTree pptxShapeTree `xml:"spTree"`
}

type pptxShapeTree struct {
	Sp  []pptxShape   `xml:"sp"`
	Pic []pptxPicture `xml:"pic"`
}

type pptxShape struct {
	TxBody *pptxTextBody `xml:"txBody"`
}

type pptxTextBody struct {
	P []pptxParagraph `xml:"p"`
}

type pptxParagraph struct {
	R []pptxRun `xml:"r"`
}

type pptxRun struct {
	T string `xml:"t"`
}

type pptxPicture struct {
	NvPicPr  pptxNvPicPr  `xml:"nvPicPr"`
	BlipFill pptxBlipFill `xml:"blipFill"`
}

type pptxNvPicPr struct {
	CNvPr pptxCNvPr `xml:"cNvPr"`
}

type pptxCNvPr struct {
	Name  string `xml:"name,attr"`
	Descr string `xml:"descr,attr"` // alt text
}

type pptxBlipFill struct {
	Blip pptxBlip `xml:"blip"`
}

type pptxBlip struct {
	Embed string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships embed,attr"`
}

type pptxPresentationXML struct {
	XMLName     xml.Name        `xml:"presentation"`
	SlideIDList pptxSlideIDList `xml:"sldIdLst"`
}

type pptxSlideIDList struct {
	SlideID []pptxSlideID `xml:"sldId"`
}

type pptxSlideID struct {
	RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
}

// pptxLoader extracts a PowerPoint deck: per-slide text tagged with the
// slide number, and picture shapes captioned from alt text or the slide's
// own text.
type pptxLoader struct {
	opts Options
}

func (l *pptxLoader) Load(filePath, assetsRoot string) ([]Chunk, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("open pptx %s: %w", filePath, err)
	}
	defer zr.Close()

	files := zipFileMap(&zr.Reader)

	slideParts, err := pptxSlideParts(files)
	if err != nil {
		return nil, fmt.Errorf("parse pptx %s: %w", filePath, err)
	}

	assetsDir, err := ensureAssetsDir(filePath, assetsRoot)
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(filePath)
	base := slugify(docBase(filePath))

	var chunks []Chunk
	figure := 1
	for sidx, partName := range slideParts {
		slideNo := sidx + 1

		data, err := readZipFile(files[partName])
		if err != nil {
			return nil, fmt.Errorf("parse pptx %s: %w", filePath, err)
		}
		var slide pptxSlideXML
		if err := xml.Unmarshal(data, &slide); err != nil {
			return nil, fmt.Errorf("parse pptx %s: slide %d: %w", filePath, slideNo, err)
		}

		slideText := pptxSlideText(&slide)
		page := slideNo
		for _, c := range splitText(slideText, l.opts.ChunkSize, l.opts.ChunkOverlap) {
			chunks = append(chunks, textChunk(c, filename, &page))
		}

		if len(slide.CSld.SpTree.Pic) == 0 {
			continue
		}

		captionCtx := truncateRunes(normalizeWS(slideText), captionRunes)
		relTargets := pptxRelTargets(files, partName)

		for _, pic := range slide.CSld.SpTree.Pic {
			target, ok := relTargets[pic.BlipFill.Blip.Embed]
			if !ok {
				log.Printf("extract: pptx %s slide %d: picture %q has no image relationship", filename, slideNo, pic.NvPicPr.CNvPr.Name)
				continue
			}
			imgFile, ok := files[target]
			if !ok {
				log.Printf("extract: pptx %s slide %d: image part %s missing", filename, slideNo, target)
				continue
			}
			data, err := readZipFile(imgFile)
			if err != nil {
				log.Printf("extract: pptx %s slide %d: skipping picture: %v", filename, slideNo, err)
				continue
			}

			ext := strings.ToLower(path.Ext(target))
			if ext == "" {
				ext = ".png"
			}
			name := fmt.Sprintf("%s_s%d_%d%s", base, slideNo, figure, ext)
			abs, err := saveAsset(assetsDir, name, data)
			if err != nil {
				log.Printf("extract: pptx %s slide %d: skipping picture: %v", filename, slideNo, err)
				continue
			}
			rel, err := relAssetPath(abs, assetsRoot)
			if err != nil {
				log.Printf("extract: pptx %s slide %d: skipping picture: %v", filename, slideNo, err)
				continue
			}

			caption := normalizeWS(pic.NvPicPr.CNvPr.Descr)
			if caption == "" {
				caption = captionCtx
			}
			chunks = append(chunks, imageChunk(rel, filename, &page, figure, caption))
			figure++
		}
	}

	return chunks, nil
}

// pptxSlideParts resolves presentation order: ppt/presentation.xml lists
// slide relationship IDs, and the presentation's .rels maps them to slide
// parts. Decks whose sldIdLst is empty fall back to a numeric scan of
// ppt/slides/slide*.xml.
func pptxSlideParts(files map[string]*zip.File) ([]string, error) {
	presFile, ok := files["ppt/presentation.xml"]
	if !ok {
		return nil, fmt.Errorf("ppt/presentation.xml not found in archive")
	}
	data, err := readZipFile(presFile)
	if err != nil {
		return nil, err
	}
	var pres pptxPresentationXML
	if err := xml.Unmarshal(data, &pres); err != nil {
		return nil, fmt.Errorf("parse presentation.xml: %w", err)
	}

	rels, err := parseRelationships(files, "ppt/_rels/presentation.xml.rels")
	if err != nil {
		return nil, err
	}
	targets := make(map[string]string, len(rels))
	for _, rel := range rels {
		targets[rel.ID] = resolveRelTarget("ppt", rel.Target)
	}

	var parts []string
	for _, sld := range pres.SlideIDList.SlideID {
		if target, ok := targets[sld.RID]; ok {
			if _, exists := files[target]; exists {
				parts = append(parts, target)
			}
		}
	}
	if len(parts) > 0 {
		return parts, nil
	}

	for name := range files {
		if strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml") {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("no slides found in presentation")
	}
	sort.Slice(parts, func(i, j int) bool { return pptxSlideNum(parts[i]) < pptxSlideNum(parts[j]) })
	return parts, nil
}

func pptxSlideNum(partName string) int {
	s := strings.TrimSuffix(strings.TrimPrefix(partName, "ppt/slides/slide"), ".xml")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// pptxRelTargets maps a slide part's relationship IDs to resolved part names.
func pptxRelTargets(files map[string]*zip.File, slidePart string) map[string]string {
	relsName := path.Join(path.Dir(slidePart), "_rels", path.Base(slidePart)+".rels")
	rels, err := parseRelationships(files, relsName)
	if err != nil {
		return nil
	}
	out := make(map[string]string, len(rels))
	for _, rel := range rels {
		out[rel.ID] = resolveRelTarget(path.Dir(slidePart), rel.Target)
	}
	return out
}

// pptxSlideText joins the text of every shape exposing a text body, shapes
// in tree order, paragraphs newline-separated.
func pptxSlideText(slide *pptxSlideXML) string {
	var texts []string
	for _, sp := range slide.CSld.SpTree.Sp {
		if sp.TxBody == nil {
			continue
		}
		var lines []string
		for _, p := range sp.TxBody.P {
			var sb strings.Builder
			for _, r := range p.R {
				sb.WriteString(r.T)
			}
			if line := strings.TrimSpace(sb.String()); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			texts = append(texts, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(texts, "\n")
}
