package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
)

// Shared plumbing for the OOXML container formats (.docx, .pptx): both are
// ZIP packages whose parts reference each other through .rels files.

const contentTypesPart = "[Content_Types].xml"

type relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type relationshipsXML struct {
	XMLName      xml.Name       `xml:"Relationships"`
	Relationship []relationship `xml:"Relationship"`
}

type contentTypesXML struct {
	XMLName xml.Name             `xml:"Types"`
	Default []contentTypeDefault `xml:"Default"`
}

type contentTypeDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

func zipFileMap(zr *zip.Reader) map[string]*zip.File {
	m := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		m[f.Name] = f
	}
	return m
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open part %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read part %s: %w", f.Name, err)
	}
	return data, nil
}

// parseRelationships reads one .rels part. A missing part is not an error:
// it returns an empty list so callers can fall back.
func parseRelationships(files map[string]*zip.File, name string) ([]relationship, error) {
	f, ok := files[name]
	if !ok {
		return nil, nil
	}
	data, err := readZipFile(f)
	if err != nil {
		return nil, err
	}
	var rels relationshipsXML
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return rels.Relationship, nil
}

// resolveRelTarget joins a relationship target onto the directory of the
// part that declared it, normalizing "../" hops (e.g. "../media/image1.png"
// declared from ppt/slides resolves to ppt/media/image1.png).
func resolveRelTarget(baseDir, target string) string {
	target = strings.TrimPrefix(target, "/")
	return path.Clean(path.Join(baseDir, target))
}

// ooxmlContentTypes maps lowercased part extensions (without the dot) to the
// content types declared in [Content_Types].xml.
func ooxmlContentTypes(files map[string]*zip.File) map[string]string {
	out := map[string]string{}
	f, ok := files[contentTypesPart]
	if !ok {
		return out
	}
	data, err := readZipFile(f)
	if err != nil {
		return out
	}
	var types contentTypesXML
	if err := xml.Unmarshal(data, &types); err != nil {
		return out
	}
	for _, d := range types.Default {
		out[strings.ToLower(d.Extension)] = d.ContentType
	}
	return out
}

func partExt(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

// sortRelsByID orders relationships by the numeric suffix of their IDs
// ("rId2" before "rId10"), falling back to a plain string compare.
func sortRelsByID(rels []relationship) {
	sort.SliceStable(rels, func(i, j int) bool {
		a, okA := relIDNum(rels[i].ID)
		b, okB := relIDNum(rels[j].ID)
		if okA && okB {
			return a < b
		}
		return rels[i].ID < rels[j].ID
	})
}

func relIDNum(id string) (int, bool) {
	i := len(id)
	for i > 0 && id[i-1] >= '0' && id[i-1] <= '9' {
		i--
	}
	if i == len(id) {
		return 0, false
	}
	n, err := strconv.Atoi(id[i:])
	if err != nil {
		return 0, false
	}
	return n, true
}
