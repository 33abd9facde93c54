package extract

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// slugify keeps letters, digits, '-', '_' and '.'; everything else becomes
// '_'. The same source filename always maps to the same slug.
func slugify(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// docBase returns the file's base name without its extension.
func docBase(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ensureAssetsDir creates <uploadsRoot>/<slug(base)>_assets and returns its
// path. Extracted images for one document all land in this directory.
func ensureAssetsDir(srcPath, uploadsRoot string) (string, error) {
	dir := filepath.Join(uploadsRoot, slugify(docBase(srcPath))+"_assets")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create assets dir %s: %w", dir, err)
	}
	return dir, nil
}

// relAssetPath expresses absPath relative to the uploads root with forward
// slashes, which is how image chunks reference their files.
func relAssetPath(absPath, uploadsRoot string) (string, error) {
	rel, err := filepath.Rel(uploadsRoot, absPath)
	if err != nil {
		return "", fmt.Errorf("relativize %s: %w", absPath, err)
	}
	return filepath.ToSlash(rel), nil
}

// saveAsset writes raw image bytes into dir and returns the absolute path.
func saveAsset(dir, name string, data []byte) (string, error) {
	abs := filepath.Join(dir, name)
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", abs, err)
	}
	return abs, nil
}

// savePNG encodes a decoded raster as PNG. Encoding goes through the
// image.Image color model, so CMYK-family sources come out as RGB.
func savePNG(dir, name string, img image.Image) (string, error) {
	abs := filepath.Join(dir, name)
	f, err := os.Create(abs)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", abs, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(abs)
		return "", fmt.Errorf("encode %s: %w", abs, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(abs)
		return "", fmt.Errorf("close %s: %w", abs, err)
	}
	return abs, nil
}
