package epub

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// CoverInfo holds information about the detected cover image.
type CoverInfo struct {
	ManifestID      string
	Href            string
	MediaType       string
	DetectionMethod string // "properties", "meta", "guide", "filename"
}

// DetectCover detects the cover image from the OPF manifest using multiple methods.
// Methods are tried in priority order:
//  1. properties="cover-image" (EPUB 3.0)
//  2. meta name="cover" (EPUB 2.0)
//  3. guide type="cover" (matched to image manifest items)
//  4. filename pattern (basename contains "cover", case-insensitive, SVG excluded)
//
// Returns nil if no cover image is found.
func (opf *OPF) DetectCover() *CoverInfo {
	// Method 1: EPUB 3.0 - check for cover-image property
	for _, id := range opf.ManifestOrder {
		item := opf.Manifest[id]
		if hasProperty(item, "cover-image") {
			return &CoverInfo{
				ManifestID:      item.ID,
				Href:            item.Href,
				MediaType:       item.MediaType,
				DetectionMethod: "properties",
			}
		}
	}

	// Method 2: EPUB 2.0 - check for meta name="cover"
	if opf.Metadata.CoverID != "" {
		if item, ok := opf.Manifest[opf.Metadata.CoverID]; ok {
			return &CoverInfo{
				ManifestID:      item.ID,
				Href:            item.Href,
				MediaType:       item.MediaType,
				DetectionMethod: "meta",
			}
		}
	}

	// Method 3: guide type="cover" → match to image manifest items
	for _, ref := range opf.Guide {
		if ref.Type != "cover" {
			continue
		}
		guideHref, _ := splitFragment(ref.Href)
		for _, id := range opf.ManifestOrder {
			item := opf.Manifest[id]
			if !isImageMediaType(item.MediaType) {
				continue
			}
			if item.Href == guideHref {
				return &CoverInfo{
					ManifestID:      item.ID,
					Href:            item.Href,
					MediaType:       item.MediaType,
					DetectionMethod: "guide",
				}
			}
		}
	}

	// Method 4: filename pattern
	for _, id := range opf.ManifestOrder {
		item := opf.Manifest[id]
		if !isImageMediaType(item.MediaType) {
			continue
		}
		base := filepath.Base(item.Href)
		if strings.Contains(strings.ToLower(base), "cover") {
			return &CoverInfo{
				ManifestID:      item.ID,
				Href:            item.Href,
				MediaType:       item.MediaType,
				DetectionMethod: "filename",
			}
		}
	}

	return nil
}

// LoadCover detects and reads the cover image bytes.
// Returns ok=false when no cover is found or its file cannot be read.
func LoadCover(r *Reader, opf *OPF) (data []byte, mediaType string, ok bool) {
	info := opf.DetectCover()
	if info == nil {
		return nil, "", false
	}
	data, err := r.ReadFile(info.Href)
	if err != nil {
		return nil, "", false
	}
	return data, info.MediaType, true
}

// CoverThumbnail decodes a cover image and downscales it to fit within
// maxDim on both axes, returning JPEG bytes. Images already within the
// bound are re-encoded without resizing.
func CoverThumbnail(data []byte, maxDim int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("epub: decoding cover image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		return nil, fmt.Errorf("epub: encoding cover thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// isImageMediaType checks if a media type is a raster image (SVG excluded).
func isImageMediaType(mediaType string) bool {
	if mediaType == "image/svg+xml" {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}
