package epub

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/okonomi/epubingest/internal/textenc"
)

// ErrNoChapters indicates that no spine item could be resolved to
// readable content.
var ErrNoChapters = errors.New("epub: no readable chapters found")

// ChapterContent is one extracted spine item: decoded markup, derived
// plain text and a display title. Order is the item's position in the
// spine, which is the canonical reading order.
type ChapterContent struct {
	ID    string // manifest item id
	Title string
	Path  string // resolved path within the archive
	HTML  string
	Text  string
	Order int
}

// titleSelectors are tried in priority order when deriving a chapter
// title from its markup.
var titleSelectors = []string{"title", "h1", "h2", "h3"}

// ExtractChapters walks the spine in order and extracts plain text from
// every resolvable XHTML item. Spine items missing from the manifest,
// non-HTML items, unresolvable files and undecodable content are
// skipped with a warning, not fatal. The context is checked between
// chapters so large imports can be cancelled.
//
// It returns ErrNoChapters when the spine yields nothing at all.
func ExtractChapters(ctx context.Context, r *Reader, opf *OPF, log *zap.Logger) ([]ChapterContent, error) {
	var chapters []ChapterContent

	for i, spineItem := range opf.Spine {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		manifestItem, ok := opf.Manifest[spineItem.IDRef]
		if !ok {
			log.Warn("spine item not found in manifest, skipping", zap.String("idref", spineItem.IDRef))
			continue
		}
		if !isXHTML(manifestItem.MediaType) {
			continue
		}

		path, data, err := readWithBaseCandidates(r, manifestItem.Href)
		if err != nil {
			log.Warn("chapter file missing, skipping", zap.String("href", manifestItem.Href), zap.Error(err))
			continue
		}

		markup, err := textenc.Decode(data)
		if err != nil {
			log.Warn("chapter content undecodable, skipping", zap.String("href", manifestItem.Href), zap.Error(err))
			continue
		}

		text, err := ExtractText([]byte(markup))
		if err != nil {
			log.Warn("chapter text extraction failed, skipping", zap.String("href", manifestItem.Href), zap.Error(err))
			continue
		}

		title := deriveTitle(markup)
		if title == "" {
			title = fmt.Sprintf("Chapter %d", i+1)
		}

		chapters = append(chapters, ChapterContent{
			ID:    manifestItem.ID,
			Title: title,
			Path:  path,
			HTML:  markup,
			Text:  text,
			Order: i,
		})
	}

	if len(chapters) == 0 {
		return nil, ErrNoChapters
	}
	return chapters, nil
}

// readWithBaseCandidates tries the href as resolved from the OPF, then
// under OEBPS/, to tolerate EPUB 2 layouts whose package references
// omit the content directory.
func readWithBaseCandidates(r *Reader, href string) (string, []byte, error) {
	candidates := []string{href}
	if !strings.HasPrefix(href, "OEBPS/") {
		candidates = append(candidates, "OEBPS/"+href)
	}

	for _, path := range candidates {
		if !r.Has(path) {
			continue
		}
		data, err := r.ReadFile(path)
		if err != nil {
			continue
		}
		return path, data, nil
	}
	return "", nil, fmt.Errorf("epub: chapter file not found: %s", href)
}

// deriveTitle extracts a display title from chapter markup, trying
// <title>, then <h1> through <h3>.
func deriveTitle(markup string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(markup)))
	if err != nil {
		return ""
	}
	for _, sel := range titleSelectors {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

// isXHTML checks if a media type indicates an XHTML content file.
func isXHTML(mediaType string) bool {
	return strings.Contains(mediaType, "html") || strings.Contains(mediaType, "xhtml")
}
