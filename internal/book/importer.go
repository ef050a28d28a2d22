package book

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/okonomi/epubingest/internal/epub"
	"github.com/okonomi/epubingest/internal/paginate"
	"github.com/okonomi/epubingest/internal/textenc"
)

// ErrNoContent is the single terminal error of the cascade: the input
// could not be read as an archive, could not be decoded as text, and
// yielded zero content fragments.
var ErrNoContent = errors.New("book: no content could be extracted")

// syntheticMarkers is the denylist of phrases produced by the cascade's
// own synthetic-structure generator. A structured parse whose chapters
// match one of these is treated as filler, not real content, and the
// cascade moves on to the next strategy.
var syntheticMarkers = []string{
	"imported book",
	"archive unpacking works correctly",
	"content could not be extracted",
}

// Options configures an Importer. The zero value is usable.
type Options struct {
	Pagination paginate.Config
	Logger     *zap.Logger
}

// Importer runs the extraction cascade. It holds no mutable state, so
// one Importer may serve concurrent imports.
type Importer struct {
	cfg paginate.Config
	log *zap.Logger
}

// NewImporter creates an Importer with the given options.
func NewImporter(opts Options) *Importer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{
		cfg: opts.Pagination,
		log: log,
	}
}

// strategy is one extraction attempt. A nil document with a nil error
// means the strategy declined the input.
type strategy struct {
	name    string
	attempt func(ctx context.Context, data []byte, filename string) (*Document, error)
}

// ImportEPUB extracts a Document from EPUB bytes, degrading through
// the strategy list: structured archive parse, heuristic markup
// scraping over the raw decoded bytes, then a synthetic placeholder
// chapter. The first strategy yielding non-trivial content wins.
//
// ErrNoContent is returned only when the input has no archive
// signature, fails text decoding and yields zero fragments.
func (im *Importer) ImportEPUB(ctx context.Context, data []byte, filename string) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrNoContent)
	}

	strategies := []strategy{
		{"structured", im.importStructured},
		{"scrape", im.importScraped},
		{"placeholder", im.importPlaceholder},
	}

	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := s.attempt(ctx, data, filename)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			im.log.Info("extraction strategy failed", zap.String("strategy", s.name), zap.Error(err))
			continue
		}
		if doc == nil {
			continue
		}
		if s.name == "structured" && !hasRealContent(doc) {
			im.log.Warn("structured parse produced placeholder content, degrading",
				zap.Int("chapters", len(doc.Chapters)))
			continue
		}
		doc.Strategy = s.name
		doc.SourceSize = len(data)
		return doc, nil
	}

	return nil, ErrNoContent
}

// ImportText builds a single-chapter Document from plain text bytes,
// using the same paginator as EPUB chapters so page counts agree
// between formats.
func (im *Importer) ImportText(ctx context.Context, data []byte, title string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := textenc.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoContent, err)
	}
	if title == "" {
		title = "Untitled"
	}

	doc := &Document{
		Metadata:   epub.Metadata{Title: title},
		Strategy:   "text",
		SourceSize: len(data),
	}
	doc.Chapters = []Chapter{im.buildChapter("text-1", title, "", "", text, 0)}
	assignGlobalPageNumbers(doc)
	return doc, nil
}

// importStructured is strategy A: the full archive -> container ->
// package -> chapters -> TOC pipeline.
func (im *Importer) importStructured(ctx context.Context, data []byte, filename string) (*Document, error) {
	reader, err := epub.Open(data)
	if err != nil {
		return nil, err
	}

	opfData, err := reader.ReadFile(reader.OPFPath())
	if err != nil {
		return nil, fmt.Errorf("book: package file unreadable: %w", err)
	}

	opfDir := filepath.ToSlash(filepath.Dir(reader.OPFPath()))
	opf, err := epub.ParseOPF(opfData, opfDir)
	if err != nil {
		return nil, err
	}

	extracted, err := epub.ExtractChapters(ctx, reader, opf, im.log)
	if err != nil {
		return nil, err
	}

	doc := &Document{Metadata: opf.Metadata}
	if doc.Metadata.Title == "" {
		doc.Metadata.Title = titleFromFilename(filename)
	}

	for _, ch := range extracted {
		doc.Chapters = append(doc.Chapters,
			im.buildChapter(ch.ID, ch.Title, ch.Path, ch.HTML, ch.Text, ch.Order))
	}
	assignGlobalPageNumbers(doc)

	doc.TOC = epub.LoadTOC(reader, opf, im.log)

	if coverData, mediaType, ok := epub.LoadCover(reader, opf); ok {
		doc.Cover = &Cover{Data: coverData, MediaType: mediaType}
	}

	return doc, nil
}

// importPlaceholder is strategy C: a single synthetic chapter telling
// the user extraction failed, instead of a hard error.
func (im *Importer) importPlaceholder(ctx context.Context, data []byte, filename string) (*Document, error) {
	// The terminal-error rule: bytes that never looked like an archive
	// and never decoded to anything with content do not get a
	// placeholder book.
	if !hasArchiveSignature(data) {
		if _, err := textenc.Decode(data); err != nil {
			return nil, ErrNoContent
		}
	}

	text := fmt.Sprintf(
		"Content could not be extracted from this file (%d bytes).\n\n"+
			"The file may be corrupted, DRM protected, or in an unsupported format.",
		len(data))

	doc := &Document{
		Metadata: epub.Metadata{Title: titleFromFilename(filename)},
	}
	doc.Chapters = []Chapter{im.buildChapter("placeholder-1", "Imported Book", "", "", text, 0)}
	assignGlobalPageNumbers(doc)
	return doc, nil
}

// buildChapter paginates text and assembles an immutable Chapter.
// Page ids are deterministic: "<chapterID>#<pageNumber>".
func (im *Importer) buildChapter(id, title, path, markup, text string, order int) Chapter {
	ch := Chapter{
		ID:          id,
		Title:       title,
		FilePath:    path,
		HTMLContent: markup,
		TextContent: text,
		Order:       order,
	}
	for i, content := range paginate.Split(text, im.cfg) {
		ch.Pages = append(ch.Pages, Page{
			ID:           id + "#" + strconv.Itoa(i),
			ChapterID:    id,
			ChapterOrder: order,
			PageNumber:   i,
			Content:      content,
		})
	}
	return ch
}

// assignGlobalPageNumbers numbers every page across the whole book in
// chapter order.
func assignGlobalPageNumbers(doc *Document) {
	global := 0
	for ci := range doc.Chapters {
		for pi := range doc.Chapters[ci].Pages {
			doc.Chapters[ci].Pages[pi].GlobalPageNumber = global
			global++
		}
	}
}

// hasRealContent applies the acceptance check for the structured
// strategy: no chapter may match a synthetic marker, and at least one
// chapter must carry text. Short books are real books; length is not
// held against a result that passes the denylist.
func hasRealContent(doc *Document) bool {
	nonEmpty := false
	for _, ch := range doc.Chapters {
		lower := strings.ToLower(ch.TextContent)
		for _, marker := range syntheticMarkers {
			if strings.Contains(lower, marker) {
				return false
			}
		}
		if strings.TrimSpace(ch.TextContent) != "" {
			nonEmpty = true
		}
	}
	return nonEmpty
}

func hasArchiveSignature(data []byte) bool {
	return len(data) >= 2 && data[0] == 'P' && data[1] == 'K'
}

// titleFromFilename derives a display title from a file name.
func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		return "Imported Book"
	}
	return base
}
