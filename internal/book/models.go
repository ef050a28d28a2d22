// Package book assembles logical books from raw file bytes. It wraps
// the archive, package and chapter readers behind a fallback cascade so
// that a malformed file degrades to weaker extraction strategies
// instead of failing the import outright.
package book

import (
	"github.com/okonomi/epubingest/internal/epub"
)

// Page is one bounded-size unit of reading. Equality is defined by ID
// alone: two pages are the same page iff their ids match.
type Page struct {
	ID               string
	ChapterID        string
	ChapterOrder     int
	PageNumber       int // 0-based within the chapter
	Content          string
	GlobalPageNumber int // 0-based across the whole book
}

// Equal reports whether two pages are the same page.
func (p Page) Equal(other Page) bool {
	return p.ID == other.ID
}

// Chapter is one ordered unit of content. Order is the spine position
// of the source item; a document owns its chapters, chapters own their
// pages. Chapters are immutable after construction.
type Chapter struct {
	ID          string
	Title       string
	FilePath    string
	HTMLContent string
	TextContent string
	Order       int
	Pages       []Page
}

// Cover holds the raw cover image detected in the package, if any.
type Cover struct {
	Data      []byte
	MediaType string
}

// Document is a fully assembled logical book.
type Document struct {
	Metadata epub.Metadata
	Chapters []Chapter
	TOC      []epub.TOCItem
	Cover    *Cover

	// Strategy names the extraction strategy that produced this
	// document: "structured", "scrape", "placeholder" or "text".
	Strategy string

	// SourceSize is the byte size of the input the document was
	// extracted from.
	SourceSize int
}

// TotalPages returns the sum of all chapters' page counts.
func (d *Document) TotalPages() int {
	total := 0
	for _, ch := range d.Chapters {
		total += len(ch.Pages)
	}
	return total
}

// AllPages returns every page in chapter order.
func (d *Document) AllPages() []Page {
	pages := make([]Page, 0, d.TotalPages())
	for _, ch := range d.Chapters {
		pages = append(pages, ch.Pages...)
	}
	return pages
}

// PageAt returns the page with the given global page number.
func (d *Document) PageAt(global int) (Page, bool) {
	if global < 0 {
		return Page{}, false
	}
	for _, ch := range d.Chapters {
		if global < len(ch.Pages) {
			return ch.Pages[global], true
		}
		global -= len(ch.Pages)
	}
	return Page{}, false
}

// ChapterOf returns the chapter a page belongs to.
func (d *Document) ChapterOf(p Page) (Chapter, bool) {
	for _, ch := range d.Chapters {
		if ch.ID == p.ChapterID {
			return ch, true
		}
	}
	return Chapter{}, false
}
