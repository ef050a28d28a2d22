package book

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/okonomi/epubingest/internal/epub"
	"github.com/okonomi/epubingest/internal/textenc"
)

// Strategy B ignores the archive structure entirely: the raw bytes are
// decoded as text and scanned for markup blocks. It rescues books whose
// ZIP directory or package documents are damaged but whose content
// survives uncompressed in the blob.

var (
	bodyBlockPattern = regexp.MustCompile(`(?is)<body[^>]*>(.*?)</body>`)
	paraBlockPattern = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)
)

// importScraped is strategy B: decode the whole input as text and
// regex-scan for <body> blocks; each block becomes one chapter. When no
// body blocks exist, all <p> blocks are concatenated into a single
// chapter. Tags are stripped from whatever is found.
func (im *Importer) importScraped(ctx context.Context, data []byte, filename string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blob, err := textenc.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("book: raw bytes undecodable: %w", err)
	}

	doc := &Document{
		Metadata: epub.Metadata{Title: titleFromFilename(filename)},
	}

	for _, m := range bodyBlockPattern.FindAllStringSubmatch(blob, -1) {
		text := scrapeText(m[1])
		if text == "" {
			continue
		}
		order := len(doc.Chapters)
		id := fmt.Sprintf("scraped-%d", order+1)
		title := fmt.Sprintf("Chapter %d", order+1)
		doc.Chapters = append(doc.Chapters, im.buildChapter(id, title, "", "", text, order))
	}

	if len(doc.Chapters) == 0 {
		var paragraphs []string
		for _, m := range paraBlockPattern.FindAllStringSubmatch(blob, -1) {
			if text := scrapeText(m[1]); text != "" {
				paragraphs = append(paragraphs, text)
			}
		}
		if len(paragraphs) > 0 {
			text := strings.Join(paragraphs, "\n\n")
			doc.Chapters = append(doc.Chapters, im.buildChapter("scraped-1", "Chapter 1", "", "", text, 0))
		}
	}

	if len(doc.Chapters) == 0 {
		return nil, fmt.Errorf("book: no markup fragments found in raw bytes")
	}

	assignGlobalPageNumbers(doc)
	return doc, nil
}

// scrapeText strips tags from a markup fragment and trims the result.
func scrapeText(fragment string) string {
	text, err := epub.ExtractText([]byte(fragment))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
