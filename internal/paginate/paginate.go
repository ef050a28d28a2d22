// Package paginate splits chapter text into bounded-size pages. The
// same algorithm serves EPUB chapters and plain-text imports so that
// page counts computed at import time match the counts seen while
// reading.
package paginate

import (
	"strings"
	"unicode/utf8"
)

// EmptyChapterPlaceholder is the single page emitted for blank input.
// A chapter never paginates to zero pages.
const EmptyChapterPlaceholder = "This chapter contains no text."

// Config holds the page size budgets, counted in runes. Pass it by
// value; there is no shared default instance.
type Config struct {
	TargetCharsPerPage int
	MaxCharsPerPage    int
}

// DefaultConfig returns the standard page budgets.
func DefaultConfig() Config {
	return Config{
		TargetCharsPerPage: 1000,
		MaxCharsPerPage:    1200,
	}
}

func (c Config) orDefault() Config {
	d := DefaultConfig()
	if c.TargetCharsPerPage <= 0 {
		c.TargetCharsPerPage = d.TargetCharsPerPage
	}
	if c.MaxCharsPerPage <= 0 {
		c.MaxCharsPerPage = d.MaxCharsPerPage
	}
	return c
}

// Split breaks text into pages, scanning line by line. A line that
// would push the current page past the max budget starts a new page; a
// blank line after the target budget is treated as a paragraph break
// and dropped. Lines are never split internally, so a single line
// longer than the max budget becomes one oversized page.
//
// Split is deterministic and always returns at least one page.
func Split(text string, cfg Config) []string {
	cfg = cfg.orDefault()

	var pages []string
	var acc strings.Builder
	accRunes := 0

	flush := func() {
		page := strings.TrimSpace(acc.String())
		if page != "" {
			pages = append(pages, page)
		}
		acc.Reset()
		accRunes = 0
	}

	for _, line := range strings.Split(text, "\n") {
		lineRunes := utf8.RuneCountInString(line) + 1 // +1 for the newline

		switch {
		case accRunes+lineRunes > cfg.MaxCharsPerPage && acc.Len() > 0:
			flush()
			acc.WriteString(line)
			acc.WriteByte('\n')
			accRunes = lineRunes

		case accRunes >= cfg.TargetCharsPerPage && strings.TrimSpace(line) == "" && acc.Len() > 0:
			// Natural paragraph break; the blank line itself is dropped.
			flush()

		default:
			acc.WriteString(line)
			acc.WriteByte('\n')
			accRunes += lineRunes
		}
	}

	if strings.TrimSpace(acc.String()) != "" {
		flush()
	}

	if len(pages) == 0 {
		pages = []string{EmptyChapterPlaceholder}
	}
	return pages
}
