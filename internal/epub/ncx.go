package epub

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// TOCItem represents a single table-of-contents entry. Items reference
// content by src path, never by direct pointer, so the TOC and the
// chapters can be parsed independently and reconciled by name.
type TOCItem struct {
	ID        string
	Title     string
	Src       string // href into the manifest, may carry a #fragment
	PlayOrder int
	Level     int // nesting depth, 0 for top-level entries
	Children  []TOCItem
}

// ncxDoc represents the NCX XML structure
type ncxDoc struct {
	XMLName  xml.Name `xml:"ncx"`
	DocTitle struct {
		Text string `xml:"text"`
	} `xml:"docTitle"`
	NavMap struct {
		NavPoints []ncxNavPoint `xml:"navPoint"`
	} `xml:"navMap"`
}

type ncxNavPoint struct {
	ID        string `xml:"id,attr"`
	PlayOrder string `xml:"playOrder,attr"`
	NavLabel  struct {
		Text string `xml:"text"`
	} `xml:"navLabel"`
	Content struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
	Children []ncxNavPoint `xml:"navPoint"`
}

// LoadTOC resolves the table of contents for a package, trying the NCX
// document, then the EPUB 3 nav document, then a flat list synthesized
// from spine order. It always returns a usable TOC for a package with
// at least one resolvable spine item.
func LoadTOC(r *Reader, opf *OPF, log *zap.Logger) []TOCItem {
	if opf.NCXPath != "" {
		if data, err := r.ReadFile(opf.NCXPath); err == nil {
			items, err := parseNCX(data, filepath.ToSlash(filepath.Dir(opf.NCXPath)))
			if err == nil && len(items) > 0 {
				return items
			}
			if err != nil {
				log.Warn("NCX parse failed, trying nav document", zap.String("path", opf.NCXPath), zap.Error(err))
			}
		}
	}

	if opf.NavPath != "" {
		if data, err := r.ReadFile(opf.NavPath); err == nil {
			items, err := parseNav(data, filepath.ToSlash(filepath.Dir(opf.NavPath)))
			if err == nil && len(items) > 0 {
				return items
			}
			if err != nil {
				log.Warn("nav document parse failed, synthesizing TOC", zap.String("path", opf.NavPath), zap.Error(err))
			}
		}
	}

	return SynthesizeTOC(opf)
}

// parseNCX parses an NCX navigation document. baseDir is the directory
// containing the NCX file, joined onto every content src.
func parseNCX(content []byte, baseDir string) ([]TOCItem, error) {
	var doc ncxDoc
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("epub: failed to parse NCX XML: %w", err)
	}
	return convertNavPoints(doc.NavMap.NavPoints, baseDir, 0), nil
}

// convertNavPoints recursively converts navPoint elements to TOCItems.
func convertNavPoints(points []ncxNavPoint, baseDir string, level int) []TOCItem {
	items := make([]TOCItem, 0, len(points))
	for _, np := range points {
		playOrder, _ := strconv.Atoi(np.PlayOrder)
		item := TOCItem{
			ID:        np.ID,
			Title:     strings.TrimSpace(np.NavLabel.Text),
			Src:       resolveSrc(baseDir, np.Content.Src),
			PlayOrder: playOrder,
			Level:     level,
		}
		if len(np.Children) > 0 {
			item.Children = convertNavPoints(np.Children, baseDir, level+1)
		}
		items = append(items, item)
	}
	return items
}

// parseNav parses an EPUB 3 nav document, reading the first
// nav[epub:type="toc"] element (or the first nav at all) as a nested
// ol/li/a structure.
func parseNav(content []byte, baseDir string) ([]TOCItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("epub: failed to parse nav document: %w", err)
	}

	nav := doc.Find("nav").FilterFunction(func(i int, s *goquery.Selection) bool {
		return s.AttrOr("epub:type", "") == "toc"
	}).First()
	if nav.Length() == 0 {
		nav = doc.Find("nav").First()
	}
	if nav.Length() == 0 {
		return nil, nil
	}

	order := 0
	return convertNavList(nav.ChildrenFiltered("ol").First(), baseDir, 0, &order), nil
}

// convertNavList walks an ol element, one TOCItem per li.
func convertNavList(ol *goquery.Selection, baseDir string, level int, order *int) []TOCItem {
	var items []TOCItem
	ol.ChildrenFiltered("li").Each(func(i int, li *goquery.Selection) {
		a := li.ChildrenFiltered("a").First()
		title := strings.TrimSpace(a.Text())
		if title == "" {
			title = strings.TrimSpace(li.ChildrenFiltered("span").First().Text())
		}
		item := TOCItem{
			ID:        li.AttrOr("id", ""),
			Title:     title,
			Src:       resolveSrc(baseDir, a.AttrOr("href", "")),
			PlayOrder: *order,
			Level:     level,
		}
		*order++
		if nested := li.ChildrenFiltered("ol").First(); nested.Length() > 0 {
			item.Children = convertNavList(nested, baseDir, level+1, order)
		}
		items = append(items, item)
	})
	return items
}

// SynthesizeTOC builds a flat TOC from spine order, one entry per
// spine item that resolves in the manifest.
func SynthesizeTOC(opf *OPF) []TOCItem {
	var items []TOCItem
	for i, spineItem := range opf.Spine {
		manifestItem, ok := opf.Manifest[spineItem.IDRef]
		if !ok {
			continue
		}
		items = append(items, TOCItem{
			ID:        spineItem.IDRef,
			Title:     fmt.Sprintf("Chapter %d", i+1),
			Src:       manifestItem.Href,
			PlayOrder: i,
		})
	}
	return items
}

// resolveSrc joins baseDir onto the path part of src, keeping any
// fragment identifier.
func resolveSrc(baseDir, src string) string {
	if src == "" {
		return ""
	}
	path, fragment := splitFragment(src)
	if path != "" && baseDir != "" && baseDir != "." {
		path = filepath.ToSlash(filepath.Join(baseDir, path))
	}
	if fragment != "" {
		return path + "#" + fragment
	}
	return path
}

// splitFragment splits a source path into the path and fragment identifier.
func splitFragment(src string) (path, fragment string) {
	if src == "" {
		return "", ""
	}
	parts := strings.SplitN(src, "#", 2)
	path = parts[0]
	if len(parts) == 2 {
		fragment = parts[1]
	}
	return path, fragment
}
