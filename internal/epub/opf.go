package epub

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"
)

// opfPackage represents the OPF XML structure
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Version  string      `xml:"version,attr"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest opfManifest `xml:"manifest"`
	Spine    opfSpine    `xml:"spine"`
	Guide    opfGuide    `xml:"guide"`
}

// opfMetadata represents the metadata section
type opfMetadata struct {
	Title       []string  `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creator     []string  `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Subject     []string  `xml:"http://purl.org/dc/elements/1.1/ subject"`
	Description []string  `xml:"http://purl.org/dc/elements/1.1/ description"`
	Publisher   []string  `xml:"http://purl.org/dc/elements/1.1/ publisher"`
	Date        []string  `xml:"http://purl.org/dc/elements/1.1/ date"`
	Identifier  []string  `xml:"http://purl.org/dc/elements/1.1/ identifier"`
	Language    []string  `xml:"http://purl.org/dc/elements/1.1/ language"`
	Rights      []string  `xml:"http://purl.org/dc/elements/1.1/ rights"`
	Source      []string  `xml:"http://purl.org/dc/elements/1.1/ source"`
	Coverage    []string  `xml:"http://purl.org/dc/elements/1.1/ coverage"`
	Relation    []string  `xml:"http://purl.org/dc/elements/1.1/ relation"`
	Meta        []opfMeta `xml:"meta"`
}

// opfMeta represents a meta element (EPUB 2.0 and 3.0)
type opfMeta struct {
	Name     string `xml:"name,attr"`
	Content  string `xml:"content,attr"`
	Property string `xml:"property,attr"`
}

// opfManifest represents the manifest section
type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

// opfManifestItem represents an item in the manifest
type opfManifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

// opfSpine represents the spine section
type opfSpine struct {
	Toc      string       `xml:"toc,attr"`
	ItemRefs []opfItemRef `xml:"itemref"`
}

// opfItemRef represents an itemref in the spine
type opfItemRef struct {
	IDRef      string `xml:"idref,attr"`
	Linear     string `xml:"linear,attr"`
	Properties string `xml:"properties,attr"`
}

// opfGuide represents the guide section (EPUB 2.0)
type opfGuide struct {
	References []opfGuideRef `xml:"reference"`
}

type opfGuideRef struct {
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
	Href  string `xml:"href,attr"`
}

const ncxMediaType = "application/x-dtbncx+xml"

// ParseOPF parses an OPF file content and returns the OPF structure
// opfDir is the directory containing the OPF file (e.g., "OEBPS/")
func ParseOPF(content []byte, opfDir string) (*OPF, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(content, &pkg); err != nil {
		return nil, fmt.Errorf("epub: failed to parse OPF XML: %w", err)
	}

	opf := &OPF{
		Version:  pkg.Version,
		Manifest: make(map[string]ManifestItem),
	}

	opf.Metadata = parseMetadata(&pkg.Metadata)

	// Parse manifest. Duplicate ids keep the first occurrence.
	for _, item := range pkg.Manifest.Items {
		if _, dup := opf.Manifest[item.ID]; dup {
			continue
		}
		manifestItem := ManifestItem{
			ID:        item.ID,
			Href:      joinPath(opfDir, item.Href),
			MediaType: item.MediaType,
		}

		// Parse properties (space-separated)
		if item.Properties != "" {
			manifestItem.Properties = strings.Fields(item.Properties)
		}

		opf.Manifest[item.ID] = manifestItem
		opf.ManifestOrder = append(opf.ManifestOrder, item.ID)
	}

	// Parse spine. linear defaults to true unless the attribute value
	// is exactly "no".
	for _, itemRef := range pkg.Spine.ItemRefs {
		spineItem := SpineItem{
			IDRef:  itemRef.IDRef,
			Linear: itemRef.Linear != "no",
		}
		if itemRef.Properties != "" {
			spineItem.Properties = strings.Fields(itemRef.Properties)
		}
		opf.Spine = append(opf.Spine, spineItem)
	}

	// Parse guide
	for _, ref := range pkg.Guide.References {
		opf.Guide = append(opf.Guide, GuideReference{
			Type:  ref.Type,
			Title: ref.Title,
			Href:  joinPath(opfDir, ref.Href),
		})
	}

	// Resolve NCX path from the spine toc attribute, falling back to a
	// manifest scan by media type.
	if pkg.Spine.Toc != "" {
		if ncxItem, ok := opf.Manifest[pkg.Spine.Toc]; ok {
			opf.NCXPath = ncxItem.Href
		}
	}
	if opf.NCXPath == "" {
		for _, id := range opf.ManifestOrder {
			if opf.Manifest[id].MediaType == ncxMediaType {
				opf.NCXPath = opf.Manifest[id].Href
				break
			}
		}
	}

	// Resolve the EPUB 3 nav document, if declared.
	for _, id := range opf.ManifestOrder {
		if hasProperty(opf.Manifest[id], "nav") {
			opf.NavPath = opf.Manifest[id].Href
			break
		}
	}

	return opf, nil
}

// parseMetadata parses the metadata section. Repeated Dublin Core
// elements resolve last-seen-wins.
func parseMetadata(meta *opfMetadata) Metadata {
	md := Metadata{
		Title:       lastOf(meta.Title),
		Creator:     lastOf(meta.Creator),
		Subject:     lastOf(meta.Subject),
		Description: lastOf(meta.Description),
		Publisher:   lastOf(meta.Publisher),
		Date:        lastOf(meta.Date),
		Identifier:  lastOf(meta.Identifier),
		Language:    lastOf(meta.Language),
		Rights:      lastOf(meta.Rights),
		Source:      lastOf(meta.Source),
		Coverage:    lastOf(meta.Coverage),
		Relation:    lastOf(meta.Relation),
	}

	// EPUB 2.0 cover meta element
	for _, m := range meta.Meta {
		if m.Name == "cover" && m.Content != "" {
			md.CoverID = m.Content
			break
		}
	}

	return md
}

func lastOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[len(values)-1])
}

func hasProperty(item ManifestItem, prop string) bool {
	for _, p := range item.Properties {
		if p == prop {
			return true
		}
	}
	return false
}

// joinPath joins OPF directory with a relative path
func joinPath(base, rel string) string {
	if base == "" || base == "." {
		return rel
	}
	return filepath.ToSlash(filepath.Join(base, rel))
}
