package epub

// OPF represents the parsed Open Package Format document
type OPF struct {
	Version       string
	Metadata      Metadata
	Manifest      map[string]ManifestItem // id -> item, first occurrence wins
	ManifestOrder []string                // manifest ids in document order
	Spine         []SpineItem
	Guide         []GuideReference
	NCXPath       string
	NavPath       string
}

// Metadata holds the Dublin Core metadata of the package. Every field
// is optional free text; when an element is repeated the last value in
// document order wins.
type Metadata struct {
	Title       string
	Creator     string
	Subject     string
	Description string
	Publisher   string
	Date        string
	Identifier  string
	Language    string
	Rights      string
	Source      string
	Coverage    string
	Relation    string
	CoverID     string // EPUB 2.0 cover image manifest item ID (from meta name="cover")
}

// ManifestItem represents an item in the manifest
type ManifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties []string
}

// SpineItem represents an item reference in the spine
type SpineItem struct {
	IDRef      string
	Linear     bool
	Properties []string
}

// GuideReference represents a reference element in the guide section
type GuideReference struct {
	Type  string
	Title string
	Href  string
}

// FindManifestItem looks up a manifest item by id.
func (opf *OPF) FindManifestItem(id string) (ManifestItem, bool) {
	item, ok := opf.Manifest[id]
	return item, ok
}
