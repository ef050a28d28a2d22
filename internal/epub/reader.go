package epub

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/okonomi/epubingest/internal/zipfile"
)

// Reader provides access to EPUB file contents. It operates on an
// in-memory archive; callers supply bytes, the reader performs no disk
// I/O of its own.
type Reader struct {
	archive *zipfile.Archive
	opfPath string
}

// container.xml structure
type container struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

var (
	ErrContainerNotFound = errors.New("epub: META-INF/container.xml not found")
	ErrOPFPathNotFound   = errors.New("epub: OPF path not found in container.xml")
)

const containerPath = "META-INF/container.xml"

// Open parses data as a ZIP archive and resolves the OPF package path
// from META-INF/container.xml. A missing mimetype entry is tolerated:
// many real books omit or mangle it and every other structure can still
// be read.
func Open(data []byte) (*Reader, error) {
	archive, err := zipfile.Parse(data)
	if err != nil {
		return nil, err
	}

	r := &Reader{archive: archive}
	if err := r.parseContainer(); err != nil {
		return nil, err
	}
	return r, nil
}

// OPFPath returns the path to the OPF file
func (r *Reader) OPFPath() string {
	return r.opfPath
}

// Has reports whether a file exists in the EPUB.
func (r *Reader) Has(path string) bool {
	return r.archive.Has(normalizePath(path))
}

// ReadFile reads the contents of a file from the EPUB
func (r *Reader) ReadFile(path string) ([]byte, error) {
	path = normalizePath(path)
	data, err := r.archive.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("epub: reading %s: %w", path, err)
	}
	return data, nil
}

// parseContainer parses container.xml to extract OPF path
func (r *Reader) parseContainer() error {
	content, err := r.archive.Extract(containerPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrContainerNotFound, err)
	}

	var c container
	if err := xml.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("%w: %v", ErrOPFPathNotFound, err)
	}

	// Find the rootfile carrying the package document. An absent
	// media-type is tolerated.
	for _, rf := range c.Rootfiles.Rootfile {
		if rf.MediaType == "application/oebps-package+xml" || rf.MediaType == "" {
			if rf.FullPath == "" {
				continue
			}
			r.opfPath = normalizePath(rf.FullPath)
			return nil
		}
	}

	return ErrOPFPathNotFound
}

// normalizePath normalizes file paths (removes ./ prefix)
func normalizePath(path string) string {
	path = strings.TrimPrefix(path, "./")
	return path
}
