package epub

import (
	"errors"
	"strings"
	"testing"
)

func TestOpen_ResolvesOPFPath(t *testing.T) {
	data := buildTestEPUB(t, "Sample", []string{"<p>one</p>"})

	r, err := Open(data)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if r.OPFPath() != "OEBPS/content.opf" {
		t.Errorf("OPFPath() = %q, want OEBPS/content.opf", r.OPFPath())
	}
}

func TestOpen_MissingContainer(t *testing.T) {
	data := buildZip(t, []zipEntry{
		{"OEBPS/content.opf", testOPF("No Container", nil)},
	})

	_, err := Open(data)
	if !errors.Is(err, ErrContainerNotFound) {
		t.Errorf("Open() error = %v, want ErrContainerNotFound", err)
	}
}

func TestOpen_ContainerWithoutRootfile(t *testing.T) {
	data := buildZip(t, []zipEntry{
		{"META-INF/container.xml", `<?xml version="1.0"?>
<container xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles/>
</container>`},
	})

	_, err := Open(data)
	if !errors.Is(err, ErrOPFPathNotFound) {
		t.Errorf("Open() error = %v, want ErrOPFPathNotFound", err)
	}
}

func TestOpen_ContainerWithWrongMediaType(t *testing.T) {
	data := buildZip(t, []zipEntry{
		{"META-INF/container.xml", `<?xml version="1.0"?>
<container xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="something.pdf" media-type="application/pdf"/>
  </rootfiles>
</container>`},
	})

	_, err := Open(data)
	if !errors.Is(err, ErrOPFPathNotFound) {
		t.Errorf("Open() error = %v, want ErrOPFPathNotFound", err)
	}
}

func TestOpen_NotAnArchive(t *testing.T) {
	if _, err := Open([]byte("plain text, no archive here")); err == nil {
		t.Error("Open() = nil error for non-ZIP input, want error")
	}
}

func TestReadFile(t *testing.T) {
	data := buildTestEPUB(t, "Sample", []string{"<p>chapter body</p>"})

	r, err := Open(data)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	content, err := r.ReadFile("OEBPS/chapter1.xhtml")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(content), "chapter body") {
		t.Errorf("ReadFile() content missing expected text")
	}

	if _, err := r.ReadFile("OEBPS/absent.xhtml"); err == nil {
		t.Error("ReadFile(absent) = nil error, want error")
	}

	if !r.Has("OEBPS/chapter1.xhtml") || r.Has("OEBPS/absent.xhtml") {
		t.Error("Has() gave wrong answers")
	}
}

func TestOpen_MissingMimetypeTolerated(t *testing.T) {
	// Built without the mimetype entry at all: structure is otherwise
	// intact and must still open.
	data := buildZipWithoutMimetype(t, []zipEntry{
		{"META-INF/container.xml", testContainerXML},
		{"OEBPS/content.opf", testOPF("No Mimetype", nil)},
	})

	r, err := Open(data)
	if err != nil {
		t.Fatalf("Open() error = %v, want mimetype absence tolerated", err)
	}
	if r.OPFPath() != "OEBPS/content.opf" {
		t.Errorf("OPFPath() = %q", r.OPFPath())
	}
}
