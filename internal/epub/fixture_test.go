package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// zipEntry is one file to place in a test archive.
type zipEntry struct {
	name string
	data string
}

// buildZip assembles an in-memory ZIP from entries, mimetype stored
// first the way EPUB producers write it.
func buildZip(t *testing.T, entries []zipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	mt, err := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatalf("creating mimetype: %v", err)
	}
	if _, err := mt.Write([]byte("application/epub+zip")); err != nil {
		t.Fatalf("writing mimetype: %v", err)
	}

	for _, e := range entries {
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("creating %s: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.data)); err != nil {
			t.Fatalf("writing %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

// buildZipWithoutMimetype assembles a ZIP with only the given entries,
// for fixtures exercising mimetype tolerance.
func buildZipWithoutMimetype(t *testing.T, entries []zipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("creating %s: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.data)); err != nil {
			t.Fatalf("writing %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

const testContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

// chapterXHTML renders a minimal chapter document.
func chapterXHTML(title, body string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>%s</title></head>
<body>%s</body>
</html>`, title, body)
}

// testOPF renders a package document with one spine itemref per
// chapter file name given.
func testOPF(title string, chapterFiles []string) string {
	var manifest, spine strings.Builder
	for i, name := range chapterFiles {
		fmt.Fprintf(&manifest,
			`<item id="ch%d" href="%s" media-type="application/xhtml+xml"/>`+"\n", i+1, name)
		fmt.Fprintf(&spine, `<itemref idref="ch%d"/>`+"\n", i+1)
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" xmlns:dc="http://purl.org/dc/elements/1.1/" version="2.0">
  <metadata>
    <dc:title>%s</dc:title>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>
%s  </manifest>
  <spine>
%s  </spine>
</package>`, title, manifest.String(), spine.String())
}

// buildTestEPUB assembles a complete minimal EPUB: container, OPF under
// OEBPS/ and one XHTML file per chapter body.
func buildTestEPUB(t *testing.T, title string, chapterBodies []string) []byte {
	t.Helper()

	var files []string
	entries := []zipEntry{{"META-INF/container.xml", testContainerXML}}
	for i, body := range chapterBodies {
		name := fmt.Sprintf("chapter%d.xhtml", i+1)
		files = append(files, name)
		entries = append(entries, zipEntry{
			name: "OEBPS/" + name,
			data: chapterXHTML(fmt.Sprintf("%s %d", title, i+1), body),
		})
	}
	entries = append(entries, zipEntry{"OEBPS/content.opf", testOPF(title, files)})
	return buildZip(t, entries)
}
