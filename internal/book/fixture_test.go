package book

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const fixtureContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

type fixtureEntry struct {
	name   string
	data   string
	stored bool
}

// buildArchive assembles a zip in entry order. Stored entries keep their
// bytes readable in the raw blob, which the scraping tests rely on.
func buildArchive(t *testing.T, entries []fixtureEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		var (
			w   io.Writer
			err error
		)
		if e.stored {
			w, err = zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Store})
		} else {
			w, err = zw.Create(e.name)
		}
		require.NoError(t, err)
		_, err = w.Write([]byte(e.data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func fixtureChapterXHTML(title, body string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>%s</title></head>
<body>%s</body>
</html>`, title, body)
}

// buildBookEPUB assembles a minimal package with the given chapter
// bodies, no NCX and no nav document.
func buildBookEPUB(t *testing.T, title string, bodies []string) []byte {
	t.Helper()

	var manifest, spine strings.Builder
	entries := []fixtureEntry{
		{"mimetype", "application/epub+zip", true},
		{"META-INF/container.xml", fixtureContainerXML, false},
	}
	for i, body := range bodies {
		id := fmt.Sprintf("ch%d", i+1)
		href := fmt.Sprintf("chapter%d.xhtml", i+1)
		fmt.Fprintf(&manifest, `    <item id=%q href=%q media-type="application/xhtml+xml"/>`+"\n", id, href)
		fmt.Fprintf(&spine, `    <itemref idref=%q/>`+"\n", id)
		entries = append(entries, fixtureEntry{
			name: "OEBPS/" + href,
			data: fixtureChapterXHTML(fmt.Sprintf("Part %d", i+1), body),
		})
	}

	opf := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>%s</dc:title>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>
%s  </manifest>
  <spine>
%s  </spine>
</package>`, title, manifest.String(), spine.String())

	entries = append(entries, fixtureEntry{name: "OEBPS/content.opf", data: opf})
	return buildArchive(t, entries)
}

const proseSentence = "Снег падал всю ночь, и к утру город стал совсем белым и тихим. "

// longParagraphs builds n paragraphs of Cyrillic prose, enough text to
// span several pages under the default budgets.
func longParagraphs(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		for j := 0; j < 8; j++ {
			b.WriteString(proseSentence)
		}
		if i < n-1 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

// proseBody builds the same prose as markup, one <p> per paragraph.
func proseBody(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("<p>")
		for j := 0; j < 8; j++ {
			b.WriteString(proseSentence)
		}
		b.WriteString("</p>")
	}
	return b.String()
}
