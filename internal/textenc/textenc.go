// Package textenc decodes chapter bytes of unknown encoding to UTF-8
// strings. EPUB content is supposed to be UTF-8, but files in the wild
// carry UTF-16 with a BOM or single-byte legacy encodings, Cyrillic
// ones in particular.
package textenc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var ErrUndecodable = errors.New("textenc: content could not be decoded as text")

var (
	utf8BOM    = []byte{0xef, 0xbb, 0xbf}
	utf16LEBOM = []byte{0xff, 0xfe}
	utf16BEBOM = []byte{0xfe, 0xff}
)

// legacyEncodings is the ordered list of single-byte fallbacks tried
// after UTF-8 and UTF-16. Windows-1251 and KOI8-R cover Cyrillic text,
// Windows-1252 covers Western European. ISO 8859-1 maps every byte and
// acts as the final catch-all.
var legacyEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"windows-1251", charmap.Windows1251},
	{"koi8-r", charmap.KOI8R},
	{"windows-1252", charmap.Windows1252},
	{"iso-8859-1", charmap.ISO8859_1},
}

// Decode converts data to a UTF-8 string, trying UTF-8, then UTF-16
// (by BOM), then the single-byte legacy encodings. A legacy decode is
// accepted only if it introduces no replacement characters, except for
// the final ISO 8859-1 fallback which always succeeds.
func Decode(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	if bytes.HasPrefix(data, utf16LEBOM) || bytes.HasPrefix(data, utf16BEBOM) {
		return decodeUTF16(data)
	}

	trimmed := bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(trimmed) {
		return string(trimmed), nil
	}

	for _, le := range legacyEncodings {
		out, err := le.enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		s := string(out)
		if le.name == "iso-8859-1" || !strings.ContainsRune(s, utf8.RuneError) {
			return s, nil
		}
	}
	return "", ErrUndecodable
}

func decodeUTF16(data []byte) (string, error) {
	dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	out, err := dec.Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return string(out), nil
}
