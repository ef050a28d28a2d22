// Package zipfile implements a minimal, tolerant reader for the ZIP
// archive format as used by EPUB containers.
//
// Unlike archive/zip it operates on an in-memory byte buffer, exposes
// local header offsets, keeps going past entries whose names are not
// valid UTF-8, and stops at the first damaged central directory header
// instead of rejecting the whole archive. Real-world EPUB files are
// frequently produced by sloppy tooling; a reader that insists on a
// pristine central directory loses books it could have opened.
package zipfile

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// Compression methods stored in central directory and local file headers.
const (
	MethodStored  uint16 = 0
	MethodDeflate uint16 = 8
)

// Record signatures, little-endian.
const (
	sigLocalHeader   uint32 = 0x04034b50 // PK\x03\x04
	sigCentralHeader uint32 = 0x02014b50 // PK\x01\x02
	sigEndOfCentral  uint32 = 0x06054b50 // PK\x05\x06
)

const (
	eocdFixedLen    = 22
	maxCommentLen   = 0xffff
	centralFixedLen = 46
	localFixedLen   = 30
)

var (
	ErrInvalidArchive         = errors.New("zipfile: not a valid ZIP archive")
	ErrEntryNotFound          = errors.New("zipfile: entry not found")
	ErrUnsupportedCompression = errors.New("zipfile: unsupported compression method")
	ErrCorruptEntry           = errors.New("zipfile: entry data out of bounds")
)

// Entry describes one file in the archive, as recorded in the central
// directory. Entries are immutable once the archive is parsed.
type Entry struct {
	Name              string
	LocalHeaderOffset uint32
	CompressedSize    uint32
	UncompressedSize  uint32
	Method            uint16
}

// Archive is an index over a ZIP byte buffer. It performs no I/O of its
// own; callers supply bytes and receive bytes.
type Archive struct {
	data    []byte
	entries []Entry
	index   map[string]int // name -> entries index, first occurrence wins
}

// Parse validates the ZIP signature, locates the end-of-central-directory
// record and builds an index of all entries.
func Parse(data []byte) (*Archive, error) {
	if len(data) < 4 || data[0] != 'P' || data[1] != 'K' {
		return nil, fmt.Errorf("%w: missing PK signature", ErrInvalidArchive)
	}

	cdOffset, err := findCentralDirectory(data)
	if err != nil {
		return nil, err
	}

	a := &Archive{
		data:  data,
		index: make(map[string]int),
	}
	a.scanCentralDirectory(cdOffset)
	return a, nil
}

// findCentralDirectory scans backward from the end of the buffer for the
// end-of-central-directory record and returns the central directory
// start offset recorded in it. The scan is bounded by the maximum ZIP
// comment length.
func findCentralDirectory(data []byte) (int, error) {
	if len(data) < eocdFixedLen {
		return 0, fmt.Errorf("%w: too short for end-of-central-directory record", ErrInvalidArchive)
	}

	low := len(data) - eocdFixedLen - maxCommentLen
	if low < 0 {
		low = 0
	}
	for i := len(data) - eocdFixedLen; i >= low; i-- {
		if binary.LittleEndian.Uint32(data[i:]) != sigEndOfCentral {
			continue
		}
		// Central directory offset lives 16 bytes into the record.
		cdOffset := int(binary.LittleEndian.Uint32(data[i+16:]))
		if cdOffset < 0 || cdOffset >= len(data) {
			return 0, fmt.Errorf("%w: central directory offset out of range", ErrInvalidArchive)
		}
		return cdOffset, nil
	}
	return 0, fmt.Errorf("%w: end-of-central-directory record not found", ErrInvalidArchive)
}

// scanCentralDirectory walks central directory file headers sequentially
// starting at offset. The walk stops at the first header whose signature
// does not match. Entries whose names are not valid UTF-8 are skipped.
func (a *Archive) scanCentralDirectory(offset int) {
	pos := offset
	for pos+centralFixedLen <= len(a.data) {
		if binary.LittleEndian.Uint32(a.data[pos:]) != sigCentralHeader {
			return
		}

		method := binary.LittleEndian.Uint16(a.data[pos+10:])
		compressedSize := binary.LittleEndian.Uint32(a.data[pos+20:])
		uncompressedSize := binary.LittleEndian.Uint32(a.data[pos+24:])
		nameLen := int(binary.LittleEndian.Uint16(a.data[pos+28:]))
		extraLen := int(binary.LittleEndian.Uint16(a.data[pos+30:]))
		commentLen := int(binary.LittleEndian.Uint16(a.data[pos+32:]))
		localOffset := binary.LittleEndian.Uint32(a.data[pos+42:])

		if pos+centralFixedLen+nameLen > len(a.data) {
			return
		}
		rawName := a.data[pos+centralFixedLen : pos+centralFixedLen+nameLen]
		if utf8.Valid(rawName) {
			name := string(rawName)
			if _, dup := a.index[name]; !dup {
				a.index[name] = len(a.entries)
			}
			a.entries = append(a.entries, Entry{
				Name:              name,
				LocalHeaderOffset: localOffset,
				CompressedSize:    compressedSize,
				UncompressedSize:  uncompressedSize,
				Method:            method,
			})
		}

		pos += centralFixedLen + nameLen + extraLen + commentLen
	}
}

// Entries returns all indexed entries in central directory order.
func (a *Archive) Entries() []Entry {
	return a.entries
}

// Has reports whether an entry with the given name exists.
func (a *Archive) Has(name string) bool {
	_, ok := a.index[name]
	return ok
}

// Extract returns the decompressed contents of the named entry.
// Stored entries are returned verbatim; deflate entries are inflated.
// Any other compression method fails with ErrUnsupportedCompression.
func (a *Archive) Extract(name string) ([]byte, error) {
	i, ok := a.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	e := a.entries[i]

	raw, err := a.entryData(e)
	if err != nil {
		return nil, err
	}

	switch e.Method {
	case MethodStored:
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	case MethodDeflate:
		fr := flate.NewReader(bytes.NewReader(raw))
		defer fr.Close()
		out, err := io.ReadAll(fr)
		if err != nil {
			return nil, fmt.Errorf("zipfile: inflating %s: %w", name, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: method %d for %s", ErrUnsupportedCompression, e.Method, name)
	}
}

// entryData seeks to the entry's local file header, validates its
// signature, skips the variable-length name and extra fields and slices
// out CompressedSize bytes of entry data. Sizes come from the central
// directory; local headers written with data descriptors may carry zeros.
func (a *Archive) entryData(e Entry) ([]byte, error) {
	off := int(e.LocalHeaderOffset)
	if off+localFixedLen > len(a.data) {
		return nil, fmt.Errorf("%w: %s local header at %d", ErrCorruptEntry, e.Name, off)
	}
	if binary.LittleEndian.Uint32(a.data[off:]) != sigLocalHeader {
		return nil, fmt.Errorf("%w: %s has no local header signature", ErrCorruptEntry, e.Name)
	}

	nameLen := int(binary.LittleEndian.Uint16(a.data[off+26:]))
	extraLen := int(binary.LittleEndian.Uint16(a.data[off+28:]))

	start := off + localFixedLen + nameLen + extraLen
	end := start + int(e.CompressedSize)
	if start > len(a.data) || end > len(a.data) || end < start {
		return nil, fmt.Errorf("%w: %s data [%d:%d]", ErrCorruptEntry, e.Name, start, end)
	}
	return a.data[start:end], nil
}
