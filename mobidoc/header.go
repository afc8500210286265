package mobidoc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	palmDBHeaderLen = 78
	recordEntryLen  = 8
	palmDOCHeadLen  = 16

	// Offsets into record 0, relative to the start of the record.
	mobiIdentOffset     = 16
	mobiHeaderLenOffset = 20
	mobiEncodingOffset  = 28
	fullNameOffset      = 84
	fullNameLenOffset   = 88
	firstImageOffset    = 108
	exthFlagsOffset     = 128
	extraFlagsOffset    = 242
)

// Compression schemes named in the PalmDOC header.
const (
	CompressionNone    = 1
	CompressionPalmDOC = 2
	CompressionHuffCDC = 17480
)

// Text encodings named in the MOBI header.
const (
	EncodingCP1252 = 1252
	EncodingUTF8   = 65001
)

// EXTH record types read from the extended header.
const (
	exthAuthor      = 100
	exthPublisher   = 101
	exthDescription = 103
	exthISBN        = 104
	exthSubject     = 105
	exthPubDate     = 106
	exthCoverOffset = 201
	exthTitle       = 503
	exthLanguage    = 524
)

// Header holds the fields of the PalmDB, PalmDOC and MOBI headers the
// reader needs.
type Header struct {
	Name        string // PalmDB name
	Type        string // "BOOKMOBI" or "TEXtREAd"
	Compression int
	TextLength  int
	TextRecords int
	Encryption  int
	Encoding    int
	FullName    string
	FirstImage  int
	ExtraFlags  uint16
	EXTH        map[uint32][][]byte
}

// IsMOBI reports whether the file carries a MOBI header, as opposed to a
// bare PalmDOC text.
func (h *Header) IsMOBI() bool { return h.Type == "BOOKMOBI" }

// text decodes a header string in the book's text encoding.
func (h *Header) text(b []byte) string {
	b = bytes.TrimRight(b, "\x00")
	s, err := decodeText(b, h.Encoding)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	return s
}

func (h *Header) exthString(typ uint32) string {
	if vals := h.EXTH[typ]; len(vals) > 0 {
		return h.text(vals[0])
	}
	return ""
}

func (h *Header) exthStrings(typ uint32) []string {
	var out []string
	for _, v := range h.EXTH[typ] {
		if s := h.text(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (h *Header) exthUint32(typ uint32) (uint32, bool) {
	vals := h.EXTH[typ]
	if len(vals) == 0 || len(vals[0]) < 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(vals[0]), true
}

// records splits the file into PalmDB records using the record list.
func records(data []byte) ([][]byte, string, string, error) {
	if len(data) < palmDBHeaderLen {
		return nil, "", "", fmt.Errorf("%w: %d bytes is shorter than the PalmDB header", ErrTruncated, len(data))
	}

	name := string(bytes.TrimRight(data[:32], "\x00"))
	typ := string(data[60:68])
	n := int(binary.BigEndian.Uint16(data[76:78]))
	if n == 0 {
		return nil, "", "", fmt.Errorf("%w: no records", ErrTruncated)
	}

	listEnd := palmDBHeaderLen + n*recordEntryLen
	if len(data) < listEnd {
		return nil, "", "", fmt.Errorf("%w: record list of %d entries", ErrTruncated, n)
	}

	offsets := make([]int, n+1)
	for i := 0; i < n; i++ {
		offsets[i] = int(binary.BigEndian.Uint32(data[palmDBHeaderLen+i*recordEntryLen:]))
	}
	offsets[n] = len(data)

	recs := make([][]byte, n)
	for i := 0; i < n; i++ {
		start, end := offsets[i], offsets[i+1]
		if start < listEnd || start > end || end > len(data) {
			return nil, "", "", fmt.Errorf("%w: record %d spans [%d, %d) of %d bytes", ErrTruncated, i, start, end, len(data))
		}
		recs[i] = data[start:end]
	}
	return recs, name, typ, nil
}

// parseHeader reads record 0.
func parseHeader(rec0 []byte, name, typ string) (*Header, error) {
	if len(rec0) < palmDOCHeadLen {
		return nil, fmt.Errorf("%w: record 0 has %d bytes", ErrTruncated, len(rec0))
	}

	h := &Header{
		Name:        name,
		Type:        typ,
		Compression: int(binary.BigEndian.Uint16(rec0[0:2])),
		TextLength:  int(binary.BigEndian.Uint32(rec0[4:8])),
		TextRecords: int(binary.BigEndian.Uint16(rec0[8:10])),
		Encryption:  int(binary.BigEndian.Uint16(rec0[12:14])),
		Encoding:    EncodingCP1252,
		FirstImage:  -1,
	}

	if !h.IsMOBI() || len(rec0) < mobiHeaderLenOffset+4 || string(rec0[mobiIdentOffset:mobiIdentOffset+4]) != "MOBI" {
		return h, nil
	}

	headerLen := int(binary.BigEndian.Uint32(rec0[mobiHeaderLenOffset:]))
	mobiEnd := mobiIdentOffset + headerLen
	if mobiEnd > len(rec0) {
		return nil, fmt.Errorf("%w: MOBI header length %d exceeds record 0", ErrTruncated, headerLen)
	}

	u32 := func(off int) (uint32, bool) {
		if off+4 > mobiEnd {
			return 0, false
		}
		return binary.BigEndian.Uint32(rec0[off:]), true
	}

	if v, ok := u32(mobiEncodingOffset); ok {
		h.Encoding = int(v)
	}
	if off, ok := u32(fullNameOffset); ok {
		if n, ok := u32(fullNameLenOffset); ok && int(off)+int(n) <= len(rec0) {
			h.FullName = h.text(rec0[off : off+n])
		}
	}
	if v, ok := u32(firstImageOffset); ok && v != 0xFFFFFFFF {
		h.FirstImage = int(v)
	}
	if mobiEnd >= extraFlagsOffset+2 {
		h.ExtraFlags = binary.BigEndian.Uint16(rec0[extraFlagsOffset:])
	}

	if flags, ok := u32(exthFlagsOffset); ok && flags&0x40 != 0 {
		exth, err := parseEXTH(rec0[mobiEnd:])
		if err != nil {
			return nil, err
		}
		h.EXTH = exth
	}
	return h, nil
}

// parseEXTH reads the extended header records.
func parseEXTH(data []byte) (map[uint32][][]byte, error) {
	if len(data) < 12 || string(data[:4]) != "EXTH" {
		return nil, fmt.Errorf("%w: EXTH flag set but no EXTH header", ErrTruncated)
	}
	count := int(binary.BigEndian.Uint32(data[8:12]))

	out := make(map[uint32][][]byte)
	pos := 12
	for i := 0; i < count; i++ {
		if pos+8 > len(data) {
			return nil, fmt.Errorf("%w: EXTH record %d", ErrTruncated, i)
		}
		typ := binary.BigEndian.Uint32(data[pos:])
		size := int(binary.BigEndian.Uint32(data[pos+4:]))
		if size < 8 || pos+size > len(data) {
			return nil, fmt.Errorf("%w: EXTH record %d has length %d", ErrTruncated, i, size)
		}
		out[typ] = append(out[typ], data[pos+8:pos+size])
		pos += size
	}
	return out, nil
}

// trailingSize returns the number of trailing bytes to strip from a text
// record according to the extra data flags.
func trailingSize(rec []byte, flags uint16) int {
	num := 0
	for f := flags >> 1; f != 0; f >>= 1 {
		if f&1 != 0 {
			num += trailingEntrySize(rec[:max(len(rec)-num, 0)])
		}
	}
	if flags&1 != 0 && len(rec)-num-1 >= 0 {
		num += int(rec[len(rec)-num-1]&0x3) + 1
	}
	return num
}

// trailingEntrySize decodes the backward variable-width integer at the end
// of data.
func trailingEntrySize(data []byte) int {
	size, shift := 0, 0
	for i := len(data) - 1; i >= 0; i-- {
		v := data[i]
		size |= int(v&0x7F) << shift
		shift += 7
		if v&0x80 != 0 || shift >= 28 {
			break
		}
	}
	return size
}
