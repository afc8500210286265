package filters

import (
	"errors"
	"fmt"
)

// ErrPalmDOCCorrupt is returned when a PalmDOC record ends mid-token or a
// back-reference points before the start of the output.
var ErrPalmDOCCorrupt = errors.New("filters: corrupt PalmDOC record")

// PalmDOCDecode decompresses one PalmDOC (LZ77 variant) text record.
//
// Byte ranges of the input select the token type:
//   - 0x00, 0x09-0x7F: literal byte
//   - 0x01-0x08: that many literal bytes follow
//   - 0x80-0xBF: two-byte back-reference (11-bit distance, 3-bit length+3)
//   - 0xC0-0xFF: a space followed by the byte XOR 0x80
func PalmDOCDecode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)*2)

	for i := 0; i < len(data); {
		c := data[i]
		i++

		switch {
		case c == 0x00 || (c >= 0x09 && c <= 0x7F):
			out = append(out, c)

		case c <= 0x08:
			n := int(c)
			if i+n > len(data) {
				return nil, fmt.Errorf("%w: literal run of %d at offset %d exceeds record", ErrPalmDOCCorrupt, n, i-1)
			}
			out = append(out, data[i:i+n]...)
			i += n

		case c <= 0xBF:
			if i >= len(data) {
				return nil, fmt.Errorf("%w: back-reference truncated at offset %d", ErrPalmDOCCorrupt, i-1)
			}
			pair := uint16(c)<<8 | uint16(data[i])
			i++
			distance := int(pair>>3) & 0x7FF
			length := int(pair&0x7) + 3
			if distance == 0 || distance > len(out) {
				return nil, fmt.Errorf("%w: back-reference distance %d with %d bytes decoded", ErrPalmDOCCorrupt, distance, len(out))
			}
			// The source may overlap the bytes being written.
			start := len(out) - distance
			for j := 0; j < length; j++ {
				out = append(out, out[start+j])
			}

		default:
			out = append(out, ' ', c^0x80)
		}
	}

	return out, nil
}
