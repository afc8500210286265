package filters

import (
	"bytes"
	"errors"
	"testing"
)

func TestPalmDOCDecode(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{
			name: "literals",
			in:   []byte("Hello"),
			want: "Hello",
		},
		{
			name: "literal run",
			in:   []byte{0x03, 0xE9, 0x80, 0x01, 'x'},
			want: "\xe9\x80\x01x",
		},
		{
			name: "space plus character",
			in:   []byte{'a', 0xC0 | 'b'},
			want: "a b",
		},
		{
			// distance 3, length 3+2=5, overlapping the output
			name: "back-reference",
			in:   []byte{'a', 'b', 'c', 0x80, 3<<3 | 2},
			want: "abcabcab",
		},
		{
			name: "empty",
			in:   nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PalmDOCDecode(tt.in)
			if err != nil {
				t.Fatalf("PalmDOCDecode() error = %v", err)
			}
			if !bytes.Equal(got, []byte(tt.want)) {
				t.Errorf("PalmDOCDecode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPalmDOCDecodeCorrupt(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"literal run past end", []byte{0x05, 'a', 'b'}},
		{"truncated back-reference", []byte{'a', 0x80}},
		{"distance before start", []byte{'a', 0x80, 5 << 3}},
		{"zero distance", []byte{'a', 0x80, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PalmDOCDecode(tt.in)
			if !errors.Is(err, ErrPalmDOCCorrupt) {
				t.Errorf("PalmDOCDecode() error = %v, want ErrPalmDOCCorrupt", err)
			}
		})
	}
}
