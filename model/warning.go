package model

import (
	"fmt"
	"strings"
)

// Warning is a non-fatal problem found while parsing a book. A book with
// warnings is still usable; the affected part was skipped or approximated.
type Warning struct {
	// Href locates the part of the container the warning applies to, if any.
	Href    string
	Message string
}

func (w Warning) String() string {
	if w.Href == "" {
		return w.Message
	}
	return fmt.Sprintf("%s: %s", w.Href, w.Message)
}

// FormatWarnings joins warnings into a single line suitable for logging.
func FormatWarnings(ws []Warning) string {
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = w.String()
	}
	return strings.Join(parts, "; ")
}
