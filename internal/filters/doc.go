// Package filters provides the record decompressors used by the e-book
// readers.
//
// # Supported Filters
//
// PalmDOC (MOBI compression type 2):
//
//	decoded, err := filters.PalmDOCDecode(record)
//
// PalmDOC is an LZ77 variant that works on one text record at a time, so
// each record of a book is decoded independently. A record that ends
// mid-token or refers back past its own start returns ErrPalmDOCCorrupt.
package filters
