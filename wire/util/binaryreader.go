// Package util provides small binary encoding helpers shared by the wire
// payload types.
package util

import (
	"encoding/binary"
	"io"
)

// BinReader is a convenient wrapper around an io.Reader and an error value,
// used to simplify error handling when reading a struct with many fields:
// callers chain Read calls and inspect Err once at the end.
type BinReader struct {
	R   io.Reader
	Err error
}

// NewBinReader returns a BinReader over r.
func NewBinReader(r io.Reader) *BinReader {
	return &BinReader{R: r}
}

// Read reads from the underlying io.Reader into v in little-endian order.
// It is a no-op once Err is set.
func (r *BinReader) Read(v interface{}) {
	if r.Err != nil {
		return
	}
	r.Err = binary.Read(r.R, binary.LittleEndian, v)
}

// ReadByte reads a single byte.
func (r *BinReader) ReadByte() byte {
	var b [1]byte
	r.Read(&b)
	return b[0]
}

// ReadBytes reads exactly n bytes.
func (r *BinReader) ReadBytes(n int) []byte {
	b := make([]byte, n)
	r.Read(b)
	return b
}

// ReadBool reads a single byte and interprets it as a bool (0 = false).
func (r *BinReader) ReadBool() bool {
	return r.ReadByte() != 0
}
