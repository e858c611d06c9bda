package util

import (
	"encoding/binary"
	"io"
)

// BinWriter is the write-side counterpart of BinReader.
type BinWriter struct {
	W   io.Writer
	Err error
}

// NewBinWriter returns a BinWriter over w.
func NewBinWriter(w io.Writer) *BinWriter {
	return &BinWriter{W: w}
}

// Write writes v to the underlying io.Writer in little-endian order. It is a
// no-op once Err is set.
func (w *BinWriter) Write(v interface{}) {
	if w.Err != nil {
		return
	}
	w.Err = binary.Write(w.W, binary.LittleEndian, v)
}

// WriteByte writes a single byte.
func (w *BinWriter) WriteByte(b byte) {
	w.Write([1]byte{b})
}

// WriteBytes writes b verbatim, with no length prefix.
func (w *BinWriter) WriteBytes(b []byte) {
	w.Write(b)
}

// WriteBool writes a bool as a single byte.
func (w *BinWriter) WriteBool(b bool) {
	if b {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
}
