package binary

import (
	"bytes"
)

// Writer provides buffered writing utilities for the binary encoding.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: &bytes.Buffer{}}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.buf.WriteByte(b)
}

// WriteUintLE writes v little-endian in exactly width bytes, zero-filling
// past the eighth byte and truncating when width is below eight.
func (w *Writer) WriteUintLE(v uint64, width int) {
	for i := 0; i < width; i++ {
		if i < 8 {
			w.buf.WriteByte(byte(v >> (8 * uint(i))))
		} else {
			w.buf.WriteByte(0)
		}
	}
}
