package binary

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrShortPayload is returned when the input ends inside a fixed-width payload.
var ErrShortPayload = errors.New("payload truncated")

// Reader wraps an io.ByteReader with position tracking.
type Reader struct {
	r   io.ByteReader
	pos int
}

// NewReader creates a new Reader wrapping the given io.ByteReader.
func NewReader(r io.ByteReader) *Reader {
	return &Reader{r: r, pos: 0}
}

// FromBytes creates a Reader over data.
func FromBytes(data []byte) *Reader {
	return NewReader(bytes.NewReader(data))
}

// Position returns the current byte position.
func (r *Reader) Position() int {
	return r.pos
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, err
	}
	r.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, r.wrapError(ErrShortPayload)
			}
			return nil, err
		}
		buf[i] = b
	}
	return buf, nil
}

// ReadUintLE reads a little-endian unsigned value of width bytes. Bytes past
// the eighth are consumed but do not contribute to the result.
func (r *Reader) ReadUintLE(width int) (uint64, error) {
	buf, err := r.ReadBytes(width)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := min(width, 8) - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v, nil
}

func (r *Reader) wrapError(err error) error {
	return fmt.Errorf("at position %d: %w", r.pos, err)
}

// ParseError represents an error during binary decoding with position information.
type ParseError struct {
	Err      error
	Position int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bytecode: at position %d: %v", e.Position, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// WrapError creates a ParseError with the current position.
func (r *Reader) WrapError(err error) error {
	return &ParseError{
		Position: r.pos,
		Err:      err,
	}
}
