package vm

import (
	"bytes"
	"io"

	"github.com/wippyai/tagvm/errors"
)

// IO is the buffered boundary between the engine and the host device. WRITE
// appends to the out queue and FLUSH hands it to the device; READ drains the
// in queue, which the host fills with Feed.
type IO struct {
	device io.Writer
	out    []byte
	in     []byte
}

// NewIO creates an IO flushing to device. A nil device discards output.
func NewIO(device io.Writer) *IO {
	if device == nil {
		device = io.Discard
	}
	return &IO{device: device}
}

// Write appends p to the out queue.
func (b *IO) Write(p []byte) {
	b.out = append(b.out, p...)
}

// Out returns a copy of the pending output.
func (b *IO) Out() []byte {
	return bytes.Clone(b.out)
}

// Flush writes the out queue to the device and clears it. The queue is
// cleared even when the device fails.
func (b *IO) Flush() error {
	if len(b.out) == 0 {
		return nil
	}
	_, err := b.device.Write(b.out)
	b.out = b.out[:0]
	if err != nil {
		return errors.Wrap(errors.PhaseRuntime, errors.KindIOFault, err, "flush to device")
	}
	return nil
}

// Feed appends p to the in queue.
func (b *IO) Feed(p []byte) {
	b.in = append(b.in, p...)
}

// Pending returns the number of unread input bytes.
func (b *IO) Pending() int {
	return len(b.in)
}

// Read removes and returns exactly n input bytes.
func (b *IO) Read(n uint64) ([]byte, error) {
	if n > uint64(len(b.in)) {
		return nil, errors.New(errors.PhaseRuntime, errors.KindIOFault).
			Value(n).Detail("read of %d bytes with %d available", n, len(b.in)).Build()
	}
	p := bytes.Clone(b.in[:n])
	b.in = b.in[n:]
	return p, nil
}

// ReadUntil removes and returns input up to and including delim. Nothing is
// consumed when delim is not buffered.
func (b *IO) ReadUntil(delim byte) ([]byte, error) {
	i := bytes.IndexByte(b.in, delim)
	if i < 0 {
		return nil, errors.New(errors.PhaseRuntime, errors.KindIOFault).
			Value(delim).Detail("delimiter 0x%02x not in %d buffered bytes", delim, len(b.in)).Build()
	}
	return b.Read(uint64(i + 1))
}

// ReadLine reads one line and strips its line ending.
func (b *IO) ReadLine() (string, error) {
	line, err := b.ReadUntil('\n')
	if err != nil {
		return "", err
	}
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return string(line), nil
}
