package vm

import "io"

// Option configures an Engine.
type Option func(*options)

type options struct {
	output      io.Writer
	input       []byte
	heapSize    int
	stackSize   int
	maxSteps    uint64
	trace       bool
	flushOnHalt bool
}

func defaultOptions() options {
	return options{
		heapSize:  DefaultHeapSize,
		stackSize: DefaultStackSize,
	}
}

// WithHeapSize sets the heap capacity in bytes. Non-positive sizes keep the
// default.
func WithHeapSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.heapSize = n
		}
	}
}

// WithStackSize sets the stack capacity in bytes. Non-positive sizes keep the
// default.
func WithStackSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.stackSize = n
		}
	}
}

// WithOutput sets the device FLUSH writes to. Without it output is discarded.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// WithInput preloads the input queue drained by READ.
func WithInput(p []byte) Option {
	return func(o *options) { o.input = append(o.input, p...) }
}

// WithTrace logs every executed instruction at debug level.
func WithTrace(on bool) Option {
	return func(o *options) { o.trace = on }
}

// WithMaxSteps aborts a run after n instructions. Zero means no limit.
func WithMaxSteps(n uint64) Option {
	return func(o *options) { o.maxSteps = n }
}

// WithFlushOnHalt flushes pending output when the program halts.
func WithFlushOnHalt(on bool) Option {
	return func(o *options) { o.flushOnHalt = on }
}
