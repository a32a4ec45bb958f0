package output

import (
	"io"
	"os"
	"sync"

	"github.com/hyp3rd/ewrap"
)

// ColorMode determines how colors are handled.
type ColorMode int

const (
	// ColorModeAuto detects if the output supports colors.
	ColorModeAuto ColorMode = iota
	// ColorModeAlways forces color output.
	ColorModeAlways
	// ColorModeNever disables color output.
	ColorModeNever
)

// ConsoleSink writes formatted log output to a console stream. The sink
// itself never injects escape sequences: the formatter owns colorization
// and asks the sink, through SupportsColor, whether the destination can
// render them.
type ConsoleSink struct {
	mu         sync.Mutex
	out        io.Writer
	mode       ColorMode
	isTerminal bool
}

// NewConsoleSink creates a new ConsoleSink writing to out. If out is nil,
// it defaults to os.Stdout. The given ColorMode controls the answer of
// SupportsColor: ColorModeAuto resolves to the terminal detection result
// for out, the other modes force it.
func NewConsoleSink(out io.Writer, mode ColorMode) *ConsoleSink {
	if out == nil {
		out = os.Stdout
	}

	return &ConsoleSink{
		out:        out,
		mode:       mode,
		isTerminal: IsTerminal(out),
	}
}

// SupportsColor reports whether ANSI escape sequences are safe to emit on
// this sink.
//
//nolint:exhaustive // ColorModeAuto is handled as default.
func (s *ConsoleSink) SupportsColor() bool {
	switch s.mode {
	case ColorModeAlways:
		return true
	case ColorModeNever:
		return false
	default: // ColorModeAuto
		return s.isTerminal
	}
}

// Write implements io.Writer. It writes the payload to the underlying
// stream as-is.
func (s *ConsoleSink) Write(payload []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bytesWritten, err := s.out.Write(payload)
	if err != nil {
		return bytesWritten, ewrap.Wrap(err, "failed writing to console output")
	}

	return bytesWritten, nil
}

// Sync synchronizes the underlying io.Writer if it implements the
// Sync() error interface. Standard streams are skipped: syncing stdout or
// stderr fails on some platforms and buys nothing.
func (s *ConsoleSink) Sync() error {
	if f, ok := s.out.(*os.File); ok && isStandardStream(f) {
		return nil
	}

	if syncer, ok := s.out.(interface{ Sync() error }); ok {
		return syncer.Sync()
	}

	return nil
}

// Close closes the underlying io.Writer if it implements the io.Closer
// interface. Standard streams are never closed.
func (s *ConsoleSink) Close() error {
	if f, ok := s.out.(*os.File); ok && isStandardStream(f) {
		return nil
	}

	if closer, ok := s.out.(io.Closer); ok {
		err := closer.Close()
		if err != nil {
			return ewrap.Wrap(err, "closing console sink")
		}
	}

	return nil
}
