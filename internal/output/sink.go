// Package output provides the sink layer for the transit logging backend.
//
// A sink is the final destination of formatted log output. The backend
// worker hands each formatted entry to a single Sink, which may fan the
// write out to several destinations:
// - ConsoleSink writes to a terminal or any io.Writer and reports whether
// ANSI colors are safe to emit
// - FileSink writes to a log file with size-based rotation, optional gzip
// compression of rotated files, and pruning of old backups
// - MultiSink fans writes out to several sinks with per-sink diagnostics
//
// Each sink implements the Sink interface, which extends io.Writer with
// methods for synchronization and cleanup:
//
//	type Sink interface {
//	    io.Writer
//	    Sync() error  // Ensures all data is written
//	    Close() error // Releases resources
//	}
package output

import (
	"io"
	"os"
	"syscall"

	"github.com/hyp3rd/ewrap"
	"github.com/mattn/go-isatty"
)

// Sink is the destination of formatted log output.
type Sink interface {
	// Write writes the given bytes to the underlying destination.
	Write(p []byte) (n int, err error)
	// Sync ensures that all data has been written.
	Sync() error
	// Close closes the sink and releases any resources.
	Close() error
}

type sinkAdapter struct {
	writer io.Writer
}

// NewSinkAdapter wraps a basic io.Writer into a Sink implementation used by the output package.
func NewSinkAdapter(w io.Writer) Sink {
	return &sinkAdapter{writer: w}
}

func (s *sinkAdapter) Underlying() io.Writer {
	return s.writer
}

func (s *sinkAdapter) Write(p []byte) (int, error) {
	bytesWritten, err := s.writer.Write(p)
	if err != nil {
		return bytesWritten, ewrap.Wrap(err, "failed to write to sink")
	}

	return bytesWritten, nil
}

func (s *sinkAdapter) Sync() error {
	if syncer, ok := s.writer.(interface{ Sync() error }); ok {
		return syncer.Sync()
	}

	return nil
}

func (s *sinkAdapter) Close() error {
	if closer, ok := s.writer.(io.Closer); ok {
		err := closer.Close()
		if err != nil {
			return ewrap.Wrap(err, "failed to close sink")
		}
	}

	return nil
}

func shouldBypassSync(sink Sink) bool {
	switch s := sink.(type) {
	case *sinkAdapter:
		if f, ok := s.writer.(*os.File); ok {
			return isStandardStream(f)
		}
	case *ConsoleSink:
		if f, ok := s.out.(*os.File); ok {
			return isStandardStream(f)
		}
	}

	return false
}

func shouldBypassClose(sink Sink) bool {
	switch s := sink.(type) {
	case *sinkAdapter:
		if f, ok := s.writer.(*os.File); ok {
			return isStandardStream(f)
		}
	case *ConsoleSink:
		if f, ok := s.out.(*os.File); ok {
			return isStandardStream(f)
		}
	}

	return false
}

func isStandardStream(f *os.File) bool {
	return f == os.Stdout || f == os.Stderr
}

// IsTerminal checks if the given writer is a terminal. It returns true if the
// writer is connected to a terminal, and false otherwise. This function is
// used to determine whether to enable color support for log output.
func IsTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		if f.Fd() == uintptr(syscall.Stdout) || f.Fd() == uintptr(syscall.Stderr) {
			return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
	}

	return false
}
