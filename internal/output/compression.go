package output

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/transitlog/internal/utils"
)

// BufferSize represents different buffer sizes for memory optimization.
type BufferSize int

const (
	// SmallBuffer is optimized for small log entries.
	SmallBuffer BufferSize = 512
	// MediumBuffer is for average log entries.
	MediumBuffer BufferSize = 8 * 1024 // 8KB
	// LargeBuffer size for larger log entries.
	LargeBuffer BufferSize = 32 * 1024 // 32KB
	// XLBuffer for very large log entries or file operations.
	XLBuffer BufferSize = 64 * 1024 // 64KB
)

// CompressionAlgorithm represents a compression algorithm.
type CompressionAlgorithm string

const (
	// NoCompression represents no compression.
	NoCompression CompressionAlgorithm = "none"
	// GzipCompression represents gzip compression.
	GzipCompression CompressionAlgorithm = "gzip"
)

// CompressionLevel names the gzip compression levels used by the sink layer.
type CompressionLevel int

const (
	// CompressionDefault uses the default gzip compression level.
	CompressionDefault CompressionLevel = gzip.DefaultCompression
	// CompressionSpeed optimizes for speed over compression ratio.
	CompressionSpeed CompressionLevel = gzip.BestSpeed
	// CompressionBest uses the best (slowest but most effective) compression level.
	CompressionBest CompressionLevel = gzip.BestCompression
)

// GzipLevel converts the CompressionLevel to its corresponding gzip compression level integer.
func (c CompressionLevel) GzipLevel() int {
	return int(c)
}

// CompressionConfig configures compression for rotated log files.
type CompressionConfig struct {
	// Algorithm is the compression algorithm to use.
	Algorithm CompressionAlgorithm
	// Level is the gzip compression level to use.
	Level int
	// DeleteOriginal determines if the original file should be deleted after compression.
	DeleteOriginal bool
	// Extension is the file extension to use for compressed files (default: .gz).
	Extension string
}

// defaultCompressionConfig returns the default compression configuration.
func defaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		Algorithm:      GzipCompression,
		Level:          gzip.DefaultCompression,
		DeleteOriginal: true,
		Extension:      ".gz",
	}
}

// CompressFile compresses a file using the configured algorithm and level,
// saving the result next to the original with the configured extension. It
// returns the path of the compressed file.
func CompressFile(path string, config CompressionConfig) (string, error) {
	switch config.Algorithm {
	case NoCompression:
		return path, nil
	case GzipCompression:
		return compressGzip(path, config)
	default:
		return "", ErrInvalidCompression
	}
}

// compressGzip compresses a file using gzip compression. On any failure the
// partial compressed file is removed so no truncated archive is left behind.
//
//nolint:cyclop,funlen // the compression sequence reads better as a single unit.
func compressGzip(path string, config CompressionConfig) (string, error) {
	secPath, err := utils.SecurePath(path)
	if err != nil {
		return "", err
	}

	//nolint:gosec // G304: the path is already validated by SecurePath.
	source, err := os.Open(secPath)
	if err != nil {
		return "", ewrap.Wrapf(err, "opening source file").
			WithMetadata("path", secPath)
	}

	defer func() {
		err := source.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to close source file: %v\n", err)
		}
	}()

	extension := config.Extension
	if extension == "" {
		extension = ".gz"
	}

	compressedPath := secPath + extension

	//nolint:gosec // G304: derived from a SecurePath-validated path.
	compressed, err := os.OpenFile(compressedPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", ewrap.Wrapf(err, "creating compressed file").
			WithMetadata("path", compressedPath)
	}

	// Track whether the file was explicitly closed so the deferred close
	// only fires on early error returns.
	var compressedClosed bool

	defer func() {
		if !compressedClosed {
			err := compressed.Close()
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to close compressed file: %v\n", err)
			}
		}
	}()

	gzipWriter, err := gzip.NewWriterLevel(compressed, config.Level)
	if err != nil {
		removePartial(compressedPath)

		return "", ewrap.Wrapf(err, "creating gzip writer").
			WithMetadata("level", config.Level)
	}

	// Record the original file name in the gzip header.
	gzipWriter.Name = filepath.Base(secPath)

	buffer := getCompressionBuffer(LargeBuffer)
	defer putCompressionBuffer(buffer, LargeBuffer)

	err = copyWithBuffer(gzipWriter, source, buffer)
	if err != nil {
		removePartial(compressedPath)

		return "", ewrap.Wrapf(err, "copying file content").
			WithMetadata("path", secPath).
			WithMetadata("compressed_path", compressedPath)
	}

	// Close flushes any buffered compressed data.
	err = gzipWriter.Close()
	if err != nil {
		removePartial(compressedPath)

		return "", ewrap.Wrapf(err, "closing gzip writer").
			WithMetadata("compressed_path", compressedPath)
	}

	err = compressed.Sync()
	if err != nil {
		removePartial(compressedPath)

		return "", ewrap.Wrapf(err, "syncing compressed file").
			WithMetadata("compressed_path", compressedPath)
	}

	err = compressed.Close()
	if err != nil {
		removePartial(compressedPath)

		return "", ewrap.Wrapf(err, "closing compressed file").
			WithMetadata("compressed_path", compressedPath)
	}

	compressedClosed = true

	err = verifyCompressedFile(compressedPath)
	if err != nil {
		removePartial(compressedPath)

		return "", ewrap.Wrapf(err, "verifying compressed file").
			WithMetadata("compressed_path", compressedPath)
	}

	// Remove the original only after the compressed copy is verified.
	if config.DeleteOriginal {
		err = os.Remove(secPath)
		if err != nil {
			// Remove the compressed copy rather than leave duplicates behind.
			removePartial(compressedPath)

			return "", ewrap.Wrapf(err, "removing original file").
				WithMetadata("path", secPath)
		}
	}

	return compressedPath, nil
}

// A pool for compression copy buffers, keyed by size.
//
//nolint:gochecknoglobals // shared pools for compression copy buffers.
var compressionBufferPools = map[BufferSize]*sync.Pool{
	SmallBuffer:  newBufferPool(SmallBuffer),
	MediumBuffer: newBufferPool(MediumBuffer),
	LargeBuffer:  newBufferPool(LargeBuffer),
	XLBuffer:     newBufferPool(XLBuffer),
}

func newBufferPool(size BufferSize) *sync.Pool {
	return &sync.Pool{
		New: func() any {
			buf := make([]byte, size)

			return &buf
		},
	}
}

// getCompressionBuffer gets a buffer from the pool for a specific size.
func getCompressionBuffer(size BufferSize) []byte {
	pool, ok := compressionBufferPools[size]
	if !ok {
		// No pool exists for this size, create a new buffer
		return make([]byte, size)
	}

	buf, ok := pool.Get().(*[]byte)
	if !ok || len(*buf) != int(size) {
		return make([]byte, size)
	}

	return *buf
}

// putCompressionBuffer returns a buffer to the pool.
func putCompressionBuffer(buffer []byte, size BufferSize) {
	if buffer == nil {
		return
	}

	// Only return the buffer to the pool if it's the right size
	if len(buffer) == int(size) {
		if pool, ok := compressionBufferPools[size]; ok {
			pool.Put(&buffer)
		}
	}
}

// removePartial removes a partially written compressed file. Failures are
// reported to stderr; the caller's error flow stays intact.
func removePartial(path string) {
	_, err := os.Stat(path)
	if err != nil {
		return
	}

	err = os.Remove(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to remove partial compressed file %s: %v\n", path, err)
	}
}

// cleanupCompression removes any partial files after a failed compression.
func cleanupCompression(originalPath, extension string) {
	if extension == "" {
		extension = ".gz"
	}

	removePartial(originalPath + extension)
}

// copyWithBuffer copies data from source to destination using the provided
// buffer, avoiding the per-call allocation of io.Copy.
func copyWithBuffer(dst io.Writer, src io.Reader, buffer []byte) error {
	if len(buffer) == 0 {
		return ewrap.New("zero-length buffer provided")
	}

	for {
		nr, err := src.Read(buffer)
		if nr > 0 {
			nw, writeErr := dst.Write(buffer[:nr])
			if writeErr != nil {
				return ewrap.Wrapf(writeErr, "writing to destination")
			}

			if nw != nr {
				return ewrap.New("short write")
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil // Normal completion
			}

			return ewrap.Wrapf(err, "reading from source")
		}
	}
}

// verifyCompressedFile verifies that a compressed file exists, has content,
// and carries a readable gzip stream.
func verifyCompressedFile(path string) error {
	//nolint:gosec // G304: the path is already validated by SecurePath.
	file, err := os.Open(path)
	if err != nil {
		return ewrap.Wrapf(err, "opening compressed file for verification")
	}

	defer func() {
		err := file.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to close file during verification: %v\n", err)
		}
	}()

	info, err := file.Stat()
	if err != nil {
		return ewrap.Wrapf(err, "getting file stats for verification")
	}

	if info.Size() == 0 {
		return ewrap.New("compressed file is empty")
	}

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return ewrap.Wrapf(err, "creating gzip reader for verification")
	}

	defer func() {
		err = gzipReader.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to close gzip reader: %v\n", err)
		}
	}()

	// Read a small amount of content to verify it's valid gzip
	buffer := make([]byte, 1024)

	_, err = gzipReader.Read(buffer)
	if err != nil && !errors.Is(err, io.EOF) {
		return ewrap.Wrapf(err, "verifying gzip content")
	}

	return nil
}
