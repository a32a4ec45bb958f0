package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/transitlog/internal/utils"
)

const (
	defaultMaxSizeMB = 100
	bytesPerMB       = 1024 * 1024

	// backupTimeLayout names rotated files. Nanosecond precision keeps
	// names unique and lexically sortable even when rotations happen
	// within the same second.
	backupTimeLayout = "2006-01-02T15-04-05.000000000"
)

// FileSink implements Sink for file-based logging. It manages the log file,
// rotating it when it reaches a maximum size, optionally compressing rotated
// files in the background, and pruning old backups.
type FileSink struct {
	mu                sync.Mutex
	file              *os.File
	path              string
	maxSize           int64
	size              int64
	maxBackups        int
	compress          bool
	compressionConfig CompressionConfig
	rotationCallback  func(string) // Called after rotation with the path of the rotated file
	errorHandler      func(error)  // Called when errors occur during file operations

	compressWG sync.WaitGroup
}

// FileSinkConfig holds configuration for file output.
type FileSinkConfig struct {
	// Path is the log file path
	Path string
	// MaxSize is the maximum size in bytes before rotation
	MaxSize int64
	// MaxBackups is the number of rotated files kept on disk. Zero keeps
	// every backup.
	MaxBackups int
	// Compress determines if rotated files should be compressed
	Compress bool
	// FileMode sets the permissions for new log files
	FileMode os.FileMode
	// CompressionConfig provides detailed compression options
	CompressionConfig *CompressionConfig
	// RotationCallback is called after rotation with the path of the rotated file
	RotationCallback func(string)
	// ErrorHandler is called when errors occur during file operations
	ErrorHandler func(error)
}

// NewFileSink creates a new file-based sink. It initializes a FileSink
// instance based on the provided FileSinkConfig, ensuring the necessary
// directories and files are created. The returned FileSink can be used to
// write formatted log output to a file, with automatic rotation and
// compression of rotated files.
func NewFileSink(config FileSinkConfig) (*FileSink, error) {
	if config.Path == "" {
		return nil, ewrap.New("log file path is required")
	}

	// Ensure path is secure
	securePath, err := utils.SecurePath(config.Path)
	if err != nil {
		return nil, ewrap.Wrap(err, "invalid log file path")
	}

	config.Path = securePath

	if config.MaxSize == 0 {
		config.MaxSize = defaultMaxSizeMB * bytesPerMB // 100MB default
	}

	if config.FileMode == 0 {
		config.FileMode = 0o644
	}

	compressionConfig := defaultCompressionConfig()
	if config.CompressionConfig != nil {
		compressionConfig = *config.CompressionConfig
	}

	// Ensure directory exists
	dir := filepath.Dir(config.Path)

	err = os.MkdirAll(dir, 0o700)
	if err != nil {
		return nil, ewrap.Wrapf(err, "creating log directory").
			WithMetadata("path", dir)
	}

	// Open or create the log file
	file, err := os.OpenFile(config.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, config.FileMode)
	if err != nil {
		return nil, ewrap.Wrapf(err, "opening log file").
			WithMetadata("path", config.Path)
	}

	// Get initial file size
	info, err := file.Stat()
	if err != nil {
		ioErr := file.Close()
		if ioErr != nil {
			return nil, ewrap.Wrapf(ioErr, "closing file").
				WithMetadata("path", config.Path).
				WithMetadata("err", err)
		}

		return nil, ewrap.Wrapf(err, "getting file stats").
			WithMetadata("path", config.Path)
	}

	return &FileSink{
		file:              file,
		path:              config.Path,
		maxSize:           config.MaxSize,
		size:              info.Size(),
		maxBackups:        config.MaxBackups,
		compress:          config.Compress,
		compressionConfig: compressionConfig,
		rotationCallback:  config.RotationCallback,
		errorHandler:      config.ErrorHandler,
	}, nil
}

// Write implements io.Writer. It writes the provided data to the log file,
// handling automatic rotation when the maximum size is reached. It returns
// the number of bytes written and any error that occurred during the write
// operation.
func (s *FileSink) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return 0, ErrSinkClosed
	}

	// Check if rotation is needed
	if s.size+int64(len(data)) > s.maxSize {
		err := s.rotate()
		if err != nil {
			s.reportError(err)

			return 0, ewrap.Wrapf(err, "rotating log file")
		}
	}

	bytesWritten, err := s.file.Write(data)
	if err != nil {
		s.reportError(err)

		return bytesWritten, ewrap.Wrap(err, "failed writing to log file")
	}

	s.size += int64(bytesWritten)

	return bytesWritten, nil
}

// Sync ensures any buffered data is written to the underlying file.
// If the file has already been closed, Sync returns nil without error.
func (s *FileSink) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil // Already closed, no error
	}

	err := s.file.Sync()
	if err != nil {
		return ewrap.Wrapf(err, "syncing log file")
	}

	return nil
}

// Close syncs and closes the underlying file, then waits for any in-flight
// background compression to finish. If the sink has already been closed,
// Close returns nil without error.
func (s *FileSink) Close() error {
	s.mu.Lock()

	if s.file == nil {
		s.mu.Unlock()

		return nil // Already closed, no error
	}

	err := s.file.Sync()
	if err != nil {
		s.mu.Unlock()

		return ewrap.Wrapf(err, "final sync before close")
	}

	err = s.file.Close()
	if err != nil {
		s.mu.Unlock()

		return ewrap.Wrapf(err, "closing log file")
	}

	s.file = nil // Mark as closed
	s.mu.Unlock()

	s.compressWG.Wait()

	return nil
}

// rotate moves the current log file to a timestamped backup and creates a
// new log file. The caller must hold s.mu.
func (s *FileSink) rotate() error {
	err := s.file.Close()
	if err != nil {
		return ewrap.Wrapf(err, "closing current log file")
	}

	timestamp := time.Now().Format(backupTimeLayout)
	backupPath := filepath.Join(
		filepath.Dir(s.path),
		fmt.Sprintf("%s.%s", filepath.Base(s.path), timestamp),
	)

	err = os.Rename(s.path, backupPath)
	if err != nil {
		return ewrap.Wrapf(err, "renaming log file").
			WithMetadata("from", s.path).
			WithMetadata("to", backupPath)
	}

	if s.compress {
		s.compressWG.Add(1)

		go s.compressRotated(backupPath)
	} else {
		s.pruneBackups()
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return ewrap.Wrapf(err, "creating new log file")
	}

	s.file = file
	s.size = 0

	if s.rotationCallback != nil {
		s.rotationCallback(backupPath)
	}

	return nil
}

// compressRotated compresses a rotated backup in the background and then
// prunes old backups. Runs outside s.mu.
func (s *FileSink) compressRotated(path string) {
	defer s.compressWG.Done()

	defer func() {
		if r := recover(); r != nil {
			// Don't leave partial files behind on panic.
			cleanupCompression(path, s.compressionConfig.Extension)
		}
	}()

	_, err := CompressFile(path, s.compressionConfig)
	if err != nil {
		s.reportError(ewrap.Wrapf(err, "compressing rotated log file").
			WithMetadata("path", path))
	}

	s.pruneBackups()
}

// pruneBackups removes the oldest rotated files beyond maxBackups. Backup
// names embed a fixed-width timestamp, so a lexical sort orders them
// oldest first.
func (s *FileSink) pruneBackups() {
	if s.maxBackups <= 0 {
		return
	}

	dir := filepath.Dir(s.path)
	prefix := filepath.Base(s.path) + "."

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.reportError(ewrap.Wrapf(err, "listing log directory for pruning").
			WithMetadata("path", dir))

		return
	}

	var backups []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if strings.HasPrefix(entry.Name(), prefix) {
			backups = append(backups, entry.Name())
		}
	}

	if len(backups) <= s.maxBackups {
		return
	}

	sort.Strings(backups)

	for _, name := range backups[:len(backups)-s.maxBackups] {
		err := os.Remove(filepath.Join(dir, name))
		if err != nil && !os.IsNotExist(err) {
			s.reportError(ewrap.Wrapf(err, "pruning old log backup").
				WithMetadata("path", name))
		}
	}
}

// reportError routes an operational error to the configured handler, or to
// stderr when none is set.
func (s *FileSink) reportError(err error) {
	if s.errorHandler != nil {
		s.errorHandler(err)

		return
	}

	fmt.Fprintf(os.Stderr, "transitlog: file sink error: %v\n", err)
}
