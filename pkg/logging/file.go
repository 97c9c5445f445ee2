package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileLoggerConfig holds configuration for file logging
type FileLoggerConfig struct {
	// Path is the log file path
	Path string
	// Format is the output format (json or text)
	Format Format
	// Level is the minimum log level
	Level Level
	// MaxSize is the maximum size in bytes before rotation (0 = no rotation)
	MaxSize int64
	// MaxBackups is the maximum number of backup files to keep
	MaxBackups int
}

// NewFileLogger creates a logger appending to config.Path, rotating the
// file once it grows past MaxSize
func NewFileLogger(config FileLoggerConfig) (*StreamLogger, error) {
	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rf := &rotatingFile{
		path:       config.Path,
		maxSize:    config.MaxSize,
		maxBackups: config.MaxBackups,
	}
	if err := rf.open(); err != nil {
		return nil, err
	}

	logger := NewStreamLogger(rf, config.Format, config.Level)
	logger.out.closer = rf
	return logger, nil
}

// rotatingFile is an append-only file that renames itself to path.1,
// path.2, ... when it exceeds maxSize. Callers serialize access.
type rotatingFile struct {
	path       string
	maxSize    int64
	maxBackups int
	file       *os.File
	size       int64
}

func (f *rotatingFile) open() error {
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	f.file = file
	f.size = info.Size()
	return nil
}

func (f *rotatingFile) Write(p []byte) (int, error) {
	if f.maxSize > 0 && f.size >= f.maxSize {
		f.rotate()
	}
	if f.file == nil {
		return 0, os.ErrClosed
	}
	n, err := f.file.Write(p)
	f.size += int64(n)
	return n, err
}

func (f *rotatingFile) Close() error {
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

// rotate shifts existing backups up by one and starts a fresh file.
// Failures are ignored: losing a backup must not stop logging.
func (f *rotatingFile) rotate() {
	if f.file == nil {
		return
	}
	f.file.Close()
	f.file = nil

	if f.maxBackups > 0 {
		os.Remove(fmt.Sprintf("%s.%d", f.path, f.maxBackups))
		for i := f.maxBackups - 1; i >= 1; i-- {
			os.Rename(fmt.Sprintf("%s.%d", f.path, i), fmt.Sprintf("%s.%d", f.path, i+1))
		}
		os.Rename(f.path, f.path+".1")
	} else {
		os.Remove(f.path)
	}

	f.open()
}
