// Package document reads and writes the text files srcpatch patches. It
// handles character encodings, universal line splitting, terminator
// normalization, and atomic replacement of the target file.
package document

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Store reads and writes documents on an afero filesystem.
type Store struct {
	fs     afero.Fs
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets a logger for the Store.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a store backed by fs. A nil fs selects the OS filesystem.
func NewStore(fs afero.Fs, opts ...StoreOption) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	s := &Store{
		fs:     fs,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Fs returns the underlying filesystem.
func (s *Store) Fs() afero.Fs { return s.fs }

// Read returns the decoded content of path.
func (s *Store) Read(path, encodingName string) (string, error) {
	codec, err := LookupCodec(encodingName)
	if err != nil {
		return "", err
	}

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	text, err := codec.Decode(data)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	return text, nil
}

// Write encodes text and atomically replaces path with it. The content is
// written to a temporary file in the same directory and renamed over the
// target, so readers never observe a partial file. An existing file's
// permissions are preserved.
func (s *Store) Write(path, text, encodingName string) error {
	codec, err := LookupCodec(encodingName)
	if err != nil {
		return err
	}

	data, err := codec.Encode(text)
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	perm := os.FileMode(0o644)
	if info, statErr := s.fs.Stat(path); statErr == nil {
		perm = info.Mode().Perm()
	}

	dir := filepath.Dir(path)

	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(path)+".srcpatch-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}

	tmpName := tmp.Name()

	cleanup := func() {
		if rmErr := s.fs.Remove(tmpName); rmErr != nil && !os.IsNotExist(rmErr) {
			s.logger.Warn("removing temp file", slog.String("path", tmpName), slog.String("error", rmErr.Error()))
		}
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()

		return fmt.Errorf("writing %s: %w", tmpName, err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()

		return fmt.Errorf("syncing %s: %w", tmpName, err)
	}

	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}

	if err := s.fs.Chmod(tmpName, perm); err != nil {
		cleanup()
		return fmt.Errorf("setting permissions on %s: %w", tmpName, err)
	}

	if err := s.fs.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	s.logger.Debug("wrote document", slog.String("path", path), slog.Int("bytes", len(data)))

	return nil
}

// ReadLines reads path and splits it into lines.
func (s *Store) ReadLines(path, encodingName string) ([]string, error) {
	text, err := s.Read(path, encodingName)
	if err != nil {
		return nil, err
	}

	return SplitLines(text), nil
}

// WriteLines joins lines with e and writes them to path.
func (s *Store) WriteLines(path string, lines []string, e LineEnding, encodingName string) error {
	return s.Write(path, JoinLines(lines, e), encodingName)
}
