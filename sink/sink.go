// Package sink provides destinations for the documents the compiler emits.
package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/tools/txtar"
)

// OutputSink receives emitted files. Units are lowered in parallel, so
// implementations must be safe for concurrent calls.
type OutputSink interface {
	// WriteFile stores content under the slash-separated relative path.
	WriteFile(ctx context.Context, path string, content []byte) error
}

// FilesystemSink writes below a directory of the local filesystem.
type FilesystemSink struct {
	// Root is the directory all paths are relative to.
	Root string

	// Mode is the permission of created files. Zero means 0644.
	Mode os.FileMode

	// Overwrite replaces existing files. Without it, writing to an
	// existing path fails.
	Overwrite bool
}

// NewFilesystemSink returns a sink writing below root, replacing existing
// files.
func NewFilesystemSink(root string) *FilesystemSink {
	return &FilesystemSink{Root: root, Mode: 0o644, Overwrite: true}
}

// WriteFile writes content atomically: it is staged in a temporary file in
// the target directory and moved into place.
func (s *FilesystemSink) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := ValidatePath(path); err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	root, err := filepath.Abs(s.Root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}
	target := filepath.Join(root, filepath.FromSlash(path))
	if !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return fmt.Errorf("path escapes root directory: %q", path)
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".bridgec-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	staged := tmp.Name()
	// Removing a staged file that was already moved is a no-op.
	defer os.Remove(staged)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	mode := s.Mode
	if mode == 0 {
		mode = 0o644
	}
	if err := os.Chmod(staged, mode); err != nil {
		return fmt.Errorf("set file mode: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.Overwrite {
		if err := os.Rename(staged, target); err != nil {
			return fmt.Errorf("move temp file: %w", err)
		}
		return nil
	}
	// Link fails if the target exists, without a window between the check
	// and the write.
	if err := os.Link(staged, target); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("file already exists: %q", path)
		}
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

// MemorySink keeps files in memory. It is used by tests and by callers
// that post-process the output.
type MemorySink struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{files: make(map[string][]byte)}
}

// WriteFile stores a copy of content.
func (s *MemorySink) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := ValidatePath(path); err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = slices.Clone(content)
	return nil
}

// Get returns a copy of the file at path, or nil.
func (s *MemorySink) Get(path string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.files[path])
}

// Paths returns the stored paths in sorted order.
func (s *MemorySink) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Archive returns the stored files as a txtar archive in path order, the
// bundle format astjson.DecodeArchive reads.
func (s *MemorySink) Archive() []byte {
	a := &txtar.Archive{}
	for _, p := range s.Paths() {
		data := s.Get(p)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		a.Files = append(a.Files, txtar.File{Name: p, Data: data})
	}
	return txtar.Format(a)
}

// Reset removes all files.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.files)
}

// ValidatePath reports whether path is acceptable to a sink: relative,
// slash-separated, clean and free of .. elements.
func ValidatePath(path string) error {
	switch {
	case path == "":
		return errors.New("path is empty")
	case filepath.IsAbs(path) || strings.HasPrefix(path, "/") || hasDriveLetter(path):
		return errors.New("absolute paths not allowed")
	case strings.Contains(path, `\`):
		return errors.New("backslashes not allowed")
	}
	for _, elem := range strings.Split(path, "/") {
		if elem == ".." {
			return errors.New("path traversal not allowed")
		}
	}
	if clean := filepath.ToSlash(filepath.Clean(path)); clean != path {
		return fmt.Errorf("path is not clean (expected %q, got %q)", clean, path)
	}
	return nil
}

func hasDriveLetter(path string) bool {
	if len(path) < 2 || path[1] != ':' {
		return false
	}
	c := path[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
