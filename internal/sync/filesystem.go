package sync

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FilesystemTarget stores archives as files under a root directory, for
// syncing through a mounted network share or a directory watched by a
// file-sync service.
type FilesystemTarget struct {
	name string
	root string
}

// NewFilesystemTarget creates the root directory if needed.
func NewFilesystemTarget(name, root string) (*FilesystemTarget, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating sync directory: %w", err)
	}
	return &FilesystemTarget{name: name, root: root}, nil
}

func (f *FilesystemTarget) Name() string { return f.name }

// Put writes to a temporary file first so a reader never sees a partial
// archive.
func (f *FilesystemTarget) Put(_ context.Context, key string, r io.Reader) error {
	dest := filepath.Join(f.root, key)
	tmp, err := os.CreateTemp(f.root, key+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("writing archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("replacing archive: %w", err)
	}
	return nil
}

func (f *FilesystemTarget) Get(_ context.Context, key string, w io.Writer) error {
	src, err := os.Open(filepath.Join(f.root, key))
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer src.Close()
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	return nil
}

func (f *FilesystemTarget) Validate(context.Context) error {
	info, err := os.Stat(f.root)
	if err != nil {
		return fmt.Errorf("sync directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("sync root %s is not a directory", f.root)
	}
	return nil
}

var _ Target = (*FilesystemTarget)(nil)
