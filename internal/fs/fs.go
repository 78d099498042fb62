// Package fs is the filesystem seam under the document store, the scaffold
// writer and the config loader. Tests swap in stubs to fail individual
// operations.
package fs

import (
	"io"
	iofs "io/fs"
	"os"
)

// FS covers the reads project loading needs and the temp-file-and-rename
// sequence a commit uses. Whole-file writes go through CommitFiles or
// WriteFileAtomic, never directly.
type FS interface {
	ReadFile(path string) ([]byte, error)
	Stat(path string) (iofs.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	// CreateTemp creates a file in dir and returns its path and an open
	// writer. The file is the caller's to close and rename or remove.
	CreateTemp(dir, pattern string) (path string, w io.WriteCloser, err error)
	Chmod(path string, perm os.FileMode) error
	Rename(oldpath, newpath string) error
	Remove(path string) error
}

// RealFS implements FS on the os package.
type RealFS struct{}

func NewRealFS() *RealFS {
	return &RealFS{}
}

func (r *RealFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (r *RealFS) Stat(path string) (iofs.FileInfo, error) {
	return os.Stat(path)
}

func (r *RealFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (r *RealFS) CreateTemp(dir, pattern string) (string, io.WriteCloser, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", nil, err
	}
	return f.Name(), f, nil
}

func (r *RealFS) Chmod(path string, perm os.FileMode) error {
	return os.Chmod(path, perm)
}

func (r *RealFS) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

func (r *RealFS) Remove(path string) error {
	return os.Remove(path)
}
