package fs

import (
	"fmt"
	"os"
	"path/filepath"
)

const tmpPattern = ".cloudrole-tmp-*"

// WriteFileAtomic writes data to path atomically using a temp file + rename.
// The temp file is created in the same directory as path to ensure atomic rename on POSIX.
// If the operation fails, the original file (if any) is left unchanged.
// The caller must ensure the parent directory exists.
func WriteFileAtomic(fs FS, path string, data []byte, perm os.FileMode) error {
	tmpPath, err := stage(fs, path, data, perm)
	if err != nil {
		return err
	}
	if err := fs.Rename(tmpPath, path); err != nil {
		fs.Remove(tmpPath)
		return err
	}
	return nil
}

// File is a pending whole-file write.
type File struct {
	Path string
	Data []byte
	Perm os.FileMode
}

// CommitError reports which file a multi-file commit stopped at.
// Files before Index were already renamed into place.
type CommitError struct {
	Path  string
	Index int
	Err   error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit %s: %v", e.Path, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// CommitFiles writes every file to a temp sibling first and then renames
// them into place in slice order.
//
// A failure while staging leaves every target untouched. A failure while
// renaming leaves the earlier files replaced and the later ones untouched;
// the returned *CommitError names the file that failed. No temp files are
// left behind either way. Parent directories are created as needed.
func CommitFiles(fs FS, files []File) error {
	staged := make([]string, 0, len(files))
	cleanup := func(from int) {
		for _, p := range staged[from:] {
			fs.Remove(p)
		}
	}

	for i, f := range files {
		if err := fs.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
			cleanup(0)
			return &CommitError{Path: f.Path, Index: i, Err: err}
		}
		tmpPath, err := stage(fs, f.Path, f.Data, f.Perm)
		if err != nil {
			cleanup(0)
			return &CommitError{Path: f.Path, Index: i, Err: err}
		}
		staged = append(staged, tmpPath)
	}

	for i, f := range files {
		if err := fs.Rename(staged[i], f.Path); err != nil {
			cleanup(i)
			return &CommitError{Path: f.Path, Index: i, Err: err}
		}
	}
	return nil
}

// stage writes data to a temp file next to path and returns the temp path.
// The temp file is removed on any error.
func stage(fs FS, path string, data []byte, perm os.FileMode) (string, error) {
	tmpPath, w, err := fs.CreateTemp(filepath.Dir(path), tmpPattern)
	if err != nil {
		return "", err
	}

	success := false
	defer func() {
		if !success {
			fs.Remove(tmpPath)
		}
	}()

	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	if err := fs.Chmod(tmpPath, perm); err != nil {
		return "", err
	}

	success = true
	return tmpPath, nil
}
