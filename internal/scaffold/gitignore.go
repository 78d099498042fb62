package scaffold

import (
	"os"
	"strings"

	"github.com/NielsdaWheelz/cloudrole/internal/fs"
	"github.com/NielsdaWheelz/cloudrole/internal/lock"
)

// StateDirEntry is the ignore entry for the per-project state directory.
const StateDirEntry = lock.StateDir + "/"

// IgnoreResult indicates what happened to .gitignore.
type IgnoreResult string

const (
	IgnoreUpdated   IgnoreResult = "updated"
	IgnoreUnchanged IgnoreResult = "unchanged"
)

// EnsureIgnored makes sure entry is listed in the ignore file at path.
// Creates the file if missing. Does not add duplicate entries; "dir/" and
// "dir" are treated as the same entry.
func EnsureIgnored(fsys fs.FS, path, entry string) (IgnoreResult, error) {
	content, err := fsys.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		if err := fs.WriteFileAtomic(fsys, path, []byte(entry+"\n"), 0644); err != nil {
			return "", err
		}
		return IgnoreUpdated, nil
	}

	if hasEntry(string(content), entry) {
		return IgnoreUnchanged, nil
	}

	newContent := string(content)
	if len(newContent) > 0 && !strings.HasSuffix(newContent, "\n") {
		newContent += "\n"
	}
	newContent += entry + "\n"

	if err := fs.WriteFileAtomic(fsys, path, []byte(newContent), 0644); err != nil {
		return "", err
	}
	return IgnoreUpdated, nil
}

func hasEntry(content, entry string) bool {
	bare := strings.TrimSuffix(entry, "/")
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == bare || trimmed == bare+"/" {
			return true
		}
	}
	return false
}
