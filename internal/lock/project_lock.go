// Package lock provides the advisory project lock taken by mutating commands.
package lock

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
)

const (
	// StateDir is the per-project directory holding tool state.
	StateDir = ".cloudrole"
	fileName = "lock"
)

// Info contains the metadata stored in a lock file.
type Info struct {
	Owner     string    `json:"owner"`
	PID       int       `json:"pid"`
	CreatedAt time.Time `json:"created_at"`
	Cmd       string    `json:"cmd,omitempty"`
}

// ErrLocked indicates a non-stale lock is held by someone else.
type ErrLocked struct {
	Project string
	Info    *Info // nil if lock file is unreadable
	Path    string
}

func (e *ErrLocked) Error() string {
	if e.Info != nil {
		return fmt.Sprintf("project %s is locked by pid %d (%s) since %s (lock file: %s)",
			e.Project, e.Info.PID, e.Info.Cmd, e.Info.CreatedAt.Format(time.RFC3339), e.Path)
	}
	return fmt.Sprintf("project %s is locked (lock file: %s)", e.Project, e.Path)
}

// ProjectLock serialises mutating commands on one project directory.
type ProjectLock struct {
	StaleAfter time.Duration
	Now        func() time.Time
	IsPIDAlive func(pid int) bool
	NewOwner   func() string
}

// New returns a ProjectLock using the real clock, pid probe and uuid owners.
func New(staleAfter time.Duration) ProjectLock {
	return ProjectLock{
		StaleAfter: staleAfter,
		Now:        time.Now,
		IsPIDAlive: isPIDAlive,
		NewOwner:   uuid.NewString,
	}
}

// Path returns the lock file path for a project.
func Path(project string) string {
	return filepath.Join(project, StateDir, fileName)
}

// Lock acquires the project lock and returns an unlock function.
// cmd is recorded in the lock file for the error shown to a second caller.
// If already locked and not stale it returns *ErrLocked.
// unlock only removes the file while it still carries this owner, so a lock
// stolen as stale by another process is left alone.
func (l ProjectLock) Lock(project, cmd string) (unlock func() error, err error) {
	lockPath := Path(project)
	const maxRetries = 3

	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create lock directory: %w", err)
		}

		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			info := Info{
				Owner:     l.NewOwner(),
				PID:       os.Getpid(),
				CreatedAt: l.Now(),
				Cmd:       cmd,
			}
			data, _ := json.Marshal(info)
			if _, writeErr := f.Write(data); writeErr != nil {
				f.Close()
				os.Remove(lockPath)
				return nil, fmt.Errorf("failed to write lock file: %w", writeErr)
			}
			if closeErr := f.Close(); closeErr != nil {
				os.Remove(lockPath)
				return nil, fmt.Errorf("failed to close lock file: %w", closeErr)
			}
			return func() error { return release(lockPath, info.Owner) }, nil
		}

		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create lock file: %w", err)
		}

		info, readErr := readInfo(lockPath)
		if readErr != nil {
			// Unreadable: fall back to mtime.
			stat, statErr := os.Stat(lockPath)
			if statErr != nil {
				return nil, &ErrLocked{Project: project, Path: lockPath}
			}
			if l.Now().Sub(stat.ModTime()) <= l.StaleAfter {
				return nil, &ErrLocked{Project: project, Path: lockPath}
			}
			if removeErr := os.Remove(lockPath); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, &ErrLocked{Project: project, Path: lockPath}
			}
			continue
		}

		if l.isStale(info) {
			if removeErr := os.Remove(lockPath); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, &ErrLocked{Project: project, Info: info, Path: lockPath}
			}
			continue
		}

		return nil, &ErrLocked{Project: project, Info: info, Path: lockPath}
	}

	return nil, &ErrLocked{Project: project, Path: lockPath}
}

func release(path, owner string) error {
	info, err := readInfo(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Owner != owner {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func readInfo(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// isStale reports a dead holder or a lock older than StaleAfter.
func (l ProjectLock) isStale(info *Info) bool {
	if !l.IsPIDAlive(info.PID) {
		return true
	}
	return l.Now().Sub(info.CreatedAt) > l.StaleAfter
}

// isPIDAlive checks if a process with the given pid is alive using signal 0.
func isPIDAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	// EPERM: exists but not ours.
	return errors.Is(err, syscall.EPERM)
}
