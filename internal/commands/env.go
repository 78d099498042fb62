// Package commands implements cloudrole CLI commands.
package commands

import (
	stderrors "errors"
	"log/slog"

	"github.com/NielsdaWheelz/cloudrole/internal/config"
	"github.com/NielsdaWheelz/cloudrole/internal/errors"
	"github.com/NielsdaWheelz/cloudrole/internal/fs"
	"github.com/NielsdaWheelz/cloudrole/internal/lock"
	"github.com/NielsdaWheelz/cloudrole/internal/store"
)

// Env carries the collaborators shared by every command.
type Env struct {
	FS     fs.FS
	Config config.Config
	Logger *slog.Logger

	// Lock guards mutating commands; zero means lock.New with the configured
	// staleness.
	Lock *lock.ProjectLock
}

// Store returns a document store using the configured layout.
func (e Env) Store() *store.Store {
	return store.NewStore(e.FS, e.Config.Layout(), e.Logger)
}

// lockProject takes the project lock for cmd.
// Returns E_PROJECT_LOCKED if another command holds it.
func (e Env) lockProject(project, cmd string) (func() error, error) {
	l := lock.New(e.Config.Lock.StaleAfter)
	if e.Lock != nil {
		l = *e.Lock
	}
	unlock, err := l.Lock(project, cmd)
	if err != nil {
		var locked *lock.ErrLocked
		if stderrors.As(err, &locked) {
			return nil, errors.WrapWithDetails(errors.EProjectLocked, locked.Error(), err,
				map[string]string{"lock_file": locked.Path})
		}
		return nil, errors.Wrap(errors.EIOFailure, "failed to take project lock", err)
	}
	return unlock, nil
}

// release runs unlock and logs a failure; the command result stands.
func (e Env) release(unlock func() error) {
	if err := unlock(); err != nil && e.Logger != nil {
		e.Logger.Warn("failed to release project lock", "error", err)
	}
}
