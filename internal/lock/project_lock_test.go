package lock

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func testLock(alive bool) ProjectLock {
	n := 0
	return ProjectLock{
		StaleAfter: 2 * time.Hour,
		Now:        func() time.Time { return testNow },
		IsPIDAlive: func(int) bool { return alive },
		NewOwner: func() string {
			n++
			return "owner-" + string(rune('0'+n))
		},
	}
}

func writeInfo(t *testing.T, project string, info Info) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(project, StateDir), 0755))
	data, err := json.Marshal(info)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(Path(project), data, 0600))
}

func TestLock_WritesLockFile(t *testing.T) {
	project := t.TempDir()

	unlock, err := testLock(true).Lock(project, "enable")
	require.NoError(t, err)
	defer unlock()

	data, err := os.ReadFile(filepath.Join(project, ".cloudrole", "lock"))
	require.NoError(t, err)

	var info Info
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, os.Getpid(), info.PID)
	assert.True(t, info.CreatedAt.Equal(testNow))
	assert.Equal(t, "enable", info.Cmd)
	assert.Equal(t, "owner-1", info.Owner)

	stat, err := os.Stat(Path(project))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), stat.Mode().Perm())
}

func TestLock_Contention(t *testing.T) {
	project := t.TempDir()
	l := testLock(true)

	unlock, err := l.Lock(project, "add-role")
	require.NoError(t, err)
	defer unlock()

	_, err = l.Lock(project, "enable")
	require.Error(t, err)

	var locked *ErrLocked
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, project, locked.Project)
	require.NotNil(t, locked.Info)
	assert.Equal(t, "add-role", locked.Info.Cmd)
	assert.Contains(t, err.Error(), "add-role")
}

func TestLock_Stale(t *testing.T) {
	tests := []struct {
		name    string
		info    Info
		alive   bool
		wantErr bool
	}{
		{name: "dead pid", info: Info{Owner: "x", PID: 999999, CreatedAt: testNow}, alive: false},
		{name: "too old", info: Info{Owner: "x", PID: 1, CreatedAt: testNow.Add(-3 * time.Hour)}, alive: true},
		{name: "fresh and alive", info: Info{Owner: "x", PID: 1, CreatedAt: testNow.Add(-time.Minute)}, alive: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project := t.TempDir()
			writeInfo(t, project, tt.info)

			unlock, err := testLock(tt.alive).Lock(project, "enable")
			if tt.wantErr {
				var locked *ErrLocked
				assert.ErrorAs(t, err, &locked)
				return
			}
			require.NoError(t, err)
			require.NoError(t, unlock())
		})
	}
}

func TestLock_UnreadableLockFileUsesMtime(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(project, StateDir), 0755))
	require.NoError(t, os.WriteFile(Path(project), []byte("garbage"), 0600))

	recent := testNow.Add(-time.Minute)
	require.NoError(t, os.Chtimes(Path(project), recent, recent))
	_, err := testLock(true).Lock(project, "enable")
	var locked *ErrLocked
	require.ErrorAs(t, err, &locked)
	assert.Nil(t, locked.Info)

	old := testNow.Add(-3 * time.Hour)
	require.NoError(t, os.Chtimes(Path(project), old, old))
	unlock, err := testLock(true).Lock(project, "enable")
	require.NoError(t, err)
	require.NoError(t, unlock())
}

func TestLock_UnlockIdempotent(t *testing.T) {
	project := t.TempDir()

	unlock, err := testLock(true).Lock(project, "enable")
	require.NoError(t, err)
	require.NoError(t, unlock())
	require.NoError(t, unlock())

	_, err = os.Stat(Path(project))
	assert.True(t, os.IsNotExist(err))
}

func TestLock_UnlockKeepsStolenLock(t *testing.T) {
	project := t.TempDir()

	unlock, err := testLock(true).Lock(project, "enable")
	require.NoError(t, err)

	// Another process treated ours as stale and took over.
	writeInfo(t, project, Info{Owner: "someone-else", PID: 1, CreatedAt: testNow})

	require.NoError(t, unlock())
	_, err = os.Stat(Path(project))
	assert.NoError(t, err)
}

func TestNew(t *testing.T) {
	l := New(time.Minute)
	assert.Equal(t, time.Minute, l.StaleAfter)
	assert.NotNil(t, l.Now)
	assert.NotNil(t, l.IsPIDAlive)
	assert.NotEmpty(t, l.NewOwner())
	assert.True(t, l.IsPIDAlive(os.Getpid()))
}
