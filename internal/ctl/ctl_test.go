package ctl_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clipmenu/clipmenu-go/internal/ctl"
)

func TestIsEnabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "enabled")

	require.NoError(t, os.WriteFile(path, []byte("1"), 0o600))
	enabled, err := ctl.IsEnabled(path)
	require.NoError(t, err)
	require.True(t, enabled)

	require.NoError(t, os.WriteFile(path, []byte("0"), 0o600))
	enabled, err = ctl.IsEnabled(path)
	require.NoError(t, err)
	require.False(t, enabled)
}

func TestIsEnabled_MissingFile(t *testing.T) {
	_, err := ctl.IsEnabled(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestFindDaemonPID_NoneRunning(t *testing.T) {
	// In the test sandbox there is no process literally named "clipmenud",
	// so this should reliably return ErrNotRunning rather than a false
	// positive or multiple-match error.
	_, err := ctl.FindDaemonPID()
	require.ErrorIs(t, err, ctl.ErrNotRunning)
}
