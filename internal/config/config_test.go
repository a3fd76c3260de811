package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clipmenu/clipmenu-go/internal/config"
)

func TestResolvePaths_PrefersXDGCacheHome(t *testing.T) {
	paths, err := config.ResolvePaths(map[string]string{
		"XDG_CACHE_HOME": "/xdg/cache",
		"HOME":           "/home/user",
	})
	require.NoError(t, err)
	require.Equal(t, "/xdg/cache/clipmenu", paths.CacheDir)
	require.Equal(t, "/xdg/cache/clipmenu/line_cache", paths.LineCachePath)
}

func TestResolvePaths_FallsBackToHome(t *testing.T) {
	paths, err := config.ResolvePaths(map[string]string{"HOME": "/home/user"})
	require.NoError(t, err)
	require.Equal(t, "/home/user/.cache/clipmenu", paths.CacheDir)
}

func TestResolvePaths_ErrorsWithoutHomeOrXDG(t *testing.T) {
	_, err := config.ResolvePaths(map[string]string{})
	require.Error(t, err)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.jsonc"))
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestLoad_OverlaysOnlyPresentFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")

	// JSONC: comments and trailing commas allowed.
	content := `{
		// only override max_clips
		"max_clips": 42,
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, 42, cfg.MaxClips)
	require.Equal(t, config.Default().MaxClipsBatch, cfg.MaxClipsBatch)
	require.Equal(t, config.Default().Deduplicate, cfg.Deduplicate)
}

func TestLoad_CompilesIgnoreWindowRegexps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")

	require.NoError(t, os.WriteFile(path, []byte(`{"ignore_window": ["^keepassxc", "bitwarden$"]}`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.IgnoreWindowRegexps, 2)
	require.True(t, cfg.IgnoreWindowRegexps[0].MatchString("keepassxc - Database"))
}

func TestLoad_InvalidRegexFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")

	require.NoError(t, os.WriteFile(path, []byte(`{"ignore_window": ["("]}`), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
}
