// Package config resolves clipmenu-go's on-disk layout and loads its
// optional JSONC config file.
//
// Loading standardizes the JSONC to plain JSON, unmarshals it, and merges
// only the fields actually present in the file over the built-in defaults
// - an absent field keeps its default rather than zeroing it out.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/tailscale/hujson"
)

// Paths is the resolved filesystem layout for one user session.
type Paths struct {
	// CacheDir is the root directory holding the snip index, content
	// files, and status/session files.
	CacheDir string

	// LineCachePath is the snip index file (the clipstore mmap target).
	LineCachePath string

	// ContentDir holds one file per distinct content hash.
	ContentDir string

	// EnabledPath holds a single ASCII '0'/'1' byte toggled by clipctl.
	EnabledPath string

	// SessionLockPath is the single-daemon-guarantee lock file.
	SessionLockPath string
}

// ResolvePaths computes Paths from the environment, following
// $XDG_CACHE_HOME/clipmenu (falling back to $HOME/.cache/clipmenu).
func ResolvePaths(env map[string]string) (Paths, error) {
	var base string

	if dir := env["XDG_CACHE_HOME"]; dir != "" {
		base = filepath.Join(dir, "clipmenu")
	} else if home := env["HOME"]; home != "" {
		base = filepath.Join(home, ".cache", "clipmenu")
	} else {
		return Paths{}, fmt.Errorf("config: neither XDG_CACHE_HOME nor HOME is set")
	}

	return Paths{
		CacheDir:        base,
		LineCachePath:   filepath.Join(base, "line_cache"),
		ContentDir:      filepath.Join(base, "content"),
		EnabledPath:     filepath.Join(base, "enabled"),
		SessionLockPath: filepath.Join(base, "session.lock"),
	}, nil
}

// Config is clipmenu-go's tunable behavior, loaded from an optional JSONC
// file.
type Config struct {
	// MaxClips is the target number of snips to keep once trimming runs.
	MaxClips int `json:"max_clips"`

	// MaxClipsBatch is the hysteresis band added to MaxClips before a trim
	// is triggered (clipmenud.c's maybe_trim).
	MaxClipsBatch int `json:"max_clips_batch"`

	// Deduplicate selects KeepLast (true) vs KeepAll (false) dedup policy.
	Deduplicate bool `json:"deduplicate"`

	// OwnClipboard controls whether the daemon re-serves CLIPBOARD content
	// via a spawned serve process after capturing it.
	OwnClipboard bool `json:"own_clipboard"`

	// PartialMaxSecs bounds the partial-selection merge window.
	PartialMaxSecs int `json:"partial_max_secs"`

	// IgnoreWindow lists regexes matched against a window's title; any
	// match suppresses capture from that window.
	IgnoreWindow []string `json:"ignore_window"`

	// IgnoreWindowRegexps is IgnoreWindow, compiled. Populated by Load;
	// not serialized.
	IgnoreWindowRegexps []*regexp.Regexp `json:"-"`
}

// Default returns clipmenu-go's built-in defaults.
func Default() Config {
	return Config{
		MaxClips:       1000,
		MaxClipsBatch:  50,
		Deduplicate:    true,
		OwnClipboard:   true,
		PartialMaxSecs: 2,
	}
}

// Load reads an optional JSONC config file at path, merging it over
// [Default]. A missing file is not an error. Compiles IgnoreWindow into
// IgnoreWindowRegexps.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: invalid JSONC in %s: %w", path, err)
	}

	var overlay Config
	if err := json.Unmarshal(standardized, &overlay); err != nil {
		return Config{}, fmt.Errorf("config: invalid JSON in %s: %w", path, err)
	}

	cfg = merge(cfg, overlay, standardized)

	for _, pattern := range cfg.IgnoreWindow {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid ignore_window pattern %q: %w", pattern, err)
		}
		cfg.IgnoreWindowRegexps = append(cfg.IgnoreWindowRegexps, re)
	}

	return cfg, nil
}

// merge overlays fields present in the raw JSON document onto base,
// leaving defaults in place for anything the file didn't mention.
func merge(base, overlay Config, raw []byte) Config {
	var present map[string]json.RawMessage
	_ = json.Unmarshal(raw, &present)

	if _, ok := present["max_clips"]; ok {
		base.MaxClips = overlay.MaxClips
	}
	if _, ok := present["max_clips_batch"]; ok {
		base.MaxClipsBatch = overlay.MaxClipsBatch
	}
	if _, ok := present["deduplicate"]; ok {
		base.Deduplicate = overlay.Deduplicate
	}
	if _, ok := present["own_clipboard"]; ok {
		base.OwnClipboard = overlay.OwnClipboard
	}
	if _, ok := present["partial_max_secs"]; ok {
		base.PartialMaxSecs = overlay.PartialMaxSecs
	}
	if _, ok := present["ignore_window"]; ok {
		base.IgnoreWindow = overlay.IgnoreWindow
	}

	return base
}

// ConfigPath returns the default config file path, $XDG_CONFIG_HOME/clipmenu/config.jsonc
// or $HOME/.config/clipmenu/config.jsonc.
func ConfigPath(env map[string]string) string {
	if dir := env["XDG_CONFIG_HOME"]; dir != "" {
		return filepath.Join(dir, "clipmenu", "config.jsonc")
	}
	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "clipmenu", "config.jsonc")
	}
	return ""
}
