// Package config persists the list of watched directories.
//
// The file is human-editable and rewritten whole on every change. The format
// follows the file extension: JSON (default), YAML (.yaml, .yml) or TOML
// (.toml). Only path, commands and is_watching are stored; timestamps and
// running watches are rebuilt at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPath is the config file used when none is given.
const DefaultPath = "config.json"

// DefaultCommand is the placeholder command of a new entry.
const DefaultCommand = "notify-send 'Change detected' 'A change was detected.'"

// Entry is the persisted form of one watched directory.
type Entry struct {
	Path       string   `json:"path"        yaml:"path"        toml:"path"`
	Commands   []string `json:"commands"    yaml:"commands"    toml:"commands"`
	IsWatching bool     `json:"is_watching" yaml:"is_watching" toml:"is_watching"`
}

// Format identifies an on-disk encoding.
type Format int

const (
	// JSON is the default format.
	JSON Format = iota
	// YAML is selected by .yaml and .yml.
	YAML
	// TOML is selected by .toml.
	TOML
)

func (f Format) String() string {
	switch f {
	case YAML:
		return "yaml"
	case TOML:
		return "toml"
	default:
		return "json"
	}
}

// FormatFor returns the format selected by path's extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	case ".toml":
		return TOML
	default:
		return JSON
	}
}

// Normalize returns a copy of entries in which every entry has at least one
// command. Blank command strings are kept so in-progress edits survive.
func Normalize(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		cmds := append([]string(nil), e.Commands...)
		if len(cmds) == 0 {
			cmds = []string{DefaultCommand}
		}
		out = append(out, Entry{Path: e.Path, Commands: cmds, IsWatching: e.IsWatching})
	}
	return out
}

// Load reads entries from path. A missing or unreadable file yields an empty
// configuration together with the error, so callers can log it and carry on.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is the user's config file
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Entry{}, fmt.Errorf("config %s not found: %w", path, err)
		}
		return []Entry{}, fmt.Errorf("read config %s: %w", path, err)
	}

	entries, err := decode(FormatFor(path), data)
	if err != nil {
		return []Entry{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return Normalize(entries), nil
}

// Save writes entries to path, replacing the previous file atomically.
func Save(path string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := encode(FormatFor(path), entries)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create config dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close config: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // config is meant to be human-editable
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace config %s: %w", path, err)
	}
	return nil
}

// Store binds Load and Save to one file path.
type Store struct {
	path string
}

// NewStore returns a Store for path; empty selects DefaultPath.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads the backing file.
func (s *Store) Load() ([]Entry, error) { return Load(s.path) }

// Save rewrites the backing file.
func (s *Store) Save(entries []Entry) error { return Save(s.path, entries) }
