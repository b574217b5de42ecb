package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// legacyDocument is the object form written by earlier releases.
type legacyDocument struct {
	WatcherRows []Entry `json:"watcher_rows"`
	Entries     []Entry `json:"entries"`
	AllWatching bool    `json:"all_watching"`
}

// tomlDocument wraps entries because TOML has no top-level arrays.
type tomlDocument struct {
	Entries []Entry `toml:"entries"`
}

func decode(f Format, data []byte) ([]Entry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Entry{}, nil
	}

	switch f {
	case YAML:
		var entries []Entry
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("yaml: %w", err)
		}
		return entries, nil

	case TOML:
		var doc tomlDocument
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("toml: %w", err)
		}
		return doc.Entries, nil

	default:
		return decodeJSON(data)
	}
}

// decodeJSON accepts the array form and the legacy object form.
func decodeJSON(data []byte) ([]Entry, error) {
	trimmed := bytes.TrimSpace(data)
	if trimmed[0] == '{' {
		var doc legacyDocument
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
		if doc.WatcherRows != nil {
			return doc.WatcherRows, nil
		}
		return doc.Entries, nil
	}

	var entries []Entry
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return entries, nil
}

func encode(f Format, entries []Entry) ([]byte, error) {
	switch f {
	case YAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return nil, fmt.Errorf("yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("yaml: %w", err)
		}
		return buf.Bytes(), nil

	case TOML:
		data, err := toml.Marshal(tomlDocument{Entries: entries})
		if err != nil {
			return nil, fmt.Errorf("toml: %w", err)
		}
		return data, nil

	default:
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
		return append(data, '\n'), nil
	}
}
