package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Loaded is the result of Load: where the config came from and what it said.
type Loaded struct {
	Path     string
	Exists   bool
	Config   Config
	Warnings []Warning
}

// Load resolves the config path and reads it with LoadFile.
func Load(explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}
	return LoadFile(path)
}

// LoadFile parses path over Default. A missing file is not an error: the
// defaults are returned with a warning.
func LoadFile(path string) (Loaded, error) {
	loaded := Loaded{Path: path, Config: Default()}

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", path),
		})
		return loaded, nil
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	}

	cfg, warnings, err := Parse(string(content), FormatForPath(path), loaded.Config)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	loaded.Exists = true
	loaded.Config = cfg
	loaded.Warnings = warnings
	return loaded, nil
}
