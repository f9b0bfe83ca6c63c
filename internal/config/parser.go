package config

import (
	"path/filepath"
	"strings"
)

// File formats understood by Parse.
const (
	FormatJSONC = "jsonc"
	FormatYAML  = "yaml"
)

// FormatForPath picks the parser for path by extension. Anything that is not
// .yaml or .yml is treated as JSONC.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSONC
	}
}

// Parse applies content in the given format over base and validates the result.
// Empty content validates and returns base unchanged.
func Parse(content string, format string, base Config) (Config, []Warning, error) {
	if strings.TrimSpace(content) == "" {
		warnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, warnings, nil
	}

	var (
		payload fileConfig
		err     error
	)
	if format == FormatYAML {
		payload, err = decodeYAML(content)
	} else {
		payload, err = decodeJSONC(content)
	}
	if err != nil {
		return Config{}, nil, err
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}
