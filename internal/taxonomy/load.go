package taxonomy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load decodes a YAML configuration, applies defaults and validates it.
// Unknown fields are rejected.
func Load(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidTaxonomy)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidTaxonomy, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads a configuration from path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied config path
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file: %w", err)
	}
	cfg, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Resolve loads path when it is set, otherwise the named preset.
func Resolve(path, preset string) (*Config, error) {
	if path != "" {
		return LoadFile(path)
	}
	return Preset(preset)
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode taxonomy: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode taxonomy: %w", err)
	}
	return buf.Bytes(), nil
}
