package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the YAML form of a set of model configs.
// Callbacks cannot be expressed in YAML; attach them with Configure before building the registry.
type Manifest struct {
	Models []Config `yaml:"models"`
}

// LoadManifest decodes a manifest. Unknown keys are rejected.
func LoadManifest(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return &m, nil
		}
		return nil, errors.Join(ErrInvalidManifest, err)
	}
	return &m, nil
}

// LoadManifestFile reads and decodes the manifest at path.
func LoadManifestFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidManifest, err)
	}
	return LoadManifest(bytes.NewReader(data))
}

// Configure calls fn with the config of the named model.
func (m *Manifest) Configure(name string, fn func(c *Config)) error {
	for i := range m.Models {
		if m.Models[i].Name == name {
			fn(&m.Models[i])
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownModel, name)
}

// Registry builds a registry from the manifest.
func (m *Manifest) Registry() (*Registry, error) {
	return NewRegistry(m.Models...)
}
