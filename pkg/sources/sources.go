// Package sources loads VIN lists for the harvester from pluggable sources
// declared in a YAML or JSON registry file.
package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Source is one registry entry.
type Source struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Type           string         `json:"type" yaml:"type"`
	Location       string         `json:"location" yaml:"location"`
	RequestDelayMs int            `json:"request_delay_ms" yaml:"request_delay_ms"`
	Config         map[string]any `json:"config" yaml:"config"`
}

type registryFile struct {
	Sources []Source `json:"sources" yaml:"sources"`
}

const defaultRequestDelayMs = 250

// Registry holds the validated sources from a registry file.
type Registry struct {
	mu      sync.RWMutex
	sources []Source
	idx     map[string]Source
}

// LoadRegistry loads the sources registry from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sources file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	parsed, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewRegistry(parsed.Sources...)
}

// NewRegistry sanitizes and validates sources. Ids must be unique.
func NewRegistry(srcs ...Source) (*Registry, error) {
	if len(srcs) == 0 {
		return nil, errors.New("sources file contains no sources entries")
	}

	reg := &Registry{
		sources: make([]Source, 0, len(srcs)),
		idx:     make(map[string]Source, len(srcs)),
	}
	for i := range srcs {
		src := sanitizeSource(srcs[i])
		if err := validateSource(src); err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		if _, exists := reg.idx[src.ID]; exists {
			return nil, fmt.Errorf("duplicate source id %q", src.ID)
		}
		reg.sources = append(reg.sources, src)
		reg.idx[src.ID] = src
	}
	return reg, nil
}

// All returns a copy of the configured sources in file order.
func (r *Registry) All() []Source {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// byID returns the source entry for the given id.
func (r *Registry) byID(id string) (Source, bool) {
	if r == nil {
		return Source{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Source{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.idx[id]
	return src, ok
}

type unmarshalFn func([]byte, any) error

func parseRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg registryFile
		if err := d.fn(data, &reg); err == nil {
			return reg, nil
		}
	}

	return registryFile{}, errors.New("sources file format not recognized (expected YAML or JSON)")
}

func sanitizeSource(s Source) Source {
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
	s.Type = strings.ToLower(strings.TrimSpace(s.Type))
	s.Location = strings.TrimSpace(s.Location)

	if s.Name == "" {
		s.Name = s.ID
	}
	if s.Config == nil {
		s.Config = map[string]any{}
	}
	if s.RequestDelayMs <= 0 {
		s.RequestDelayMs = defaultRequestDelayMs
	}
	return s
}

func validateSource(s Source) error {
	if s.ID == "" {
		return errors.New("id is required")
	}
	if s.Type == "" {
		return fmt.Errorf("type is required for source %q", s.ID)
	}
	if s.Type != TypeStatic && s.Location == "" {
		return fmt.Errorf("location is required for source %q", s.ID)
	}
	return nil
}

// RequestDelay returns the pause between batch requests for this source.
func (s Source) RequestDelay() time.Duration {
	if s.RequestDelayMs <= 0 {
		return time.Duration(defaultRequestDelayMs) * time.Millisecond
	}
	return time.Duration(s.RequestDelayMs) * time.Millisecond
}
