package view

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unsupported view file %s: want .yaml, .yml or .toml", path)
}

// Decode parses a view document. Times are converted to UTC so that views
// written with local dates compare equal to ones written with offsets.
func Decode(data []byte, f Format) (*View, error) {
	var v View
	switch f {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("failed to decode yaml view: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &v)
		if err != nil {
			return nil, fmt.Errorf("failed to decode toml view: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("failed to decode toml view: unknown key %s", undecoded[0])
		}
	default:
		return nil, fmt.Errorf("unknown view format %q", f)
	}
	for i := range v.Tasks {
		v.Tasks[i].Start = v.Tasks[i].Start.UTC()
		v.Tasks[i].End = v.Tasks[i].End.UTC()
	}
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return &v, nil
}

func Encode(v *View, f Format) ([]byte, error) {
	buf := &bytes.Buffer{}
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("failed to encode yaml view: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode yaml view: %w", err)
		}
	case FormatTOML:
		if err := toml.NewEncoder(buf).Encode(v); err != nil {
			return nil, fmt.Errorf("failed to encode toml view: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown view format %q", f)
	}
	return buf.Bytes(), nil
}
