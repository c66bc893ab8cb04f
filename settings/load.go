package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrUnknownFormat = errors.New("unknown parameter file format")

// Format is a parameter file encoding chosen by file extension.
type Format string

const (
	TOML Format = "toml"
	YAML Format = "yaml"
	JSON Format = "json"
)

func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

// Load reads a parameter file on top of Defaults. Keys missing from the file
// keep their default values and the result is clamped.
func Load(path string) (RenderParams, error) {
	format, err := FormatOf(path)
	if err != nil {
		return RenderParams{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return RenderParams{}, fmt.Errorf("read params: %w", err)
	}
	p, err := Decode(data, format, Defaults())
	if err != nil {
		return RenderParams{}, fmt.Errorf("params %q: %w", path, err)
	}
	return p, nil
}

// Decode overlays data onto base.
func Decode(data []byte, format Format, base RenderParams) (RenderParams, error) {
	p := base
	var err error
	switch format {
	case TOML:
		err = toml.Unmarshal(data, &p)
	case YAML:
		err = yaml.Unmarshal(data, &p)
	case JSON:
		err = json.Unmarshal(data, &p)
	default:
		return base, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return base, err
	}
	return p.Clamp(), nil
}

// ApplyJSON overlays a partial JSON object onto p, as sent by remote clients.
func ApplyJSON(p RenderParams, patch []byte) (RenderParams, error) {
	trimmed := bytes.TrimSpace(patch)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return p, fmt.Errorf("params patch must be a JSON object")
	}
	return Decode(trimmed, JSON, p)
}

// Encode writes p in the given format.
func Encode(w io.Writer, p RenderParams, format Format) error {
	switch format {
	case TOML:
		return toml.NewEncoder(w).Encode(p)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}
