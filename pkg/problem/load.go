package problem

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	apperr "github.com/matzehuels/antpack/pkg/errors"
)

// Format is a problem file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", apperr.New(apperr.ErrCodeUnsupported, "unsupported problem file extension %q (want .toml, .yaml, .yml or .json)", filepath.Ext(path))
}

// Load reads, decodes and resolves the problem file at path.
func Load(path string) (*Problem, error) {
	if err := apperr.ValidatePath(path); err != nil {
		return nil, err
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperr.Wrap(apperr.ErrCodeFileNotFound, err, "problem file %s", path)
	}
	if err != nil {
		return nil, err
	}

	f, err := Decode(data, format)
	if err != nil {
		return nil, apperr.Wrap(apperr.GetCode(err), err, "load %s", path)
	}
	p, err := f.Resolve()
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// Decode parses data in the given format. Unknown keys are an
// INVALID_FORMAT error.
func Decode(data []byte, format Format) (*File, error) {
	var f File
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeInvalidFormat, err, "decode toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return nil, apperr.New(apperr.ErrCodeInvalidFormat, "unknown keys: %s", strings.Join(keys, ", "))
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeInvalidFormat, err, "decode yaml")
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeInvalidFormat, err, "decode json")
		}
	default:
		return nil, apperr.New(apperr.ErrCodeUnsupported, "unsupported format %q", format)
	}
	return &f, nil
}

// Encode writes f in the given format.
func Encode(f File, format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(f); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatYAML:
		return yaml.Marshal(f)
	case FormatJSON:
		return json.MarshalIndent(f, "", "  ")
	}
	return nil, apperr.New(apperr.ErrCodeUnsupported, "unsupported format %q", format)
}
