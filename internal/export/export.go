// Package export writes and reads record sets as JSON or YAML, keyed by
// record id.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/idilsaglam/usertodo/internal/model"
)

// Formats accepted by Write and Read.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatFromPath guesses the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) string {
	p := strings.ToLower(path)
	if strings.HasSuffix(p, ".yaml") || strings.HasSuffix(p, ".yml") {
		return FormatYAML
	}
	return FormatJSON
}

// Write encodes records to w.
func Write(w io.Writer, records model.Records, format string) error {
	if records == nil {
		records = model.Records{}
	}
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("json encode: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("yaml encode: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q: must be json or yaml", format)
}

// Read decodes records from r.
func Read(r io.Reader, format string) (model.Records, error) {
	var out model.Records
	switch format {
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(&out); err != nil {
			return nil, fmt.Errorf("json decode: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&out); err != nil {
			return nil, fmt.Errorf("yaml decode: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q: must be json or yaml", format)
	}
	if out == nil {
		out = model.Records{}
	}
	return out, nil
}
