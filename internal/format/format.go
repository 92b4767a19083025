package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Formatter abstracts output formatting.
type Formatter interface {
	Write(w io.Writer, payload any) error
}

// JSONFormatter writes JSON output.
type JSONFormatter struct {
	Indent bool
}

// Write writes JSON payload to a writer.
func (f JSONFormatter) Write(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(payload)
}

// YAMLFormatter writes YAML output.
type YAMLFormatter struct{}

// Write writes YAML payload to a writer.
func (f YAMLFormatter) Write(w io.Writer, payload any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(payload); err != nil {
		return err
	}
	return enc.Close()
}

// ForName returns the structured formatter for name. Text output has no
// formatter; callers render it themselves.
func ForName(name string) (Formatter, bool, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text":
		return nil, false, nil
	case "json":
		return JSONFormatter{Indent: true}, true, nil
	case "yaml", "yml":
		return YAMLFormatter{}, true, nil
	default:
		return nil, false, fmt.Errorf("unknown output format %q (want text, json or yaml)", name)
	}
}
