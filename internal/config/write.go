package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"
)

//go:embed default_config.toml.tmpl
var defaultConfigTmpl string

var defaultTemplate = template.Must(template.New("config").Funcs(template.FuncMap{
	"duration": formatDuration,
	"float":    formatFloat,
}).Parse(defaultConfigTmpl))

// formatDuration drops the zero minute and second units time.Duration
// prints, so 24h renders as "24h" rather than "24h0m0s".
func formatDuration(d time.Duration) string {
	s := d.String()
	if strings.HasSuffix(s, "m0s") {
		s = s[:len(s)-2]
	}
	if strings.HasSuffix(s, "h0m") {
		s = s[:len(s)-2]
	}
	return s
}

// formatFloat keeps a decimal point so TOML decodes the value as a float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// RenderDefault renders the commented config file for Default().
func RenderDefault() ([]byte, error) {
	var buf bytes.Buffer
	if err := defaultTemplate.Execute(&buf, Default()); err != nil {
		return nil, fmt.Errorf("render default config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteDefault writes the default config to path, creating parent
// directories as needed.
func WriteDefault(path string) error {
	data, err := RenderDefault()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
