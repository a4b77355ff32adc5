package config

import (
	"fmt"
	"strings"
)

// ConfigError reports every problem found while loading one config file.
type ConfigError struct {
	Path     string
	EnvFiles []string // .env files read before substitution
	Unset    []string // ${VAR} references with no value
	Required []string // failed ${VAR:?message} references as "VAR: message"
	Errors   []string // validation errors
}

func (e *ConfigError) Error() string {
	if !e.HasErrors() {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "config %s", e.Path)
	if len(e.EnvFiles) > 0 {
		fmt.Fprintf(&b, " (with %s)", strings.Join(e.EnvFiles, ", "))
	}
	b.WriteString(":")

	if len(e.Unset) > 0 {
		fmt.Fprintf(&b, "\nunset environment variables: %s", strings.Join(e.Unset, ", "))
	}
	writeList(&b, "required environment variables:", e.Required)
	writeList(&b, "validation failed:", e.Errors)
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n" + title)
	for _, it := range items {
		b.WriteString("\n  - " + it)
	}
}

// HasErrors reports whether anything went wrong.
func (e *ConfigError) HasErrors() bool {
	return len(e.Unset) > 0 || len(e.Required) > 0 || len(e.Errors) > 0
}
