package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// EnvConfigPath names the environment variable that overrides discovery.
const EnvConfigPath = "MARQUEE_CONFIG"

// Origin records how a config path was chosen.
type Origin string

const (
	OriginFlag    Origin = "flag"
	OriginEnv     Origin = "env"
	OriginWorkDir Origin = "workdir"
	OriginUser    Origin = "user"
	OriginSystem  Origin = "system"
)

// Source is a located config file.
type Source struct {
	Path   string
	Origin Origin
}

func (s Source) String() string {
	return fmt.Sprintf("%s (%s)", s.Path, s.Origin)
}

// userConfigPath returns $XDG_CONFIG_HOME/marquee/config.toml, falling back
// to ~/.config.
func userConfigPath() (string, bool) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "marquee", "config.toml"), true
}

// Locate picks the config file. An explicit path always wins and is not
// checked here; Load reports it if missing. Otherwise MARQUEE_CONFIG, then
// ./config.toml, the user config dir and /etc/marquee/config.toml are tried
// in that order.
func Locate(explicit string) (Source, error) {
	if explicit != "" {
		return Source{Path: explicit, Origin: OriginFlag}, nil
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		if _, err := os.Stat(p); err != nil {
			return Source{}, fmt.Errorf("%s=%s: %w", EnvConfigPath, p, err)
		}
		return Source{Path: p, Origin: OriginEnv}, nil
	}

	candidates := []Source{{Path: "./config.toml", Origin: OriginWorkDir}}
	if p, ok := userConfigPath(); ok {
		candidates = append(candidates, Source{Path: p, Origin: OriginUser})
	}
	candidates = append(candidates, Source{Path: "/etc/marquee/config.toml", Origin: OriginSystem})

	checked := make([]string, 0, len(candidates))
	for _, c := range candidates {
		_, err := os.Stat(c.Path)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return Source{}, fmt.Errorf("config %s: %w", c.Path, err)
		}
		checked = append(checked, c.Path)
	}
	return Source{}, fmt.Errorf("no config file found (checked %s); run \"marquee init\" or pass --config", strings.Join(checked, ", "))
}
