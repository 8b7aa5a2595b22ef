// Package config loads the optional .pinyinrc configuration file that
// lets a user avoid repeating --lexicon/--params on every invocation.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
)

// Config holds the defaults a CLI invocation falls back to when the
// corresponding flag is absent.
type Config struct {
	Lexicon  string `json:"lexicon,omitempty"`
	Params   string `json:"params,omitempty"`
	BeamSize int    `json:"beam_size,omitempty"`
	K        int    `json:"k,omitempty"`

	Sources Sources `json:"-"`
}

// Sources tracks which config files were loaded, for diagnostics.
type Sources struct {
	Global  string
	Project string
}

// FileName is the default project config file name.
const FileName = ".pinyinrc"

// LoadInput holds the inputs to Load.
type LoadInput struct {
	WorkDir    string // project directory to look for FileName in
	ConfigPath string // explicit --config flag value; must exist if set
	Env        map[string]string
}

// Load resolves configuration with the following precedence (highest
// wins): defaults, global user config
// ($XDG_CONFIG_HOME/pyhmm/config.json or ~/.config/pyhmm/config.json),
// project config. The project config is the explicit --config file when
// one is given, and .pinyinrc in WorkDir otherwise; when --config is
// set, .pinyinrc is not read.
func Load(input LoadInput) (Config, error) {
	cfg := Config{}

	globalCfg, globalPath, err := loadGlobal(input.Env)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Global = globalPath
	cfg = merge(cfg, globalCfg)

	projectCfg, projectPath, err := loadProject(input.WorkDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = merge(cfg, projectCfg)

	return cfg, nil
}

func globalPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "pyhmm", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "pyhmm", "config.json")
	}

	return ""
}

func loadGlobal(env map[string]string) (Config, string, error) {
	path := globalPath(env)
	if path == "" {
		return Config{}, "", nil
	}

	cfg, loaded, err := loadFile(path, false)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return cfg, path, nil
}

func loadProject(workDir, explicitPath string) (Config, string, error) {
	var path string

	mustExist := explicitPath != ""

	if mustExist {
		path = explicitPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}

		if _, err := os.Stat(path); err != nil {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, explicitPath)
		}
	} else {
		path = filepath.Join(workDir, FileName)
	}

	cfg, loaded, err := loadFile(path, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return cfg, path, nil
}

func loadFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	var cfg Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return cfg, true, nil
}

func merge(base, overlay Config) Config {
	if overlay.Lexicon != "" {
		base.Lexicon = overlay.Lexicon
	}

	if overlay.Params != "" {
		base.Params = overlay.Params
	}

	if overlay.BeamSize != 0 {
		base.BeamSize = overlay.BeamSize
	}

	if overlay.K != 0 {
		base.K = overlay.K
	}

	return base
}
