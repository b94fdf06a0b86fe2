package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bjornharrtell/json-api/logging"
	"gopkg.in/yaml.v3"
)

type marshaledLog struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Provider string `yaml:"provider" json:"provider"`
	File     string `yaml:"file" json:"file"`
}

type marshaledConfig struct {
	Endpoint    string            `yaml:"endpoint" json:"endpoint"`
	ConvertCase bool              `yaml:"convert_case" json:"convert_case"`
	Timeout     string            `yaml:"timeout" json:"timeout"`
	AtomicPath  string            `yaml:"atomic_path" json:"atomic_path"`
	Headers     map[string]string `yaml:"headers" json:"headers"`
	Log         marshaledLog      `yaml:"logging" json:"logging"`
}

// Load loads a configuration from a JSON or YAML file. The format of the file
// is determined by examining its extension; files ending in .json are parsed
// as JSON files, and files ending in .yaml or .yml are parsed as YAML files.
// Other extensions are not supported. The extension is not case-sensitive.
func Load(file string) (Config, error) {
	var cfg Config
	var mc marshaledConfig

	switch filepath.Ext(strings.ToLower(file)) {
	case ".json":
		data, err := os.ReadFile(file)
		if err != nil {
			return cfg, fmt.Errorf("%q: %w", file, err)
		}
		err = json.Unmarshal(data, &mc)
		if err != nil {
			return cfg, fmt.Errorf("%q: %w", file, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(file)
		if err != nil {
			return cfg, fmt.Errorf("%q: %w", file, err)
		}
		err = yaml.Unmarshal(data, &mc)
		if err != nil {
			return cfg, fmt.Errorf("%q: %w", file, err)
		}
	default:
		return cfg, fmt.Errorf("%q: incompatible format; must be .json, .yml, or .yaml file", file)
	}

	err := cfg.unmarshal(mc)
	return cfg, err
}

func (cfg *Config) unmarshal(mc marshaledConfig) error {
	cfg.Endpoint = mc.Endpoint
	cfg.ConvertCase = mc.ConvertCase
	cfg.AtomicPath = mc.AtomicPath
	cfg.Headers = mc.Headers

	if mc.Timeout != "" {
		timeout, err := time.ParseDuration(mc.Timeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = timeout
	}

	prov, err := logging.ParseProvider(mc.Log.Provider)
	if err != nil {
		return fmt.Errorf("logging: provider: %w", err)
	}
	cfg.Log = Log{
		Enabled:  mc.Log.Enabled,
		Provider: prov,
		File:     mc.Log.File,
	}

	return nil
}
