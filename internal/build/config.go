package build

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Darknessking13/neoshell/internal/errs"
)

// Config is the YAML build configuration consumed by the builder.
// Fields mirror spec.md §3 "Build configuration".
type Config struct {
	Name    string   `yaml:"name"`
	Version string   `yaml:"version"`
	Build   []string `yaml:"build"`
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
	Runtime struct {
		Cmd     []string          `yaml:"cmd"`
		WorkDir string            `yaml:"workDir"`
		Env     map[string]string `yaml:"env"`
	} `yaml:"runtime"`
}

// LoadConfig parses and validates a build YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New(errs.KindIO, "read build config "+path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errs.New(errs.KindConfig, "parse build config "+path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Name == "" {
		return errs.New(errs.KindConfig, "validate build config", errMissingField("name"))
	}
	if c.Version == "" {
		return errs.New(errs.KindConfig, "validate build config", errMissingField("version"))
	}
	if len(c.Runtime.Cmd) == 0 {
		return errs.New(errs.KindConfig, "validate build config", errMissingField("runtime.cmd"))
	}
	return nil
}

// OutputFilename derives the image filename spec.md's Scenario A
// expects: "<name>-<version>.nsi".
func (c *Config) OutputFilename() string {
	v := c.Version
	if v == "" {
		v = "0"
	}
	return c.Name + "-" + v + ".nsi"
}

type errMissingField string

func (e errMissingField) Error() string { return "missing required field " + string(e) }
