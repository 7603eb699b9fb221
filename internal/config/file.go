package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile merges a YAML configuration file into cfg. Fields absent from the
// file keep their current values.
func LoadFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	return decoder.Decode(cfg)
}
