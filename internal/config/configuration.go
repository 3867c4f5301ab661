package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tkanos/gonfig"
	"gopkg.in/yaml.v3"
)

// Configuration is the shape of the configuration file.
type Configuration struct {
	LocationDetails []Location `json:"location_details" yaml:"location_details"`
	Format          Format     `json:"format" yaml:"format"`
	Logs            LogConfig  `json:"logs" yaml:"logs"`
}

// LoadFile reads the configuration file. Files ending in .yaml or .yml are
// YAML, anything else JSON.
func LoadFile(path string) (Configuration, error) {
	var configuration Configuration
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return Configuration{}, err
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&configuration); err != nil {
			return Configuration{}, err
		}
	default:
		if err := gonfig.GetConf(path, &configuration); err != nil {
			return Configuration{}, err
		}
	}
	return configuration, nil
}

// Apply copies the file settings into cfg and validates the result.
func (f Configuration) Apply(cfg *Config) error {
	cfg.LocationDetails = f.LocationDetails
	cfg.Format = f.Format
	cfg.Logs = f.Logs
	return cfg.Validate()
}
