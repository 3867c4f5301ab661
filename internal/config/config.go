package config

import (
	"fmt"

	"github.com/spectriclabs/guppi-data-service/internal/guppi"
)

const (
	LocationLocalFile = "localFile"
	LocationMinio     = "minio"
)

type Config struct {
	Host                 string     `json:"host,omitempty" yaml:"host"`
	Port                 int        `json:"port,omitempty" yaml:"port"`
	Debug                bool       `json:"debug,omitempty" yaml:"debug"`
	ConfigFile           string     `json:"config_file,omitempty" yaml:"config_file"`
	UseCache             bool       `json:"use_cache,omitempty" yaml:"use_cache"`
	CacheLocation        string     `json:"cache_location,omitempty" yaml:"cache_location"`
	CachePollingInterval int        `json:"cache_polling_interval,omitempty" yaml:"cache_polling_interval"`
	CacheMaxBytes        int64      `json:"cache_max_bytes,omitempty" yaml:"cache_max_bytes"`
	LocationDetails      []Location `json:"location_details,omitempty" yaml:"location_details"`
	Format               Format     `json:"format" yaml:"format"`
	Logs                 LogConfig  `json:"logs" yaml:"logs"`
}

type Location struct {
	LocationName   string `json:"location_name" yaml:"location_name"`
	LocationType   string `json:"location_type" yaml:"location_type"`
	Path           string `json:"path,omitempty" yaml:"path"`
	MinioBucket    string `json:"minio_bucket,omitempty" yaml:"minio_bucket"`
	Location       string `json:"location,omitempty" yaml:"location"`
	MinioAccessKey string `json:"minio_access_key,omitempty" yaml:"minio_access_key"`
	MinioSecretKey string `json:"minio_secret_key,omitempty" yaml:"minio_secret_key"`
	MinioSecure    bool   `json:"minio_secure,omitempty" yaml:"minio_secure"`
}

// Format holds the GUPPI decoding choices that captures disagree on.
type Format struct {
	DirectIOPolicy            string `json:"direct_io_policy,omitempty" yaml:"direct_io_policy"`
	ComponentsPerPolarization int    `json:"components_per_polarization,omitempty" yaml:"components_per_polarization"`
	BlockPadding              bool   `json:"block_padding,omitempty" yaml:"block_padding"`
	MaxHeaderUnits            int    `json:"max_header_units,omitempty" yaml:"max_header_units"`
}

const DefaultMaxHeaderUnits = 16

// LogConfig enables a rotated log file next to the console log.
type LogConfig struct {
	File       string `json:"file,omitempty" yaml:"file"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max_size_mb"`
	MaxAgeDays int    `json:"max_age_days,omitempty" yaml:"max_age_days"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups"`
	Compress   bool   `json:"compress,omitempty" yaml:"compress"`
}

// FindLocation returns the configured location called name.
func (c *Config) FindLocation(name string) (Location, bool) {
	for _, loc := range c.LocationDetails {
		if loc.LocationName == name {
			return loc, true
		}
	}
	return Location{}, false
}

func (c *Config) Validate() error {
	if _, err := guppi.ParseDirectIOPolicy(c.Format.DirectIOPolicy); err != nil {
		return err
	}
	switch c.Format.ComponentsPerPolarization {
	case 0, 1, 2:
	default:
		return fmt.Errorf("components_per_polarization must be 1 or 2, got %d", c.Format.ComponentsPerPolarization)
	}
	if c.Format.MaxHeaderUnits < 0 {
		return fmt.Errorf("max_header_units must not be negative, got %d", c.Format.MaxHeaderUnits)
	}
	if c.Logs.MaxSizeMB < 0 || c.Logs.MaxAgeDays < 0 || c.Logs.MaxBackups < 0 {
		return fmt.Errorf("log rotation limits must not be negative")
	}
	seen := make(map[string]bool)
	for _, loc := range c.LocationDetails {
		if loc.LocationName == "" {
			return fmt.Errorf("location without a location_name")
		}
		if seen[loc.LocationName] {
			return fmt.Errorf("duplicate location %s", loc.LocationName)
		}
		seen[loc.LocationName] = true
		switch loc.LocationType {
		case LocationLocalFile:
			if loc.Path == "" {
				return fmt.Errorf("location %s: localFile needs a path", loc.LocationName)
			}
		case LocationMinio:
			if loc.Location == "" || loc.MinioBucket == "" {
				return fmt.Errorf("location %s: minio needs location and minio_bucket", loc.LocationName)
			}
		default:
			return fmt.Errorf("location %s: unsupported location type %s", loc.LocationName, loc.LocationType)
		}
	}
	return nil
}

// ReaderOptions translates the format settings into guppi reader options.
func (c *Config) ReaderOptions() ([]guppi.Option, error) {
	policy, err := guppi.ParseDirectIOPolicy(c.Format.DirectIOPolicy)
	if err != nil {
		return nil, err
	}
	geometry := guppi.GeometryOptions{ComponentsPerPolarization: c.Format.ComponentsPerPolarization}
	return []guppi.Option{
		guppi.WithCodec(guppi.Codec{DirectIO: policy}),
		guppi.WithGeometryOptions(geometry),
		guppi.WithBlockPadding(c.Format.BlockPadding),
	}, nil
}

func (c *Config) MaxHeaderUnits() int {
	if c.Format.MaxHeaderUnits == 0 {
		return DefaultMaxHeaderUnits
	}
	return c.Format.MaxHeaderUnits
}
