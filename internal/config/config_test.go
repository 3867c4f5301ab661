package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gdsConfigString = `{
  "location_details": [
    {"location_name": "ServiceDir", "location_type": "localFile", "path": "./"},
    {"location_name": "minio", "location_type": "minio", "minio_bucket": "gdsdata", "location": "192.168.1.229:9000", "minio_access_key": "minio", "minio_secret_key": "miniostorage"}
  ],
  "format": {"direct_io_policy": "contains", "components_per_polarization": 2, "block_padding": true}
}`

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdsConfig.json")
	require.NoError(t, os.WriteFile(path, []byte(gdsConfigString), 0644))

	file, err := LoadFile(path)
	require.NoError(t, err)

	var cfg Config
	require.NoError(t, file.Apply(&cfg))
	require.Len(t, cfg.LocationDetails, 2)
	assert.Equal(t, "gdsdata", cfg.LocationDetails[1].MinioBucket)
	assert.Equal(t, "contains", cfg.Format.DirectIOPolicy)
	assert.Equal(t, 2, cfg.Format.ComponentsPerPolarization)
	opts, err := cfg.ReaderOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 3)
	assert.Equal(t, DefaultMaxHeaderUnits, cfg.MaxHeaderUnits())

	loc, ok := cfg.FindLocation("ServiceDir")
	assert.True(t, ok)
	assert.Equal(t, LocationLocalFile, loc.LocationType)
	_, ok = cfg.FindLocation("nowhere")
	assert.False(t, ok)
}

var gdsConfigYAML = `
location_details:
  - location_name: ServiceDir
    location_type: localFile
    path: ./
format:
  direct_io_policy: strict
  max_header_units: 4
logs:
  file: /var/log/gds/gds.log
  max_size_mb: 50
  compress: true
`

func TestLoadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdsConfig.yaml")
	require.NoError(t, os.WriteFile(path, []byte(gdsConfigYAML), 0644))

	file, err := LoadFile(path)
	require.NoError(t, err)

	var cfg Config
	require.NoError(t, file.Apply(&cfg))
	require.Len(t, cfg.LocationDetails, 1)
	assert.Equal(t, "./", cfg.LocationDetails[0].Path)
	assert.Equal(t, 4, cfg.MaxHeaderUnits())
	assert.Equal(t, "/var/log/gds/gds.log", cfg.Logs.File)
	assert.Equal(t, 50, cfg.Logs.MaxSizeMB)
	assert.True(t, cfg.Logs.Compress)

	require.NoError(t, os.WriteFile(path, []byte("format:\n  direct_io: 1\n"), 0644))
	_, err = LoadFile(path)
	assert.Error(t, err)
}

func TestReaderOptionsUnvalidated(t *testing.T) {
	cfg := Config{Format: Format{DirectIOPolicy: "sometimes"}}
	_, err := cfg.ReaderOptions()
	assert.Error(t, err)

	cfg.Format.DirectIOPolicy = "contains"
	opts, err := cfg.ReaderOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 3)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	expected := []struct {
		Name  string
		Cfg   Config
		Valid bool
	}{
		{Name: "empty", Cfg: Config{}, Valid: true},
		{Name: "bad policy", Cfg: Config{Format: Format{DirectIOPolicy: "sometimes"}}},
		{Name: "bad multiplier", Cfg: Config{Format: Format{ComponentsPerPolarization: 4}}},
		{Name: "negative max units", Cfg: Config{Format: Format{MaxHeaderUnits: -1}}},
		{Name: "negative log backups", Cfg: Config{Logs: LogConfig{MaxBackups: -1}}},
		{Name: "local without path", Cfg: Config{LocationDetails: []Location{{LocationName: "a", LocationType: LocationLocalFile}}}},
		{Name: "minio without bucket", Cfg: Config{LocationDetails: []Location{{LocationName: "a", LocationType: LocationMinio, Location: "host:9000"}}}},
		{Name: "unknown type", Cfg: Config{LocationDetails: []Location{{LocationName: "a", LocationType: "ftp"}}}},
		{Name: "duplicate", Cfg: Config{LocationDetails: []Location{
			{LocationName: "a", LocationType: LocationLocalFile, Path: "/a"},
			{LocationName: "a", LocationType: LocationLocalFile, Path: "/b"},
		}}},
	}
	for _, exp := range expected {
		err := exp.Cfg.Validate()
		if exp.Valid {
			assert.NoError(t, err, exp.Name)
		} else {
			assert.Error(t, err, exp.Name)
		}
	}
}
