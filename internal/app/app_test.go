package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spectriclabs/guppi-data-service/internal/api"
	"github.com/spectriclabs/guppi-data-service/internal/cache"
	"github.com/spectriclabs/guppi-data-service/internal/config"
)

func TestParseCLI(t *testing.T) {
	cfg, err := ParseCLI(nil)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 5055, cfg.Port)
	assert.Equal(t, "./gdsConfig.json", cfg.ConfigFile)
	assert.True(t, cfg.UseCache)
	assert.Equal(t, 60, cfg.CachePollingInterval)

	cfg, err = ParseCLI([]string{"-p", "8080", "--debug", "--use-cache=false", "-c", "other.json"})
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.Debug)
	assert.False(t, cfg.UseCache)
	assert.Equal(t, "other.json", cfg.ConfigFile)

	_, err = ParseCLI([]string{"--cache-polling-interval", "0"})
	assert.Error(t, err)
	_, err = ParseCLI([]string{"--no-such-flag"})
	assert.Error(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gdsConfig.json")
	body := `{"location_details":[{"location_name":"TestDir","location_type":"localFile","path":"` + dir + `"}],"format":{"direct_io_policy":"bogus"}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg := config.Config{ConfigFile: path}
	assert.Error(t, LoadConfigFile(&cfg))

	body = strings.Replace(body, "bogus", "strict", 1)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	require.NoError(t, LoadConfigFile(&cfg))
	require.Len(t, cfg.LocationDetails, 1)
	assert.Equal(t, "TestDir", cfg.LocationDetails[0].LocationName)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(true, config.LogConfig{})
	require.NoError(t, err)
	logger.Debug("console only")

	logFile := filepath.Join(t.TempDir(), "logs", "gds.log")
	logger, err = NewLogger(false, config.LogConfig{File: logFile, MaxSizeMB: 1})
	require.NoError(t, err)
	logger.Info("rotated", zap.String("unit", "test"))
	logger.Debug("dropped")
	_ = logger.Sync()

	body, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"msg":"rotated"`)
	assert.Contains(t, string(body), `"unit":"test"`)
	assert.NotContains(t, string(body), "dropped")
}

func TestSetupServer(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{
		LocationDetails: []config.Location{
			{LocationName: "TestDir", LocationType: config.LocationLocalFile, Path: dir},
		},
	}
	e := SetupServer(api.NewGDSAPI(&cfg, zap.NewNop()))

	paths := make(map[string]bool)
	for _, route := range e.Routes() {
		paths[route.Path] = true
	}
	for _, path := range []string{"/gds/fs", "/gds/fs/:location/*", "/gds/hdr/:location/*", "/gds/block/:location/:index/*", "/gds/rds/:location/:index/*"} {
		assert.True(t, paths[path], path)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gds/fs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var locations []config.Location
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &locations))
	assert.Equal(t, cfg.LocationDetails, locations)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "guppi_data_service")
}

func TestSetupCache(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{CacheLocation: dir, CachePollingInterval: 60, CacheMaxBytes: 1 << 20}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, SetupCache(ctx, cache.New(dir, nil), &cfg))
	for _, sub := range cacheDirs {
		info, err := os.Stat(filepath.Join(dir, sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
