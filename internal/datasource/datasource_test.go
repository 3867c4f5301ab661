package datasource

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spectriclabs/guppi-data-service/internal/cache"
	"github.com/spectriclabs/guppi-data-service/internal/config"
)

func testConfig(dir string) *config.Config {
	return &config.Config{
		LocationDetails: []config.Location{
			{LocationName: "TestDir", LocationType: config.LocationLocalFile, Path: dir},
		},
	}
}

func TestOpenLocal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "obs.raw"), []byte("payload"), 0o644))

	cfg := testConfig(dir)
	rc, err := OpenDataSource(context.Background(), cfg, cache.New(dir, nil), zap.NewNop(), "TestDir", "obs.raw")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestOpenCompressed(t *testing.T) {
	dir := t.TempDir()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll([]byte("compressed payload"), nil)
	require.NoError(t, enc.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "obs.raw.zst"), compressed, 0o644))

	cfg := testConfig(dir)
	rc, err := OpenDataSource(context.Background(), cfg, cache.New(dir, nil), zap.NewNop(), "TestDir", "obs.raw.zst")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "compressed payload", string(data))
}

func TestOpenUnknownLocation(t *testing.T) {
	cfg := testConfig(t.TempDir())
	_, err := OpenDataSource(context.Background(), cfg, nil, zap.NewNop(), "Nowhere", "obs.raw")
	assert.ErrorIs(t, err, ErrUnknownLocation)
}

func TestLocalPathStaysInLocation(t *testing.T) {
	loc := config.Location{Path: "/data"}
	assert.Equal(t, filepath.FromSlash("/data/obs.raw"), LocalPath(loc, "../../obs.raw"))
	assert.Equal(t, filepath.FromSlash("/data/sub/obs.raw"), LocalPath(loc, "sub/obs.raw"))
}
