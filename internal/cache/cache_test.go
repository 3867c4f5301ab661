package cache

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUrlToCacheFileName(t *testing.T) {
	expected := []struct {
		Input  string
		Output string
	}{
		{
			Input:  "/gds/hdr/TestDir/obs.0000.raw?max=4",
			Output: "gdshdrTestDirobs0000raw_max4",
		},
		{
			Input:  "/gds/block/TestDir/3/obs.raw",
			Output: "gdsblockTestDir3obsraw",
		},
	}

	for _, exp := range expected {
		result := UrlToCacheFileName(exp.Input)
		if result != exp.Output {
			t.Errorf("UrlToCacheFileName(%s) returned %s instead of %s", exp.Input, result, exp.Output)
		}
	}
	assert.Equal(t, "gds_bucket_dirobsraw", ObjectFileName("bucket", "dir/obs.raw"))
}

func TestPutAndGetItem(t *testing.T) {
	c := New(t.TempDir(), nil)

	n, err := c.PutItemInCache("gds_item", "miniocache", bytes.NewReader([]byte("payload")))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	f, err := c.GetItemFromCache("gds_item", "miniocache")
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	_, err = c.GetItemFromCache("gds_missing", "miniocache")
	assert.True(t, os.IsNotExist(err))
}

func TestTrimRemovesOldestOwnedFiles(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, nil)

	now := time.Now()
	write := func(name string, size int, age time.Duration) {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
		require.NoError(t, os.Chtimes(path, now.Add(-age), now.Add(-age)))
	}
	write("gds_old", 100, 3*time.Hour)
	write("gds_mid", 100, 2*time.Hour)
	write("gds_new", 100, time.Hour)
	write("notes.txt", 100, 4*time.Hour)

	removed, err := c.Trim(dir, 250)
	require.NoError(t, err)
	assert.Equal(t, []string{"gds_old", "gds_mid"}, removed)

	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "gds_new"))
	assert.NoError(t, err)
}
