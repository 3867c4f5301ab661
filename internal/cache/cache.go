package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Prefix marks files the cache owns; the size check only removes these.
const Prefix = "gds_"

type Cache struct {
	Location string
	Logger   *zap.Logger
}

func New(location string, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{Location: location, Logger: logger}
}

// UrlToCacheFileName uses a url and query string
// to form the service's cached file name.
func UrlToCacheFileName(url string) string {
	response := strings.Replace(url, "?", "_", 1)
	replacer := strings.NewReplacer("&", "", "=", "", ".", "", "/", "")
	return replacer.Replace(response)
}

// ObjectFileName names the cache entry of a remote object.
func ObjectFileName(bucket string, objectPath string) string {
	return UrlToCacheFileName(fmt.Sprintf("%s%s_%s", Prefix, bucket, objectPath))
}

func (c *Cache) path(subDir string, cacheFileName string) string {
	return filepath.Join(c.Location, subDir, cacheFileName)
}

// GetItemFromCache opens the file `cacheFileName`
// within the `subDir` directory.
func (c *Cache) GetItemFromCache(cacheFileName string, subDir string) (io.ReadSeekCloser, error) {
	return os.Open(c.path(subDir, cacheFileName))
}

// PutItemInCache copies `r` into the file denoted by `cacheFileName`
// within `subDir` and returns the number of bytes stored.
func (c *Cache) PutItemInCache(cacheFileName string, subDir string, r io.Reader) (int64, error) {
	fullPath := c.path(subDir, cacheFileName)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".partial-*")
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return n, err
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return n, err
	}
	c.Logger.Debug("Stored item in cache", zap.String("file", fullPath), zap.Int64("bytes", n))
	return n, nil
}
