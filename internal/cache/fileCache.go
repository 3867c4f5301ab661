package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Trim removes the oldest cache-owned files in cachePath until the
// directory holds at most maxBytes. It returns the names removed.
func (c *Cache) Trim(cachePath string, maxBytes int64) ([]string, error) {
	entries, err := os.ReadDir(cachePath)
	if err != nil {
		return nil, err
	}

	type cached struct {
		name    string
		size    int64
		modTime time.Time
	}
	var files []cached
	var currentBytes int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		currentBytes += info.Size()
		if strings.HasPrefix(entry.Name(), Prefix) {
			files = append(files, cached{name: entry.Name(), size: info.Size(), modTime: info.ModTime()})
		}
	}

	var removed []string
	for currentBytes > maxBytes && len(files) > 0 {
		oldest := 0
		for i := range files {
			if files[i].modTime.Before(files[oldest].modTime) {
				oldest = i
			}
		}
		file := files[oldest]
		files = append(files[:oldest], files[oldest+1:]...)
		c.Logger.Info("Cache over maximum, removing old file", zap.String("file", file.name), zap.Int64("cache_bytes", currentBytes))
		if err := os.Remove(filepath.Join(cachePath, file.name)); err != nil {
			c.Logger.Error("Error removing cache file", zap.String("file", file.name), zap.Error(err))
			continue
		}
		currentBytes -= file.size
		removed = append(removed, file.name)
	}
	if currentBytes > maxBytes {
		c.Logger.Warn("Cache still over maximum after trimming; don't put other files in the cache dir",
			zap.String("path", cachePath), zap.Int64("cache_bytes", currentBytes))
	}
	return removed, nil
}

// CheckCache runs Trim every `checkInterval` until ctx is done.
func (c *Cache) CheckCache(ctx context.Context, cachePath string, checkInterval time.Duration, maxBytes int64) {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for {
		if _, err := c.Trim(cachePath, maxBytes); err != nil {
			c.Logger.Error("CheckCache error", zap.String("path", cachePath), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
