package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/spectriclabs/guppi-data-service/internal/cache"
	"github.com/spectriclabs/guppi-data-service/internal/config"
)

const minioCacheDir = "miniocache"

// ErrUnknownLocation is returned for a location name that is not configured.
var ErrUnknownLocation = errors.New("unknown location")

// CompressedSuffix marks captures stored zstd-compressed.
const CompressedSuffix = ".zst"

// OpenDataSource opens filePath within the configured location
// locationName. Files ending in CompressedSuffix are decompressed on the fly.
func OpenDataSource(
	ctx context.Context,
	cfg *config.Config,
	gdsCache *cache.Cache,
	logger *zap.Logger,
	locationName string,
	filePath string,
) (io.ReadCloser, error) {
	currentLocation, ok := cfg.FindLocation(locationName)
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrUnknownLocation, locationName)
	}

	var (
		src io.ReadCloser
		err error
	)
	switch currentLocation.LocationType {
	case config.LocationLocalFile:
		src, err = openLocal(currentLocation, logger, filePath)
	case config.LocationMinio:
		src, err = openMinio(ctx, cfg, currentLocation, gdsCache, logger, filePath)
	default:
		err = fmt.Errorf("unsupported location type %s in %s", currentLocation.LocationType, currentLocation.LocationName)
	}
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(filePath, CompressedSuffix) {
		return newZstdReadCloser(src)
	}
	return src, nil
}

// LocalPath joins filePath onto a local location. The path is cleaned
// as if rooted so it cannot climb above the location directory.
func LocalPath(location config.Location, filePath string) string {
	return filepath.Join(location.Path, filepath.FromSlash(path.Clean("/"+filePath)))
}

func openLocal(location config.Location, logger *zap.Logger, filePath string) (io.ReadCloser, error) {
	fullFilepath := LocalPath(location, filePath)
	logger.Info(
		"Reading local file",
		zap.String("location_name", location.LocationName),
		zap.String("filename", filePath),
		zap.String("path", fullFilepath),
	)
	file, err := os.Open(fullFilepath)
	if err != nil {
		logger.Error("Error opening file", zap.Error(err))
		return nil, err
	}
	return file, nil
}

func openMinio(
	ctx context.Context,
	cfg *config.Config,
	location config.Location,
	gdsCache *cache.Cache,
	logger *zap.Logger,
	filePath string,
) (io.ReadCloser, error) {
	start := time.Now()
	objectPath := strings.TrimPrefix(path.Join(location.Path, filePath), "/")
	cacheFileName := cache.ObjectFileName(location.MinioBucket, objectPath)

	if cfg.UseCache {
		file, err := gdsCache.GetItemFromCache(cacheFileName, minioCacheDir)
		if err == nil {
			logger.Debug("MinIO object found in cache", zap.String("object", objectPath))
			return file, nil
		}
		logger.Info("MinIO object not in local cache, need to fetch", zap.String("object", objectPath))
	}

	minioClient, err := minio.New(
		location.Location,
		&minio.Options{
			Creds:  credentials.NewStaticV4(location.MinioAccessKey, location.MinioSecretKey, ""),
			Secure: location.MinioSecure,
		},
	)
	if err != nil {
		logger.Error("Error establishing connection to MinIO", zap.String("endpoint", location.Location), zap.Error(err))
		return nil, err
	}

	object, err := minioClient.GetObject(ctx, location.MinioBucket, objectPath, minio.GetObjectOptions{})
	if err != nil {
		logger.Error("Error reading object from MinIO", zap.String("object", objectPath), zap.Error(err))
		return nil, err
	}
	if !cfg.UseCache {
		return object, nil
	}
	defer object.Close()

	n, err := gdsCache.PutItemInCache(cacheFileName, minioCacheDir, object)
	if err != nil {
		logger.Error("Error caching MinIO object", zap.String("object", objectPath), zap.Error(err))
		return nil, err
	}
	logger.Info(
		"Fetched MinIO object",
		zap.String("object", objectPath),
		zap.Int64("bytes", n),
		zap.Duration("elapsed", time.Since(start)),
	)
	return gdsCache.GetItemFromCache(cacheFileName, minioCacheDir)
}

type zstdReadCloser struct {
	*zstd.Decoder
	src io.Closer
}

func newZstdReadCloser(src io.ReadCloser) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(src)
	if err != nil {
		src.Close()
		return nil, err
	}
	return &zstdReadCloser{Decoder: dec, src: src}, nil
}

func (z *zstdReadCloser) Close() error {
	z.Decoder.Close()
	return z.src.Close()
}
