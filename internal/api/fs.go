package api

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/spectriclabs/guppi-data-service/internal/config"
	"github.com/spectriclabs/guppi-data-service/internal/datasource"
)

const (
	fileTypeFile      = "file"
	fileTypeDirectory = "directory"

	// MIMEGuppiRaw is the content type of GUPPI RAW captures.
	MIMEGuppiRaw = "application/guppi-raw"
)

type File struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
	Size     int64  `json:"size,omitempty"`
}

// IsGuppiRaw reports whether filePath names a GUPPI RAW capture,
// compressed or not.
func IsGuppiRaw(filePath string) bool {
	return strings.HasSuffix(filePath, ".raw") || strings.HasSuffix(filePath, ".raw"+datasource.CompressedSuffix)
}

func (a *API) GetFileContents(c echo.Context, locationName string, filePath string) error {
	reader, err := datasource.OpenDataSource(c.Request().Context(), a.Cfg, a.Cache, a.Logger, locationName, filePath)
	if err != nil {
		return a.fail(c, err)
	}
	defer reader.Close()

	contentType := echo.MIMEOctetStream
	if IsGuppiRaw(filePath) {
		contentType = MIMEGuppiRaw
	}
	return c.Stream(http.StatusOK, contentType, reader)
}

func (a *API) GetDirectoryContents(c echo.Context, directoryPath string) error {
	entries, err := os.ReadDir(directoryPath)
	if err != nil {
		return a.fail(c, err)
	}
	filelist := make([]File, 0, len(entries))
	for _, entry := range entries {
		file := File{Filename: entry.Name(), Type: fileTypeFile}
		if entry.IsDir() {
			file.Type = fileTypeDirectory
		} else if info, err := entry.Info(); err == nil {
			file.Size = info.Size()
		}
		filelist = append(filelist, file)
	}
	return c.JSON(http.StatusOK, filelist)
}

func (a *API) GetFileLocations(c echo.Context) error {
	return c.JSON(http.StatusOK, a.Cfg.LocationDetails)
}

func (a *API) GetFileOrDirectory(c echo.Context) error {
	filePath := c.Param("*")
	locationName := c.Param("location")

	currentLocation, ok := a.Cfg.FindLocation(locationName)
	if !ok {
		return a.fail(c, fmt.Errorf("%w %s", datasource.ErrUnknownLocation, locationName))
	}

	// MinIO locations serve objects only; there is no bucket listing.
	if currentLocation.LocationType != config.LocationLocalFile {
		return a.GetFileContents(c, locationName, filePath)
	}

	joinedFilePath := datasource.LocalPath(currentLocation, filePath)
	fi, err := os.Stat(joinedFilePath)
	if err != nil {
		return a.fail(c, err)
	}

	if fi.Mode().IsRegular() {
		a.Logger.Debug("Path is a file; returning contents in raw mode", zap.String("path", joinedFilePath))
		return a.GetFileContents(c, locationName, filePath)
	}
	a.Logger.Debug("Path is a directory; returning directory listing", zap.String("path", joinedFilePath))
	return a.GetDirectoryContents(c, joinedFilePath)
}
