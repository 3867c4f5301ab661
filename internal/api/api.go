package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/spectriclabs/guppi-data-service/internal/cache"
	"github.com/spectriclabs/guppi-data-service/internal/config"
	"github.com/spectriclabs/guppi-data-service/internal/datasource"
	"github.com/spectriclabs/guppi-data-service/internal/guppi"
)

// outputCacheDir holds cached JSON responses.
const outputCacheDir = "outputFiles"

type API struct {
	Cfg    *config.Config
	Cache  *cache.Cache
	Logger *zap.Logger
}

func NewGDSAPI(cfg *config.Config, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		Cfg:    cfg,
		Cache:  cache.New(cfg.CacheLocation, logger),
		Logger: logger,
	}
}

// statusFor maps an error from the data path to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, datasource.ErrUnknownLocation):
		return http.StatusBadRequest
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, guppi.ErrFormat),
		errors.Is(err, guppi.ErrGeometry),
		errors.Is(err, guppi.ErrTruncatedInput):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) fail(c echo.Context, err error) error {
	status := statusFor(err)
	observeFailure(status)
	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	if status >= http.StatusInternalServerError {
		a.Logger.Error("Request failed", zap.String("uri", c.Request().RequestURI), zap.String("request_id", requestID), zap.Error(err))
	} else {
		a.Logger.Info("Request rejected", zap.String("uri", c.Request().RequestURI), zap.String("request_id", requestID), zap.Int("status", status), zap.Error(err))
	}
	return c.String(status, err.Error())
}

// cachedJSON serves a previously computed response for the request URL, if
// the cache is enabled and holds one.
func (a *API) cachedJSON(c echo.Context) (bool, error) {
	if !a.Cfg.UseCache {
		return false, nil
	}
	file, err := a.Cache.GetItemFromCache(a.outputCacheName(c), outputCacheDir)
	if err != nil {
		return false, nil
	}
	defer file.Close()
	a.Logger.Debug("Serving response from cache", zap.String("uri", c.Request().URL.String()))
	return true, c.Stream(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, file)
}

func (a *API) outputCacheName(c echo.Context) string {
	return cache.Prefix + cache.UrlToCacheFileName(c.Request().URL.String())
}

// respondJSON writes v and, with the cache enabled, keeps a copy for the
// next identical request.
func (a *API) respondJSON(c echo.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return a.fail(c, err)
	}
	if a.Cfg.UseCache {
		if _, err := a.Cache.PutItemInCache(a.outputCacheName(c), outputCacheDir, bytes.NewReader(data)); err != nil {
			a.Logger.Warn("Could not cache response", zap.String("uri", c.Request().URL.String()), zap.Error(err))
		}
	}
	return c.JSONBlob(http.StatusOK, data)
}
