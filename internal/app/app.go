package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"go.elastic.co/apm"
	"go.elastic.co/apm/module/apmhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/spectriclabs/guppi-data-service/internal/api"
	"github.com/spectriclabs/guppi-data-service/internal/cache"
	"github.com/spectriclabs/guppi-data-service/internal/config"
)

// cacheDirs are the cache subdirectories kept under the size limit.
var cacheDirs = []string{"outputFiles", "miniocache"}

func Run() {
	cfg, err := ParseCLI(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := LoadConfigFile(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error loading config file %s: %v\n", cfg.ConfigFile, err)
		os.Exit(1)
	}

	logger, err := NewLogger(cfg.Debug, cfg.Logs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdsapi := api.NewGDSAPI(&cfg, logger)
	if cfg.UseCache {
		if err := SetupCache(ctx, gdsapi.Cache, &cfg); err != nil {
			logger.Fatal("Error creating cache directories", zap.String("cache_location", cfg.CacheLocation), zap.Error(err))
		}
	}

	e := SetupServer(gdsapi)

	address := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:    address,
		Handler: apmhttp.Wrap(e, apmhttp.WithTracer(apm.DefaultTracer)),
	}
	go func() {
		logger.Info("Starting server", zap.String("address", address), zap.Int("locations", len(cfg.LocationDetails)))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down the server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down", zap.Error(err))
	}
	apm.DefaultTracer.Flush(shutdownCtx.Done())
	apm.DefaultTracer.Close()
}

func ParseCLI(args []string) (config.Config, error) {
	cfg := config.Config{}
	flags := pflag.NewFlagSet("gds", pflag.ContinueOnError)
	flags.StringVarP(&cfg.Host, "host", "i", "0.0.0.0", "Host where the server will run")
	flags.IntVarP(&cfg.Port, "port", "p", 5055, "Port where the server will run")
	flags.BoolVarP(&cfg.Debug, "debug", "d", false, "Whether or not to enable debug logging")
	flags.StringVarP(&cfg.ConfigFile, "config", "c", "./gdsConfig.json", "Location of GDS config file")
	flags.BoolVarP(&cfg.UseCache, "use-cache", "u", true, "Use GDS Cache. Can be disabled for certain cases like testing.")
	flags.StringVarP(&cfg.CacheLocation, "cache-location", "C", "./gdscache/", "Where the cache will be stored")
	flags.IntVarP(&cfg.CachePollingInterval, "cache-polling-interval", "P", 60, "How often to check the cache (in seconds)")
	flags.Int64VarP(&cfg.CacheMaxBytes, "cache-max-bytes", "m", 100000000, "How large to allow the cache to be")
	if err := flags.Parse(args); err != nil {
		return config.Config{}, err
	}
	if cfg.CachePollingInterval < 1 {
		return config.Config{}, fmt.Errorf("cache-polling-interval must be at least 1 second, got %d", cfg.CachePollingInterval)
	}
	return cfg, nil
}

// NewLogger builds the service logger; debug selects the development
// configuration. With logs.File set, entries are also written as JSON to
// a rotated file.
func NewLogger(debug bool, logs config.LogConfig) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil || logs.File == "" {
		return logger, err
	}

	if err := os.MkdirAll(filepath.Dir(logs.File), 0755); err != nil {
		return nil, err
	}
	rotator := &lumberjack.Logger{
		Filename:   logs.File,
		MaxSize:    logs.MaxSizeMB,
		MaxAge:     logs.MaxAgeDays,
		MaxBackups: logs.MaxBackups,
		Compress:   logs.Compress,
	}
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(rotator),
		level,
	)
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	})), nil
}

// LoadConfigFile reads cfg.ConfigFile and merges it into cfg.
func LoadConfigFile(cfg *config.Config) error {
	configuration, err := config.LoadFile(cfg.ConfigFile)
	if err != nil {
		return err
	}
	return configuration.Apply(cfg)
}

func SetupServer(gdsapi *api.API) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Debug = gdsapi.Cfg.Debug

	// Setup Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// File-specific routes
	e.GET("/gds/fs", gdsapi.GetFileLocations)
	e.GET("/gds/fs/:location/*", gdsapi.GetFileOrDirectory)

	// Capture routes
	e.GET("/gds/hdr/:location/*", gdsapi.GetHeaders)
	e.GET("/gds/block/:location/:index/*", gdsapi.GetBlock)
	e.GET("/gds/rds/:location/:index/*", gdsapi.GetRDS)

	// Add Prometheus as middleware for metrics gathering
	p := prometheus.NewPrometheus("guppi_data_service", nil)
	p.Use(e)

	return e
}

// SetupCache creates the cache directories and starts one size checker per
// directory. The checkers stop with ctx.
func SetupCache(ctx context.Context, c *cache.Cache, cfg *config.Config) error {
	interval := time.Duration(cfg.CachePollingInterval) * time.Second
	for _, dir := range cacheDirs {
		cachePath := filepath.Join(cfg.CacheLocation, dir)
		if err := os.MkdirAll(cachePath, 0755); err != nil {
			return err
		}
		go c.CheckCache(ctx, cachePath, interval, cfg.CacheMaxBytes)
	}
	return nil
}
