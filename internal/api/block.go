package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/spectriclabs/guppi-data-service/internal/guppi"
	"github.com/spectriclabs/guppi-data-service/internal/numerical"
)

var (
	cxmodes    = map[string]bool{"Ma": true, "Ph": true, "Re": true, "Im": true, "IR": true, "Lo": true, "L2": true, "Pw": true}
	transforms = map[string]bool{"mean": true, "max": true, "min": true, "absmax": true, "first": true}
)

type BlockResponse struct {
	File      string                        `json:"file"`
	Index     int                           `json:"index"`
	Offset    int64                         `json:"offset"`
	Geometry  guppi.Geometry                `json:"geometry"`
	CXMode    string                        `json:"cxmode"`
	Transform string                        `json:"transform"`
	Stats     []numerical.PolarizationStats `json:"stats"`
}

// GetBlock decodes the block of one unit and reports per-channel,
// per-polarization statistics of its complex samples.
//
// The URL is of the form:
// /gds/block/locationName/index/path/to/file.raw?cxmode=Pw&transform=mean
func (a *API) GetBlock(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		return c.String(http.StatusBadRequest, fmt.Sprintf("index must be a non-negative integer; given %q", c.Param("index")))
	}
	cxmode := c.QueryParam("cxmode")
	if cxmode == "" {
		cxmode = "Pw"
	}
	if !cxmodes[cxmode] {
		return c.String(http.StatusBadRequest, fmt.Sprintf("unknown cxmode %q", cxmode))
	}
	transform := c.QueryParam("transform")
	if transform == "" {
		transform = "mean"
	}
	if !transforms[transform] {
		return c.String(http.StatusBadRequest, fmt.Sprintf("unknown transform %q", transform))
	}

	if hit, err := a.cachedJSON(c); hit {
		return err
	}

	start := time.Now()
	reader, src, err := a.openCapture(c)
	if err != nil {
		return a.fail(c, err)
	}
	defer src.Close()

	var parsed *guppi.ParsedHeader
	for reader.Index() < index {
		parsed, err = reader.Next()
		if errors.Is(err, io.EOF) {
			return c.String(http.StatusNotFound, fmt.Sprintf("unit %d not found; capture has %d units", index, reader.Index()+1))
		}
		if err != nil {
			return a.fail(c, err)
		}
	}

	offset := reader.Offset() - parsed.Size()
	view, err := reader.ReadBlock()
	if err != nil {
		return a.fail(c, err)
	}
	metricUnitsDecoded.WithLabelValues("block").Inc()
	metricBlockBytes.Add(float64(len(view.Bytes())))
	stats, err := numerical.BlockStats(view, cxmode, transform)
	if err != nil {
		return a.fail(c, fmt.Errorf("%w: %w", guppi.ErrGeometry, err))
	}

	a.Logger.Info(
		"Decoded block",
		zap.String("file", c.Param("*")),
		zap.Int("index", index),
		zap.Int("channels", view.Channels()),
		zap.Int("samples", view.Samples()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return a.respondJSON(c, BlockResponse{
		File:      c.Param("*"),
		Index:     index,
		Offset:    offset,
		Geometry:  view.Geometry(),
		CXMode:    cxmode,
		Transform: transform,
		Stats:     stats,
	})
}
