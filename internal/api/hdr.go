package api

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/spectriclabs/guppi-data-service/internal/datasource"
	"github.com/spectriclabs/guppi-data-service/internal/guppi"
)

const readBufferSize = 1 << 16

// UnitHeader describes one header/block unit of a capture.
type UnitHeader struct {
	Index         int             `json:"index"`
	Offset        int64           `json:"offset"`
	Length        int64           `json:"length"`
	Padding       int64           `json:"padding"`
	Fields        *guppi.Header   `json:"fields"`
	Geometry      *guppi.Geometry `json:"geometry,omitempty"`
	GeometryError string          `json:"geometry_error,omitempty"`
}

type HeaderResponse struct {
	File  string       `json:"file"`
	Units []UnitHeader `json:"units"`
	// More is set when the capture continues past the last unit returned.
	More bool `json:"more"`
}

// openCapture opens a capture and wraps it in a GUPPI reader configured
// from the service's format settings.
func (a *API) openCapture(c echo.Context) (*guppi.Reader, io.Closer, error) {
	opts, err := a.Cfg.ReaderOptions()
	if err != nil {
		return nil, nil, err
	}
	src, err := datasource.OpenDataSource(
		c.Request().Context(), a.Cfg, a.Cache, a.Logger, c.Param("location"), c.Param("*"),
	)
	if err != nil {
		return nil, nil, err
	}
	return guppi.NewReader(bufio.NewReaderSize(src, readBufferSize), opts...), src, nil
}

// GetHeaders returns the decoded headers of up to `max` units. Blocks are
// skipped without being read into memory.
//
// The URL is of the form:
// /gds/hdr/locationName/path/to/file.raw?max=N
func (a *API) GetHeaders(c echo.Context) error {
	maxUnits := a.Cfg.MaxHeaderUnits()
	if s := c.QueryParam("max"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return c.String(http.StatusBadRequest, fmt.Sprintf("max must be a positive integer; given %q", s))
		}
		maxUnits = n
	}

	if hit, err := a.cachedJSON(c); hit {
		return err
	}

	reader, src, err := a.openCapture(c)
	if err != nil {
		return a.fail(c, err)
	}
	defer src.Close()

	resp := HeaderResponse{File: c.Param("*"), Units: []UnitHeader{}}
	for {
		parsed, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return a.fail(c, err)
		}
		if len(resp.Units) == maxUnits {
			resp.More = true
			break
		}
		unit := UnitHeader{
			Index:   reader.Index(),
			Offset:  reader.Offset() - parsed.Size(),
			Length:  parsed.Length,
			Padding: parsed.Padding,
			Fields:  parsed.Fields,
		}
		if g, err := reader.Geometry(); err != nil {
			unit.GeometryError = err.Error()
		} else {
			unit.Geometry = &g
		}
		resp.Units = append(resp.Units, unit)

		if err := reader.SkipBlock(); err != nil {
			return a.fail(c, err)
		}
	}

	metricUnitsDecoded.WithLabelValues("hdr").Add(float64(len(resp.Units)))
	a.Logger.Info(
		"Decoded headers",
		zap.String("location", c.Param("location")),
		zap.String("file", resp.File),
		zap.Int("units", len(resp.Units)),
	)
	return a.respondJSON(c, resp)
}
