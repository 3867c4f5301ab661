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

	"github.com/spectriclabs/guppi-data-service/internal/numerical"
	"github.com/spectriclabs/guppi-data-service/internal/raster"
)

// RdsRequest selects one polarization of one block and how to render it.
type RdsRequest struct {
	Index        int    `param:"index"`
	Polarization int    `query:"pol"`
	CXMode       string `query:"cxmode"`
	OutputFmt    string `query:"outfmt"`
	ColorMap     string `query:"colormap"`
}

// GetRDS renders one polarization of a block as a raster with one row per
// channel and one column per sample.
//
// The URL is of the form:
// /gds/rds/locationName/index/path/to/file.raw?pol=0&cxmode=Lo&outfmt=PNG&colormap=RampColormap
func (a *API) GetRDS(c echo.Context) error {
	rdsRequest := RdsRequest{CXMode: "Lo", OutputFmt: raster.FormatPNG}
	if err := c.Bind(&rdsRequest); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	if _, err := strconv.Atoi(c.Param("index")); err != nil || rdsRequest.Index < 0 {
		return c.String(http.StatusBadRequest, fmt.Sprintf("index must be a non-negative integer; given %q", c.Param("index")))
	}
	if rdsRequest.Polarization < 0 {
		return c.String(http.StatusBadRequest, fmt.Sprintf("pol must not be negative; given %d", rdsRequest.Polarization))
	}
	if !cxmodes[rdsRequest.CXMode] {
		return c.String(http.StatusBadRequest, fmt.Sprintf("unknown cxmode %q", rdsRequest.CXMode))
	}
	if _, err := raster.GetColorControlPoints(rdsRequest.ColorMap); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	start := time.Now()
	reader, src, err := a.openCapture(c)
	if err != nil {
		return a.fail(c, err)
	}
	defer src.Close()

	for reader.Index() < rdsRequest.Index {
		if _, err := reader.Next(); errors.Is(err, io.EOF) {
			return c.String(http.StatusNotFound, fmt.Sprintf("unit %d not found; capture has %d units", rdsRequest.Index, reader.Index()+1))
		} else if err != nil {
			return a.fail(c, err)
		}
	}
	view, err := reader.ReadBlock()
	if err != nil {
		return a.fail(c, err)
	}
	metricUnitsDecoded.WithLabelValues("rds").Inc()
	metricBlockBytes.Add(float64(len(view.Bytes())))
	npairs, err := numerical.Polarizations(view)
	if err != nil {
		return a.fail(c, err)
	}
	if rdsRequest.Polarization >= npairs {
		return c.String(http.StatusBadRequest, fmt.Sprintf("pol %d out of range; block has %d", rdsRequest.Polarization, npairs))
	}

	out := raster.New(view.Samples(), view.Channels())
	for ch := 0; ch < view.Channels(); ch++ {
		pairs, err := numerical.PolarizationPairs(view, ch, rdsRequest.Polarization)
		if err != nil {
			return a.fail(c, err)
		}
		row, zmin, zmax := numerical.ApplyCXmode(pairs, rdsRequest.CXMode, true)
		if err := out.SetRow(ch, row, zmin, zmax); err != nil {
			return a.fail(c, err)
		}
	}

	data, err := out.CreateOutput(rdsRequest.OutputFmt, rdsRequest.ColorMap)
	if errors.Is(err, raster.ErrUnknownFormat) {
		return c.String(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return a.fail(c, err)
	}

	c.Response().Header().Set("Access-Control-Expose-Headers", "outxsize,outysize,zmin,zmax")
	c.Response().Header().Set("outxsize", strconv.Itoa(out.Width))
	c.Response().Header().Set("outysize", strconv.Itoa(out.Height))
	c.Response().Header().Set("zmin", strconv.FormatFloat(out.Zmin, 'f', -1, 64))
	c.Response().Header().Set("zmax", strconv.FormatFloat(out.Zmax, 'f', -1, 64))

	a.Logger.Info(
		"Rendered block",
		zap.String("file", c.Param("*")),
		zap.Int("index", rdsRequest.Index),
		zap.String("outfmt", rdsRequest.OutputFmt),
		zap.Duration("elapsed", time.Since(start)),
	)
	return c.Blob(http.StatusOK, raster.ContentType(rdsRequest.OutputFmt), data)
}
