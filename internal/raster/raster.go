package raster

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
)

var ErrUnknownFormat = errors.New("unknown output format")

const numColors = 1000

// Output formats. The numeric ones write one little-endian value per cell.
const (
	FormatPNG  = "PNG"
	FormatRGBA = "RGBA"
	FormatSB   = "SB"
	FormatSI   = "SI"
	FormatSL   = "SL"
	FormatSF   = "SF"
	FormatSD   = "SD"
)

// Raster is a row-major grid of values, one row per channel.
type Raster struct {
	Width  int
	Height int
	Data   []float64
	Zmin   float64
	Zmax   float64
}

func New(width, height int) *Raster {
	return &Raster{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
		Zmin:   math.Inf(1),
		Zmax:   math.Inf(-1),
	}
}

// SetRow copies row y and widens the value range to cover it.
func (r *Raster) SetRow(y int, row []float64, zmin, zmax float64) error {
	if y < 0 || y >= r.Height {
		return fmt.Errorf("row %d out of range [0, %d)", y, r.Height)
	}
	if len(row) != r.Width {
		return fmt.Errorf("row %d has %d values, want %d", y, len(row), r.Width)
	}
	copy(r.Data[y*r.Width:], row)
	r.Zmin = math.Min(r.Zmin, zmin)
	r.Zmax = math.Max(r.Zmax, zmax)
	return nil
}

// Image maps every cell through the colormap.
func (r *Raster) Image(colorMap string) (*image.RGBA, error) {
	controlColors, err := GetColorControlPoints(colorMap)
	if err != nil {
		return nil, err
	}
	palette := MakeColorPalette(controlColors, numColors)
	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	colorsPerSpan := (r.Zmax - r.Zmin) / numColors
	for i, v := range r.Data {
		colorIndex := 0.0
		if colorsPerSpan > 0 {
			colorIndex = math.Round((v-r.Zmin)/colorsPerSpan) - 1
			colorIndex = math.Min(math.Max(colorIndex, 0), numColors-1)
		}
		img.SetRGBA(i%r.Width, i/r.Width, palette[int(colorIndex)])
	}
	return img, nil
}

// ContentType returns the MIME type of an output format.
func ContentType(format string) string {
	if format == FormatPNG {
		return "image/png"
	}
	return "application/octet-stream"
}

// CreateOutput encodes the raster in format.
func (r *Raster) CreateOutput(format, colorMap string) ([]byte, error) {
	dataOut := new(bytes.Buffer)
	switch format {
	case FormatPNG, FormatRGBA:
		img, err := r.Image(colorMap)
		if err != nil {
			return nil, err
		}
		if format == FormatRGBA {
			return img.Pix, nil
		}
		if err := png.Encode(dataOut, img); err != nil {
			return nil, err
		}
		return dataOut.Bytes(), nil
	case FormatSB:
		return r.writeNumbers(dataOut, func(v float64) any { return int8(math.Round(v)) })
	case FormatSI:
		return r.writeNumbers(dataOut, func(v float64) any { return int16(math.Round(v)) })
	case FormatSL:
		return r.writeNumbers(dataOut, func(v float64) any { return int32(math.Round(v)) })
	case FormatSF:
		return r.writeNumbers(dataOut, func(v float64) any { return float32(v) })
	case FormatSD:
		return r.writeNumbers(dataOut, func(v float64) any { return v })
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
}

func (r *Raster) writeNumbers(dataOut *bytes.Buffer, convert func(float64) any) ([]byte, error) {
	for _, v := range r.Data {
		if err := binary.Write(dataOut, binary.LittleEndian, convert(v)); err != nil {
			return nil, err
		}
	}
	return dataOut.Bytes(), nil
}
