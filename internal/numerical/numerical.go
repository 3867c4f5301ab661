package numerical

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/spectriclabs/guppi-data-service/internal/guppi"
)

const loThresh = 1.0e-20

func SuppressNaN(num float64) float64 {
	if math.IsNaN(num) {
		return 0
	}
	return num
}

func Transform(dataIn []float64, transform string) float64 {
	if len(dataIn) == 0 {
		return 0
	}
	switch transform {
	case "mean":
		return SuppressNaN(stat.Mean(dataIn, nil))
	case "max":
		return SuppressNaN(floats.Max(dataIn))
	case "min":
		return SuppressNaN(floats.Min(dataIn))
	case "absmax":
		return SuppressNaN(math.Max(math.Abs(floats.Max(dataIn)), math.Abs(floats.Min(dataIn))))
	case "first":
		return SuppressNaN(dataIn[0])
	default:
		return 0
	}
}

// Polarizations is the number of real/imaginary value pairs in one
// sample once it is unpacked at the block's bit width.
func Polarizations(view *guppi.View) (int, error) {
	n, err := view.ValuesPerSample()
	if err != nil {
		return 0, err
	}
	if n%2 != 0 {
		return 0, fmt.Errorf("%w: %d values per sample cannot be paired", guppi.ErrGeometry, n)
	}
	return n / 2, nil
}

// PolarizationPairs returns the samples of one polarization of channel ch
// as interleaved real/imaginary values. Polarization pol is made of
// values 2*pol and 2*pol+1 of every unpacked sample.
func PolarizationPairs(view *guppi.View, ch int, pol int) ([]float64, error) {
	npairs, err := Polarizations(view)
	if err != nil {
		return nil, err
	}
	if ch < 0 || ch >= view.Channels() {
		return nil, fmt.Errorf("channel %d out of range [0, %d)", ch, view.Channels())
	}
	if pol < 0 || pol >= npairs {
		return nil, fmt.Errorf("polarization %d out of range [0, %d)", pol, npairs)
	}
	out := make([]float64, 0, 2*view.Samples())
	for s := 0; s < view.Samples(); s++ {
		vals, err := view.Unpack(ch, s)
		if err != nil {
			return nil, err
		}
		out = append(out, float64(vals[2*pol]), float64(vals[2*pol+1]))
	}
	return out, nil
}

// PolarizationSeries is PolarizationPairs as complex values.
func PolarizationSeries(view *guppi.View, ch int, pol int) ([]complex128, error) {
	pairs, err := PolarizationPairs(view, ch, pol)
	if err != nil {
		return nil, err
	}
	out := make([]complex128, len(pairs)/2)
	for i := range out {
		out[i] = complex(pairs[2*i], pairs[2*i+1])
	}
	return out, nil
}

// ApplyCXmode converts data to real values. Complex data is interleaved
// real/imaginary pairs. It also returns the min and max of the output.
func ApplyCXmode(datain []float64, cxmode string, complexData bool) ([]float64, float64, float64) {
	zmax := math.Inf(-1)
	zmin := math.Inf(1)
	if complexData {
		outData := make([]float64, len(datain)/2)
		for i := 0; i < len(datain)-1; i += 2 {
			re, im := datain[i], datain[i+1]
			var v float64
			switch cxmode {
			case "Ma", "IR":
				v = math.Sqrt(re*re + im*im)
			case "Ph":
				v = math.Atan2(im, re)
			case "Re":
				v = re
			case "Im":
				v = im
			case "Lo":
				v = 10 * math.Log10(math.Max(re*re+im*im, loThresh))
			case "L2":
				v = 20 * math.Log10(math.Max(re*re+im*im, loThresh))
			case "Pw":
				v = re*re + im*im
			}
			outData[i/2] = v
			zmax = math.Max(zmax, v)
			zmin = math.Min(zmin, v)
		}
		return outData, zmin, zmax
	}

	outData := make([]float64, len(datain))
	for i, x := range datain {
		var v float64
		switch cxmode {
		case "Ma":
			v = math.Abs(x)
		case "Ph":
			v = math.Atan2(0, x)
		case "Re", "IR":
			v = x
		case "Im":
			v = 0
		case "Lo":
			v = 10 * math.Log10(math.Max(x*x, loThresh))
		case "L2":
			v = 20 * math.Log10(math.Max(x*x, loThresh))
		case "Pw":
			v = x * x
		}
		outData[i] = v
		zmax = math.Max(zmax, v)
		zmin = math.Min(zmin, v)
	}
	return outData, zmin, zmax
}

// PolarizationStats summarises one polarization of one channel.
type PolarizationStats struct {
	Channel      int     `json:"channel"`
	Polarization int     `json:"polarization"`
	Value        float64 `json:"value"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	StdDev       float64 `json:"std_dev"`
}

// BlockStats converts every polarization of every channel with cxmode and
// reduces it with transform.
func BlockStats(view *guppi.View, cxmode string, transform string) ([]PolarizationStats, error) {
	npairs, err := Polarizations(view)
	if err != nil {
		return nil, err
	}
	out := make([]PolarizationStats, 0, view.Channels()*npairs)
	for ch := 0; ch < view.Channels(); ch++ {
		for pol := 0; pol < npairs; pol++ {
			pairs, err := PolarizationPairs(view, ch, pol)
			if err != nil {
				return nil, err
			}
			values, zmin, zmax := ApplyCXmode(pairs, cxmode, true)
			out = append(out, PolarizationStats{
				Channel:      ch,
				Polarization: pol,
				Value:        Transform(values, transform),
				Min:          zmin,
				Max:          zmax,
				StdDev:       SuppressNaN(stat.StdDev(values, nil)),
			})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no polarization pairs in a %d component sample", guppi.ErrGeometry, view.Components())
	}
	return out, nil
}
