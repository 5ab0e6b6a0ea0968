package raster

import "math"

// Mode selects the pixel-value transform applied before display.
type Mode int

const (
	ModeNone Mode = iota
	ModeMinMax
	ModeLogMinMax
	ModeStandard
	ModeFFT
)

func (m Mode) String() string {
	switch m {
	case ModeMinMax:
		return "Min-Max"
	case ModeLogMinMax:
		return "Log Min-Max"
	case ModeStandard:
		return "Standard"
	case ModeFFT:
		return "FFT"
	}
	return "None"
}

// display tuning constants for the standardisation transform - these match
// the behaviour of the desktop tool and can be adjusted, but changing them
// changes rendered output
var (
	StandardSpread = 50.0
	StandardCenter = 127.0
)

// Transform dispatches over the closed set of modes. Every transform is a
// pure function: a fresh output buffer of the same (or reduced) shape, the
// input untouched.
func Transform(m Mode, b Buffer) Buffer {
	switch m {
	case ModeMinMax:
		return MinMaxNormalize(b)
	case ModeLogMinMax:
		return LogMinMaxNormalize(b)
	case ModeStandard:
		return Standardize(b)
	case ModeFFT:
		return SpectralView(b)
	}
	return b.Clone()
}

// MinMaxNormalize remaps each channel independently so its darkest sample
// becomes 0 and its brightest 255. A constant channel passes through
// unchanged rather than dividing by zero.
func MinMaxNormalize(b Buffer) Buffer {
	n := b.Channels
	minv := make([]float64, n)
	maxv := make([]float64, n)
	for c := 0; c < n; c++ {
		minv[c] = 255
		maxv[c] = 0
	}
	for i, v := range b.Pix {
		c := i % n
		f := float64(v)
		if f < minv[c] {
			minv[c] = f
		}
		if f > maxv[c] {
			maxv[c] = f
		}
	}

	out := NewBuffer(b.Width, b.Height, n)
	for i, v := range b.Pix {
		c := i % n
		if maxv[c] > minv[c] {
			out.Pix[i] = uint8(math.Round((float64(v) - minv[c]) / (maxv[c] - minv[c]) * 255))
		} else {
			out.Pix[i] = v
		}
	}
	return out
}

// LogMinMaxNormalize is the min-max remap computed over ln(value) instead,
// which compresses heavily skewed dynamic ranges. Zero-valued samples have
// no logarithm and pass through as their original byte value.
func LogMinMaxNormalize(b Buffer) Buffer {
	n := b.Channels
	minv := make([]float64, n)
	maxv := make([]float64, n)
	for c := 0; c < n; c++ {
		minv[c] = math.MaxFloat64
		maxv[c] = -math.MaxFloat64
	}
	for i, v := range b.Pix {
		if v == 0 {
			continue
		}
		c := i % n
		lv := math.Log(float64(v))
		if lv < minv[c] {
			minv[c] = lv
		}
		if lv > maxv[c] {
			maxv[c] = lv
		}
	}

	out := NewBuffer(b.Width, b.Height, n)
	for i, v := range b.Pix {
		c := i % n
		if v > 0 && maxv[c] > minv[c] {
			lv := math.Log(float64(v))
			out.Pix[i] = uint8(math.Round((lv - minv[c]) / (maxv[c] - minv[c]) * 255))
		} else {
			out.Pix[i] = v
		}
	}
	return out
}

// Standardize centres each channel's distribution at mid-gray with a fixed
// display spread. Mean and population standard deviation come from a single
// accumulation pass; a zero-variance channel passes through unchanged.
func Standardize(b Buffer) Buffer {
	n := b.Channels
	sum := make([]float64, n)
	sumSq := make([]float64, n)
	for i, v := range b.Pix {
		c := i % n
		f := float64(v)
		sum[c] += f
		sumSq[c] += f * f
	}

	N := float64(b.Width * b.Height)
	mean := make([]float64, n)
	std := make([]float64, n)
	for c := 0; c < n; c++ {
		mean[c] = sum[c] / N
		variance := sumSq[c]/N - mean[c]*mean[c]
		std[c] = math.Sqrt(variance)
	}

	out := NewBuffer(b.Width, b.Height, n)
	for i, v := range b.Pix {
		c := i % n
		if std[c] > 0 {
			f := (float64(v)-mean[c])/std[c]*StandardSpread + StandardCenter
			if f < 0 {
				f = 0
			}
			if f > 255 {
				f = 255
			}
			out.Pix[i] = uint8(math.Round(f))
		} else {
			out.Pix[i] = v
		}
	}
	return out
}
