package raster

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/mat"
)

// raised-cosine (Hamming) window coefficients applied along each row
// before the transform, to suppress spectral leakage from the image edges
var (
	HammingAlpha = 0.54
	HammingBeta  = 0.46
)

func hamming(i, n int) float64 {
	if n < 2 {
		return 1
	}
	return HammingAlpha - HammingBeta*math.Cos(2*math.Pi*float64(i)/float64(n-1))
}

// SpectralView renders the 2D frequency-domain magnitude spectrum of the
// buffer's luminance as a single-channel image of the same size. The
// zero-frequency term is swapped to the centre, magnitudes are
// log-compressed and normalised by the global maximum.
//
// The transform length equals the image dimension exactly; go-dsp falls
// back to Bluestein's algorithm for lengths that are not powers of two, so
// arbitrary and prime sizes work.
func SpectralView(b Buffer) Buffer {
	w := b.Width
	h := b.Height

	lum := b.Luminance()
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			lum[j][i] *= hamming(i, w)
		}
	}

	spec := fft.FFT2Real(lum)

	magnitude := mat.NewDense(h, w, nil)
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			magnitude.Set(j, i, math.Log10(cmplx.Abs(spec[j][i])+1))
		}
	}
	maxMagnitude := mat.Max(magnitude)

	out := NewBuffer(w, h, 1)
	if maxMagnitude == 0 {
		// an all-black input transforms to an all-black spectrum
		return out
	}

	// quadrant swap: DC lands at the image centre
	for j := 0; j < h; j++ {
		J := (j + h/2) % h
		for i := 0; i < w; i++ {
			I := (i + w/2) % w
			out.Pix[J*w+I] = uint8(magnitude.At(j, i) / maxMagnitude * 255)
		}
	}
	return out
}
