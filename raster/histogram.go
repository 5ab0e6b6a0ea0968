package raster

// HistogramBins is the fixed bucket count of the display histogram.
const HistogramBins = 256

func newHistogram() [][]uint32 {
	h := make([][]uint32, 3)
	for i := range h {
		h[i] = make([]uint32, HistogramBins)
	}
	return h
}

// histogramFromSource buckets the retained floating-point samples using
// the same min-max normalisation the display remap used, so the histogram
// reflects the true dynamic range. Gray sources are replicated into all
// three channels; alpha never contributes.
func histogramFromSource(src *SourceData) [][]uint32 {
	hist := newHistogram()
	span := float64(src.Max) - float64(src.Min)

	bin := func(v float32) int {
		normalized := 0.5
		if span > flatRangeEpsilon {
			normalized = (float64(v) - float64(src.Min)) / span
			if normalized < 0 {
				normalized = 0
			}
			if normalized > 1 {
				normalized = 1
			}
		}
		return int(normalized * 255)
	}

	switch src.Channels {
	case 1:
		for _, v := range src.Samples {
			i := bin(v)
			hist[0][i]++
			hist[1][i]++
			hist[2][i]++
		}
	default:
		for p := 0; p+src.Channels <= len(src.Samples); p += src.Channels {
			for c := 0; c < 3; c++ {
				hist[c][bin(src.Samples[p+c])]++
			}
		}
	}
	return hist
}

// histogramFromBuffer buckets the display bytes directly.
func histogramFromBuffer(b Buffer) [][]uint32 {
	hist := newHistogram()
	n := b.Width * b.Height
	for p := 0; p < n; p++ {
		if b.Channels == 1 {
			v := b.Pix[p]
			hist[0][v]++
			hist[1][v]++
			hist[2][v]++
			continue
		}
		for c := 0; c < 3; c++ {
			hist[c][b.Pix[p*b.Channels+c]]++
		}
	}
	return hist
}
