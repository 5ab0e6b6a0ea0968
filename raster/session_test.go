package raster

import (
	"errors"
	"testing"
)

func loadFloatSession(t *testing.T, w, h int, vals []float32) *Session {
	t.Helper()
	s := NewSession()
	data := synthTIFF(t, w, h, 1, 32, sampleFormatFloat, 1, floatBytes(vals))
	if err := s.Load(data, "session.tif"); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestQueryPixelPrefersSourcePrecision(t *testing.T) {
	const w, h = 5, 4
	vals := make([]float32, w*h)
	for i := range vals {
		vals[i] = float32(i) - 7.5
	}
	s := loadFloatSession(t, w, h, vals)

	values, exact, err := s.QueryPixel(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !exact {
		t.Error("query should answer from the precision buffer")
	}
	if values[0] != -7.5 {
		t.Errorf("value at (0,0) is %g, want -7.5", values[0])
	}

	values, _, err = s.QueryPixel(w-1, h-1)
	if err != nil {
		t.Fatal(err)
	}
	if values[0] != float64(vals[w*h-1]) {
		t.Errorf("value at (%d,%d) is %g, want %g", w-1, h-1, values[0], vals[w*h-1])
	}

	if _, _, err := s.QueryPixel(w, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("query at (width,0): got %v, want ErrOutOfBounds", err)
	}
	if _, _, err := s.QueryPixel(-1, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("query at (-1,0): got %v, want ErrOutOfBounds", err)
	}
}

func TestQueryPixelDisplayFallback(t *testing.T) {
	s := NewSession()
	data := synthTIFF(t, 2, 2, 1, 8, sampleFormatUint, 1, []uint8{9, 8, 7, 6})
	// bypass the generic decoder so the display path is the dedicated one
	res, err := decodeTIFF(data)
	if err != nil {
		t.Fatal(err)
	}
	s.mu.Lock()
	s.display = res.Display
	s.loaded = true
	s.mu.Unlock()

	values, exact, err := s.QueryPixel(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if exact {
		t.Error("integer image should answer from the display buffer")
	}
	if values[0] != 8 {
		t.Errorf("value at (1,0) is %g, want 8", values[0])
	}
}

func TestLoadFailureKeepsPreviousImage(t *testing.T) {
	vals := make([]float32, 12)
	for i := range vals {
		vals[i] = float32(i)
	}
	s := loadFloatSession(t, 4, 3, vals)

	if err := s.Load([]byte("not an image at all"), "broken.png"); err == nil {
		t.Fatal("loading garbage should fail")
	}

	w, h := s.Dims()
	if w != 4 || h != 3 {
		t.Errorf("dimensions after failed load are %dx%d, want 4x3", w, h)
	}
	if !s.FloatSource() {
		t.Error("precision buffer was dropped by a failed load")
	}
	if _, _, err := s.QueryPixel(0, 0); err != nil {
		t.Errorf("query after failed load: %v", err)
	}
}

func TestRenderMemoisation(t *testing.T) {
	vals := make([]float32, 64)
	for i := range vals {
		vals[i] = float32(i % 13)
	}
	s := loadFloatSession(t, 8, 8, vals)

	first, err := s.Render(ModeMinMax, FilterRGB, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	again, err := s.Render(ModeMinMax, FilterRGB, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if first != again {
		t.Error("identical render key should reuse the memoised image")
	}

	// a scale change within the same bucket also reuses it
	sameBucket, _ := s.Render(ModeMinMax, FilterRGB, 1.05)
	if first != sameBucket {
		t.Error("scale change within a bucket should not recompute")
	}

	other, err := s.Render(ModeStandard, FilterRGB, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if first == other {
		t.Error("mode change must invalidate the memoised image")
	}

	filtered, _ := s.Render(ModeStandard, FilterRed, 1.0)
	for i := 0; i < len(filtered.Pix); i += 4 {
		if filtered.Pix[i+1] != 0 || filtered.Pix[i+2] != 0 {
			t.Fatal("red filter left green/blue samples set")
		}
	}
}

func TestRenderWithoutImage(t *testing.T) {
	s := NewSession()
	if _, err := s.Render(ModeNone, FilterRGB, 1); !errors.Is(err, ErrNoImage) {
		t.Errorf("render on empty session: got %v, want ErrNoImage", err)
	}
	if _, _, err := s.QueryPixel(0, 0); !errors.Is(err, ErrNoImage) {
		t.Errorf("query on empty session: got %v, want ErrNoImage", err)
	}
	if h := s.Histogram(); h != nil {
		t.Error("histogram on empty session should be nil")
	}
}

func TestHistogramSumsFromPrecisionBuffer(t *testing.T) {
	const w, h = 6, 5
	vals := make([]float32, w*h)
	for i := range vals {
		vals[i] = float32(i)*31.7 - 200
	}
	s := loadFloatSession(t, w, h, vals)

	hist := s.Histogram()
	if len(hist) != 3 {
		t.Fatalf("histogram has %d channels, want 3", len(hist))
	}
	for c, channel := range hist {
		var sum uint32
		for _, v := range channel {
			sum += v
		}
		if sum != w*h {
			t.Errorf("channel %d counts sum to %d, want %d", c, sum, w*h)
		}
	}
}

func TestHistogramFlatSourceHitsMiddleBin(t *testing.T) {
	vals := make([]float32, 20)
	for i := range vals {
		vals[i] = 5.0
	}
	s := loadFloatSession(t, 5, 4, vals)

	hist := s.Histogram()
	if hist[0][127] != 20 {
		t.Errorf("flat source should land every sample in bin 127, got %d there", hist[0][127])
	}
}

func TestHistogramFromDisplayBuffer(t *testing.T) {
	b := NewBuffer(4, 4, 3)
	for i := range b.Pix {
		b.Pix[i] = uint8(i)
	}
	hist := histogramFromBuffer(b)
	for c := 0; c < 3; c++ {
		var sum uint32
		for _, v := range hist[c] {
			sum += v
		}
		if sum != 16 {
			t.Errorf("display histogram channel %d sums to %d, want 16", c, sum)
		}
	}
}
