package raster

import (
	"errors"
	"image"
	"math"
	"os"
	"sync"

	"github.com/disintegration/imaging"
)

// ErrNoImage - a render or query was attempted before any load succeeded
var ErrNoImage = errors.New("raster: no image loaded")

// Filter selects which colour channels survive to the display texture.
type Filter int

const (
	FilterRGB Filter = iota
	FilterRed
	FilterGreen
	FilterBlue
)

func (f Filter) String() string {
	switch f {
	case FilterRed:
		return "Red"
	case FilterGreen:
		return "Green"
	case FilterBlue:
		return "Blue"
	}
	return "RGB"
}

// ScaleBucketWidth groups zoom scales into buckets for render memoisation.
// Scale changes within a bucket reuse the previous texture.
var ScaleBucketWidth = 0.2

type renderKey struct {
	gen    uint64
	mode   Mode
	filter Filter
	bucket int
}

// Session owns the currently loaded image: the 8-bit display buffer plus,
// for floating-point sources, the retained precision samples. The two are
// replaced together under the lock, so a reader never observes a display
// buffer paired with another image's precision data.
type Session struct {
	mu      sync.Mutex
	loaded  bool
	display Buffer
	source  *SourceData
	gen     uint64

	memoKey renderKey
	memo    *image.NRGBA
}

func NewSession() *Session {
	return &Session{}
}

// LoadFile reads and decodes an image file into the session.
func (s *Session) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return s.Load(data, path)
}

// Load decodes raw bytes and replaces the session state as a unit. A
// failed decode leaves the previous image untouched.
func (s *Session) Load(data []byte, name string) error {
	res, err := Ingest(data, name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.display = res.Display
	s.source = res.Source
	s.loaded = true
	s.gen++
	s.memo = nil
	return nil
}

func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Dims reports the native image dimensions (source dimensions for float
// images, which match the display buffer's by construction).
func (s *Session) Dims() (w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display.Width, s.display.Height
}

// FloatSource reports whether the loaded image retained precision samples.
func (s *Session) FloatSource() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source != nil
}

// SourceRange returns the recorded (min,max) of the floating-point source,
// for on-screen range labels. ok is false for plain integer images.
func (s *Session) SourceRange() (min, max float32, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return 0, 0, false
	}
	return s.source.Min, s.source.Max, true
}

// QueryPixel reports the channel values at an image coordinate: the true
// floating-point samples when the precision buffer exists, the display
// bytes otherwise. exact says which representation answered. Coordinates
// are checked against native dimensions, never the on-screen scaled size.
func (s *Session) QueryPixel(x, y int) (values []float64, exact bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil, false, ErrNoImage
	}
	if s.source != nil {
		src := s.source
		if x < 0 || y < 0 || x >= src.Width || y >= src.Height {
			return nil, false, ErrOutOfBounds
		}
		values = make([]float64, src.Channels)
		base := (y*src.Width + x) * src.Channels
		for c := range values {
			values[c] = float64(src.Samples[base+c])
		}
		return values, true, nil
	}
	b := s.display
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return nil, false, ErrOutOfBounds
	}
	values = make([]float64, b.Channels)
	for c := range values {
		values[c] = float64(b.At(x, y, c))
	}
	return values, false, nil
}

// Render produces the display-ready RGBA image for a transform mode,
// channel filter and zoom scale. Results are memoised on the key
// (image generation, mode, filter, scale bucket), so repainting without
// an input change skips the transform entirely.
func (s *Session) Render(mode Mode, filter Filter, scale float64) (*image.NRGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil, ErrNoImage
	}

	key := renderKey{gen: s.gen, mode: mode, filter: filter, bucket: scaleBucket(scale)}
	if s.memo != nil && key == s.memoKey {
		return s.memo, nil
	}

	working := s.display
	if scale < 1 {
		// shrink before transforming when displaying smaller; zooming in
		// keeps the original so quality is preserved
		dw := int(float64(working.Width) * scale)
		dh := int(float64(working.Height) * scale)
		if dw >= 1 && dh >= 1 {
			working = bufferFromImage(imaging.Resize(working.Image(), dw, dh, imaging.Lanczos))
		}
	}

	out := Transform(mode, working)
	rgba := out.RGBA()
	applyFilter(rgba, filter)

	im := image.NewNRGBA(image.Rect(0, 0, out.Width, out.Height))
	copy(im.Pix, rgba)
	s.memoKey = key
	s.memo = im
	return im, nil
}

// Histogram returns 256-bucket counts for the three display channels,
// derived from the retained precision samples when present (normalised by
// the recorded range, as at ingestion) and from the display bytes
// otherwise. Returns nil before the first successful load.
func (s *Session) Histogram() [][]uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil
	}
	if s.source != nil {
		return histogramFromSource(s.source)
	}
	return histogramFromBuffer(s.display)
}

func scaleBucket(scale float64) int {
	return int(math.Round(scale / ScaleBucketWidth))
}

func applyFilter(rgba []uint8, f Filter) {
	if f == FilterRGB {
		return
	}
	for i := 0; i < len(rgba); i += 4 {
		switch f {
		case FilterRed:
			rgba[i+1], rgba[i+2] = 0, 0
		case FilterGreen:
			rgba[i], rgba[i+2] = 0, 0
		case FilterBlue:
			rgba[i], rgba[i+1] = 0, 0
		}
	}
}
