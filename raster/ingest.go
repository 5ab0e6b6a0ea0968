package raster

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// SourceData is the retained full-precision sample sequence of a
// floating-point image, kept alongside the 8-bit display buffer so the
// pixel probe and histogram can report true values. Samples are
// interleaved, len(Samples) == Width*Height*Channels.
type SourceData struct {
	Samples  []float32
	Width    int
	Height   int
	Channels int
	Min      float32
	Max      float32
}

// IngestResult is what a successful decode produces: a display buffer,
// plus the precision data when the source exceeds 8-bit display range.
type IngestResult struct {
	Display Buffer
	Source  *SourceData
}

// FloatSource reports whether full-precision samples were retained.
func (r *IngestResult) FloatSource() bool {
	return r.Source != nil
}

// IngestFile reads and decodes an image file.
func IngestFile(path string) (*IngestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Ingest(data, path)
}

// Ingest decodes raw image bytes. The generic decoders are tried first;
// when they fail and the name carries a TIFF extension, the direct TIFF
// reader takes over - it understands the 32-bit floating-point sample
// formats the generic path does not.
func Ingest(data []byte, name string) (*IngestResult, error) {
	m, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return &IngestResult{Display: bufferFromImage(m)}, nil
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".tif" || ext == ".tiff" {
		log.Println("generic decode failed, trying direct TIFF reader:", err)
		return decodeTIFF(data)
	}
	return nil, fmt.Errorf("%w: %v", ErrDecode, err)
}
