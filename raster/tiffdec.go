package raster

import (
	"encoding/binary"
	"fmt"
	"math"
)

// TIFF 6.0 baseline tags
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagStripByteCounts = 279
	tagSampleFormat    = 339
)

const (
	compressionNone    = 1
	photometricRGB     = 2
	photometricPalette = 3
	sampleFormatUint   = 1
	sampleFormatFloat  = 3
)

// a float image whose whole range is below this is treated as flat and
// displayed as mid-gray
const flatRangeEpsilon = 1.1920929e-07

type tiffField struct {
	typ  uint16
	vals []uint64
}

func (f tiffField) first(def uint64) uint64 {
	if len(f.vals) == 0 {
		return def
	}
	return f.vals[0]
}

// decodeTIFF reads a classic (non-Big) TIFF directly, first IFD only.
// It exists for the sample layouts the generic decoder rejects - above
// all 32-bit floating-point scientific data - but handles the full
// {Gray,RGB,RGBA} x {8,16,32-float} matrix so the fallback is total.
func decodeTIFF(data []byte) (*IngestResult, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: short TIFF header", ErrDecode)
	}
	var bo binary.ByteOrder
	switch string(data[:2]) {
	case "II":
		bo = binary.LittleEndian
	case "MM":
		bo = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: bad TIFF byte-order mark", ErrDecode)
	}
	if bo.Uint16(data[2:4]) != 42 {
		return nil, fmt.Errorf("%w: bad TIFF magic", ErrDecode)
	}

	fields, err := readIFD(data, bo, bo.Uint32(data[4:8]))
	if err != nil {
		return nil, err
	}

	width := int(fields[tagImageWidth].first(0))
	height := int(fields[tagImageLength].first(0))
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: missing image dimensions", ErrDecode)
	}
	samplesPerPixel := int(fields[tagSamplesPerPixel].first(1))
	compression := fields[tagCompression].first(compressionNone)
	photometric := fields[tagPhotometric].first(1)
	sampleFormat := fields[tagSampleFormat].first(sampleFormatUint)

	bits := 0
	for i, v := range fields[tagBitsPerSample].vals {
		if i == 0 {
			bits = int(v)
		} else if int(v) != bits {
			return nil, &UnsupportedFormatError{ColorType: "mixed depth", BitDepth: int(v)}
		}
	}
	if bits == 0 {
		return nil, fmt.Errorf("%w: missing bits per sample", ErrDecode)
	}

	colorType, ok := colorTypeName(photometric, samplesPerPixel)
	if !ok {
		return nil, &UnsupportedFormatError{
			ColorType: fmt.Sprintf("photometric %d with %d samples", photometric, samplesPerPixel),
			BitDepth:  bits,
		}
	}
	if compression != compressionNone {
		return nil, &UnsupportedFormatError{
			ColorType: fmt.Sprintf("%s compression %d", colorType, compression),
			BitDepth:  bits,
		}
	}

	raw, err := readStrips(data, fields)
	if err != nil {
		return nil, err
	}
	sampleCount := width * height * samplesPerPixel
	if len(raw) != sampleCount*bits/8 {
		return nil, fmt.Errorf("%w: have %d bytes of strip data, want %d",
			ErrBufferShape, len(raw), sampleCount*bits/8)
	}

	switch {
	case sampleFormat == sampleFormatUint && bits == 8:
		buf, err := BufferFrom(raw, width, height, samplesPerPixel)
		if err != nil {
			return nil, err
		}
		return &IngestResult{Display: buf}, nil

	case sampleFormat == sampleFormatUint && bits == 16:
		out := NewBuffer(width, height, samplesPerPixel)
		for i := 0; i < sampleCount; i++ {
			out.Pix[i] = uint8(bo.Uint16(raw[2*i:]) >> 8)
		}
		return &IngestResult{Display: out}, nil

	case sampleFormat == sampleFormatFloat && bits == 32:
		samples := make([]float32, sampleCount)
		for i := range samples {
			samples[i] = math.Float32frombits(bo.Uint32(raw[4*i:]))
		}
		return ingestFloatSamples(samples, width, height, samplesPerPixel), nil
	}
	return nil, &UnsupportedFormatError{ColorType: colorType, BitDepth: bits}
}

// ingestFloatSamples builds the 8-bit display approximation of float data
// and retains the samples verbatim. The dynamic-range statistics cover
// colour samples only; alpha is taken as already normalised to [0,1].
func ingestFloatSamples(samples []float32, width, height, channels int) *IngestResult {
	minVal := float32(math.Inf(1))
	maxVal := float32(math.Inf(-1))
	for i, v := range samples {
		if channels == 4 && i%4 == 3 {
			continue
		}
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	out := NewBuffer(width, height, channels)
	span := float64(maxVal) - float64(minVal)
	for i, v := range samples {
		switch {
		case channels == 4 && i%4 == 3:
			a := float64(v)
			if a < 0 {
				a = 0
			}
			if a > 1 {
				a = 1
			}
			out.Pix[i] = uint8(math.Round(a * 255))
		case span > flatRangeEpsilon:
			out.Pix[i] = uint8(math.Round((float64(v) - float64(minVal)) / span * 255))
		default:
			out.Pix[i] = 128
		}
	}

	return &IngestResult{
		Display: out,
		Source: &SourceData{
			Samples:  samples,
			Width:    width,
			Height:   height,
			Channels: channels,
			Min:      minVal,
			Max:      maxVal,
		},
	}
}

func colorTypeName(photometric uint64, samplesPerPixel int) (string, bool) {
	switch {
	case samplesPerPixel == 1 && photometric <= 1:
		return "Gray", true
	case samplesPerPixel == 3 && photometric == photometricRGB:
		return "RGB", true
	case samplesPerPixel == 4 && photometric == photometricRGB:
		return "RGBA", true
	}
	return "", false
}

// readIFD parses one image file directory into a tag -> field map.
func readIFD(data []byte, bo binary.ByteOrder, off uint32) (map[uint16]tiffField, error) {
	if int(off)+2 > len(data) {
		return nil, fmt.Errorf("%w: IFD offset past end of file", ErrDecode)
	}
	n := int(bo.Uint16(data[off : off+2]))
	fields := make(map[uint16]tiffField, n)

	for i := 0; i < n; i++ {
		base := int(off) + 2 + i*12
		if base+12 > len(data) {
			return nil, fmt.Errorf("%w: truncated IFD entry", ErrDecode)
		}
		tag := bo.Uint16(data[base : base+2])
		typ := bo.Uint16(data[base+2 : base+4])
		count := int(bo.Uint32(data[base+4 : base+8]))

		size := typeSize(typ)
		if size == 0 {
			continue // type we never consume
		}
		total := size * count
		valOff := base + 8
		if total > 4 {
			valOff = int(bo.Uint32(data[base+8 : base+12]))
		}
		if valOff+total > len(data) {
			return nil, fmt.Errorf("%w: tag %d value past end of file", ErrDecode, tag)
		}

		vals := make([]uint64, count)
		for k := 0; k < count; k++ {
			switch size {
			case 1:
				vals[k] = uint64(data[valOff+k])
			case 2:
				vals[k] = uint64(bo.Uint16(data[valOff+2*k:]))
			case 4:
				vals[k] = uint64(bo.Uint32(data[valOff+4*k:]))
			}
		}
		fields[tag] = tiffField{typ: typ, vals: vals}
	}
	return fields, nil
}

// byte sizes of the TIFF field types we read (BYTE, SHORT, LONG)
func typeSize(typ uint16) int {
	switch typ {
	case 1: // BYTE
		return 1
	case 3: // SHORT
		return 2
	case 4: // LONG
		return 4
	}
	return 0
}

// readStrips concatenates the pixel strips in directory order.
func readStrips(data []byte, fields map[uint16]tiffField) ([]uint8, error) {
	offsets := fields[tagStripOffsets].vals
	counts := fields[tagStripByteCounts].vals
	if len(offsets) == 0 || len(offsets) != len(counts) {
		return nil, fmt.Errorf("%w: missing or mismatched strip tables", ErrDecode)
	}
	total := 0
	for _, c := range counts {
		total += int(c)
	}
	raw := make([]uint8, 0, total)
	for i := range offsets {
		start := int(offsets[i])
		end := start + int(counts[i])
		if start < 0 || end > len(data) {
			return nil, fmt.Errorf("%w: strip %d outside file", ErrDecode, i)
		}
		raw = append(raw, data[start:end]...)
	}
	return raw, nil
}
