package raster

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
)

// error values used across decode and query paths
var (
	// ErrDecode - the container was malformed or truncated
	ErrDecode = errors.New("raster: malformed or truncated image data")
	// ErrBufferShape - decoded sample count does not match width*height*channels
	ErrBufferShape = errors.New("raster: sample count does not match dimensions")
	// ErrOutOfBounds - a pixel query landed outside the image
	ErrOutOfBounds = errors.New("raster: pixel coordinate outside image")
)

// UnsupportedFormatError is returned when a container is recognised but the
// colour-type / bit-depth combination is not one we handle.
type UnsupportedFormatError struct {
	ColorType string
	BitDepth  int
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("raster: unsupported pixel format %s/%d-bit", e.ColorType, e.BitDepth)
}

// Buffer is a flat, tightly packed grid of 8-bit samples.
// Samples are interleaved, so the value of channel c at (x,y) lives at
// (y*Width+x)*Channels+c. Channels is 1 (gray), 3 (RGB) or 4 (RGBA).
type Buffer struct {
	Pix      []uint8
	Width    int
	Height   int
	Channels int
}

// allocates a zeroed buffer
func NewBuffer(w, h, channels int) Buffer {
	return Buffer{
		Pix:      make([]uint8, w*h*channels),
		Width:    w,
		Height:   h,
		Channels: channels,
	}
}

// wraps an existing sample slice, checking the shape invariant
func BufferFrom(pix []uint8, w, h, channels int) (Buffer, error) {
	if channels != 1 && channels != 3 && channels != 4 {
		return Buffer{}, fmt.Errorf("%w: %d channels", ErrBufferShape, channels)
	}
	if len(pix) != w*h*channels {
		return Buffer{}, fmt.Errorf("%w: have %d samples, want %d", ErrBufferShape, len(pix), w*h*channels)
	}
	return Buffer{Pix: pix, Width: w, Height: h, Channels: channels}, nil
}

// gets the sample for channel c at (x,y) - no bounds check, callers hold the invariant
func (b Buffer) At(x, y, c int) uint8 {
	return b.Pix[(y*b.Width+x)*b.Channels+c]
}

// copies the buffer, so a transform never aliases its input
func (b Buffer) Clone() Buffer {
	out := b
	out.Pix = make([]uint8, len(b.Pix))
	copy(out.Pix, b.Pix)
	return out
}

// luminance weights, matching the generic decoder's gray conversion
const (
	lumR = 0.2126
	lumG = 0.7152
	lumB = 0.0722
)

// Luminance reduces the buffer to a single row-major grid of float values.
// Gray input is taken as-is; colour input is weighted RGB.
func (b Buffer) Luminance() [][]float64 {
	out := make([][]float64, b.Height)
	for j := 0; j < b.Height; j++ {
		out[j] = make([]float64, b.Width)
		for i := 0; i < b.Width; i++ {
			if b.Channels == 1 {
				out[j][i] = float64(b.At(i, j, 0))
				continue
			}
			r := float64(b.At(i, j, 0))
			g := float64(b.At(i, j, 1))
			bl := float64(b.At(i, j, 2))
			out[j][i] = lumR*r + lumG*g + lumB*bl
		}
	}
	return out
}

// RGBA expands the buffer to a 4-channel interleaved slice for display.
// Gray is replicated into R,G,B; missing alpha becomes 255.
func (b Buffer) RGBA() []uint8 {
	n := b.Width * b.Height
	out := make([]uint8, 4*n)
	for i := 0; i < n; i++ {
		switch b.Channels {
		case 1:
			v := b.Pix[i]
			out[4*i], out[4*i+1], out[4*i+2], out[4*i+3] = v, v, v, 255
		case 3:
			out[4*i] = b.Pix[3*i]
			out[4*i+1] = b.Pix[3*i+1]
			out[4*i+2] = b.Pix[3*i+2]
			out[4*i+3] = 255
		case 4:
			copy(out[4*i:4*i+4], b.Pix[4*i:4*i+4])
		}
	}
	return out
}

// Image wraps the buffer as a stdlib image for resampling and texture upload
func (b Buffer) Image() image.Image {
	if b.Channels == 1 {
		im := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
		copy(im.Pix, b.Pix)
		return im
	}
	im := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	copy(im.Pix, b.RGBA())
	return im
}

// converts a decoded stdlib image into a Buffer, preserving the channel
// layout where the pixel data allows direct reuse
func bufferFromImage(m image.Image) Buffer {
	bounds := m.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	switch im := m.(type) {
	case *image.Gray:
		out := NewBuffer(w, h, 1)
		for j := 0; j < h; j++ {
			copy(out.Pix[j*w:(j+1)*w], im.Pix[j*im.Stride:j*im.Stride+w])
		}
		return out
	case *image.Gray16:
		out := NewBuffer(w, h, 1)
		for j := 0; j < h; j++ {
			for i := 0; i < w; i++ {
				out.Pix[j*w+i] = im.Pix[j*im.Stride+2*i] // high byte
			}
		}
		return out
	case *image.NRGBA:
		out := NewBuffer(w, h, 4)
		for j := 0; j < h; j++ {
			copy(out.Pix[j*w*4:(j+1)*w*4], im.Pix[j*im.Stride:j*im.Stride+4*w])
		}
		return out
	case *image.NRGBA64:
		out := NewBuffer(w, h, 4)
		for j := 0; j < h; j++ {
			for i := 0; i < 4*w; i++ {
				out.Pix[j*4*w+i] = im.Pix[j*im.Stride+2*i]
			}
		}
		return out
	default:
		// premultiplied, paletted and YCbCr sources all go through draw
		tmp := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(tmp, tmp.Bounds(), m, bounds.Min, draw.Src)
		out := NewBuffer(w, h, 4)
		copy(out.Pix, tmp.Pix)
		return out
	}
}
