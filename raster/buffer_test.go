package raster

import (
	"errors"
	"image"
	"testing"
)

func TestBufferFromShapeInvariant(t *testing.T) {
	if _, err := BufferFrom(make([]uint8, 11), 2, 2, 3); !errors.Is(err, ErrBufferShape) {
		t.Errorf("wrong sample count: got %v, want ErrBufferShape", err)
	}
	if _, err := BufferFrom(make([]uint8, 8), 2, 2, 2); !errors.Is(err, ErrBufferShape) {
		t.Errorf("2 channels: got %v, want ErrBufferShape", err)
	}
	b, err := BufferFrom(make([]uint8, 12), 2, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if b.Width != 2 || b.Height != 2 || b.Channels != 3 {
		t.Error("valid buffer lost its shape")
	}
}

func TestBufferRGBAExpansion(t *testing.T) {
	gray := NewBuffer(2, 1, 1)
	gray.Pix[0], gray.Pix[1] = 10, 200
	rgba := gray.RGBA()
	want := []uint8{10, 10, 10, 255, 200, 200, 200, 255}
	for i := range want {
		if rgba[i] != want[i] {
			t.Fatalf("gray expansion sample %d is %d, want %d", i, rgba[i], want[i])
		}
	}

	rgb := NewBuffer(1, 1, 3)
	copy(rgb.Pix, []uint8{1, 2, 3})
	rgba = rgb.RGBA()
	if rgba[3] != 255 {
		t.Errorf("missing alpha should become opaque, got %d", rgba[3])
	}
}

func TestBufferLuminance(t *testing.T) {
	gray := NewBuffer(1, 1, 1)
	gray.Pix[0] = 77
	if got := gray.Luminance()[0][0]; got != 77 {
		t.Errorf("gray luminance is %g, want 77", got)
	}

	white := NewBuffer(1, 1, 3)
	copy(white.Pix, []uint8{255, 255, 255})
	if got := white.Luminance()[0][0]; got < 254.9 || got > 255.1 {
		t.Errorf("white luminance is %g, want 255 (weights sum to 1)", got)
	}
}

func TestBufferFromImageGray16TakesHighByte(t *testing.T) {
	im := image.NewGray16(image.Rect(0, 0, 1, 1))
	im.Pix[0], im.Pix[1] = 0xAB, 0xCD
	b := bufferFromImage(im)
	if b.Channels != 1 || b.Pix[0] != 0xAB {
		t.Errorf("Gray16 reduced to %d, want 0xAB", b.Pix[0])
	}
}
