// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1680

import (
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Color is the value of a single pixel in the frame buffer.
type Color bool

const (
	// Background is the paper colour. Its bit is cleared in the frame buffer.
	Background Color = false
	// Foreground is the ink colour. Its bit is set in the frame buffer.
	Foreground Color = true
)

// RGBA implements color.Color. Foreground renders as black ink.
func (c Color) RGBA() (r, g, b, a uint32) {
	if c == Foreground {
		return 0, 0, 0, 0xffff
	}
	return 0xffff, 0xffff, 0xffff, 0xffff
}

func (c Color) String() string {
	if c == Foreground {
		return "Foreground"
	}
	return "Background"
}

// ColorModel converts any colour to Foreground or Background. Dark colours
// become Foreground.
var ColorModel = color.ModelFunc(convert)

func convert(c color.Color) color.Color {
	if v, ok := c.(Color); ok {
		return v
	}
	return Color(image1bit.BitModel.Convert(c).(image1bit.Bit) == image1bit.Off)
}

// PixelSurface is the drawing capability handed to Opts.Writer on every
// update.
type PixelSurface interface {
	draw.Image
	// SetPixel sets a single pixel. Out of range coordinates are ignored.
	SetPixel(x, y int, c Color)
}

// FrameBuffer is a packed 1 bit per pixel image. Rows are stored top to
// bottom, each byte holds 8 horizontally consecutive pixels with the most
// significant bit being the leftmost pixel.
type FrameBuffer struct {
	w, h   int
	stride int
	pix    []byte
}

// NewFrameBuffer returns a frame buffer filled with Background. The width must
// be a multiple of 8.
func NewFrameBuffer(w, h int) *FrameBuffer {
	stride := w / 8
	return &FrameBuffer{
		w:      w,
		h:      h,
		stride: stride,
		pix:    make([]byte, stride*h),
	}
}

// Size returns the dimensions in pixels.
func (f *FrameBuffer) Size() image.Point {
	return image.Pt(f.w, f.h)
}

// Stride returns the number of bytes per row.
func (f *FrameBuffer) Stride() int {
	return f.stride
}

// Bytes returns the backing store. It is not a copy.
func (f *FrameBuffer) Bytes() []byte {
	return f.pix
}

// Fill sets every pixel to c.
func (f *FrameBuffer) Fill(c Color) {
	var v byte
	if c == Foreground {
		v = 0xFF
	}
	for i := range f.pix {
		f.pix[i] = v
	}
}

func (f *FrameBuffer) offset(x, y int) (int, byte, bool) {
	if x < 0 || x >= f.w || y < 0 || y >= f.h {
		return 0, 0, false
	}
	return y*f.stride + x/8, 0x80 >> uint(x%8), true
}

// SetPixel sets the pixel at (x, y). Out of range coordinates are ignored.
func (f *FrameBuffer) SetPixel(x, y int, c Color) {
	pos, mask, ok := f.offset(x, y)
	if !ok {
		return
	}
	if c == Foreground {
		f.pix[pos] |= mask
	} else {
		f.pix[pos] &^= mask
	}
}

// Pixel returns the pixel at (x, y). Out of range coordinates read as
// Background.
func (f *FrameBuffer) Pixel(x, y int) Color {
	pos, mask, ok := f.offset(x, y)
	if !ok {
		return Background
	}
	return Color(f.pix[pos]&mask != 0)
}

// ColorModel implements image.Image.
func (f *FrameBuffer) ColorModel() color.Model {
	return ColorModel
}

// Bounds implements image.Image.
func (f *FrameBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.w, f.h)
}

// At implements image.Image.
func (f *FrameBuffer) At(x, y int) color.Color {
	return f.Pixel(x, y)
}

// Set implements draw.Image.
func (f *FrameBuffer) Set(x, y int, c color.Color) {
	f.SetPixel(x, y, convert(c).(Color))
}

var _ PixelSurface = &FrameBuffer{}
