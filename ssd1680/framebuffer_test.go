// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1680

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

func TestFrameBufferSize(t *testing.T) {
	for _, size := range []image.Point{
		{128, 296},
		{8, 1},
		{200, 200},
		{16, 3},
	} {
		f := NewFrameBuffer(size.X, size.Y)
		if got, want := len(f.Bytes()), size.X*size.Y/8; got != want {
			t.Errorf("NewFrameBuffer(%d, %d) has %d bytes, want %d", size.X, size.Y, got, want)
		}
		if got := f.Stride(); got != size.X/8 {
			t.Errorf("Stride() = %d, want %d", got, size.X/8)
		}
		if diff := cmp.Diff(f.Size(), size); diff != "" {
			t.Errorf("Size() difference (-got +want):\n%s", diff)
		}
		if !bytes.Equal(f.Bytes(), make([]byte, len(f.Bytes()))) {
			t.Errorf("NewFrameBuffer(%d, %d) is not blank", size.X, size.Y)
		}
	}
}

func TestFrameBufferSetPixel(t *testing.T) {
	for _, tc := range []struct {
		x, y     int
		wantPos  int
		wantMask byte
	}{
		{0, 0, 0, 0x80},
		{7, 0, 0, 0x01},
		{8, 0, 1, 0x80},
		{127, 0, 15, 0x01},
		{0, 1, 16, 0x80},
		{13, 2, 33, 0x04},
		{127, 295, 4735, 0x01},
	} {
		f := NewFrameBuffer(128, 296)

		f.SetPixel(tc.x, tc.y, Foreground)

		want := make([]byte, 4736)
		want[tc.wantPos] = tc.wantMask
		if diff := cmp.Diff(f.Bytes(), want); diff != "" {
			t.Errorf("SetPixel(%d, %d) difference (-got +want):\n%s", tc.x, tc.y, diff)
		}
		if got := f.Pixel(tc.x, tc.y); got != Foreground {
			t.Errorf("Pixel(%d, %d) = %v, want %v", tc.x, tc.y, got, Foreground)
		}

		f.SetPixel(tc.x, tc.y, Background)

		if !bytes.Equal(f.Bytes(), make([]byte, 4736)) {
			t.Errorf("SetPixel(%d, %d, Background) did not clear the bit", tc.x, tc.y)
		}
		if got := f.Pixel(tc.x, tc.y); got != Background {
			t.Errorf("Pixel(%d, %d) = %v, want %v", tc.x, tc.y, got, Background)
		}
	}
}

func TestFrameBufferSetPixelKeepsNeighbours(t *testing.T) {
	f := NewFrameBuffer(16, 2)
	f.Fill(Foreground)

	f.SetPixel(3, 1, Background)

	want := []byte{0xff, 0xff, 0xef, 0xff}
	if diff := cmp.Diff(f.Bytes(), want); diff != "" {
		t.Errorf("SetPixel() difference (-got +want):\n%s", diff)
	}
}

func TestFrameBufferOutOfRange(t *testing.T) {
	f := NewFrameBuffer(128, 296)
	f.SetPixel(5, 5, Foreground)
	before := append([]byte(nil), f.Bytes()...)

	for _, pt := range []image.Point{
		{-1, 0},
		{0, -1},
		{128, 0},
		{0, 296},
		{128, 295},
		{1000, 1000},
		{-8, 10},
	} {
		for _, c := range []Color{Foreground, Background} {
			f.SetPixel(pt.X, pt.Y, c)
			if !bytes.Equal(f.Bytes(), before) {
				t.Fatalf("SetPixel(%d, %d, %v) modified the buffer", pt.X, pt.Y, c)
			}
		}
		if got := f.Pixel(pt.X, pt.Y); got != Background {
			t.Errorf("Pixel(%d, %d) = %v, want %v", pt.X, pt.Y, got, Background)
		}
	}
}

func TestFrameBufferFill(t *testing.T) {
	f := NewFrameBuffer(16, 2)

	f.Fill(Foreground)
	if diff := cmp.Diff(f.Bytes(), []byte{0xff, 0xff, 0xff, 0xff}); diff != "" {
		t.Errorf("Fill(Foreground) difference (-got +want):\n%s", diff)
	}

	f.Fill(Background)
	if diff := cmp.Diff(f.Bytes(), []byte{0, 0, 0, 0}); diff != "" {
		t.Errorf("Fill(Background) difference (-got +want):\n%s", diff)
	}
}

func TestFrameBufferDraw(t *testing.T) {
	f := NewFrameBuffer(16, 2)

	// Dark colours are ink, light colours are paper.
	draw.Draw(f, image.Rect(0, 0, 4, 1), &image.Uniform{C: color.Black}, image.Point{}, draw.Src)
	draw.Draw(f, image.Rect(8, 1, 16, 2), &image.Uniform{C: image1bit.Off}, image.Point{}, draw.Src)
	draw.Draw(f, image.Rect(10, 1, 12, 2), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	want := []byte{0xf0, 0x00, 0x00, 0xcf}
	if diff := cmp.Diff(f.Bytes(), want); diff != "" {
		t.Errorf("draw.Draw() difference (-got +want):\n%s", diff)
	}
	if got := f.At(0, 0); got != Foreground {
		t.Errorf("At(0, 0) = %v, want %v", got, Foreground)
	}
	if got := f.At(4, 0); got != Background {
		t.Errorf("At(4, 0) = %v, want %v", got, Background)
	}
}

func TestColorModel(t *testing.T) {
	for _, tc := range []struct {
		in   color.Color
		want Color
	}{
		{color.Black, Foreground},
		{color.White, Background},
		{color.Gray{Y: 0x40}, Foreground},
		{color.Gray{Y: 0xc0}, Background},
		{image1bit.On, Background},
		{image1bit.Off, Foreground},
		{Foreground, Foreground},
		{Background, Background},
	} {
		if got := ColorModel.Convert(tc.in); got != tc.want {
			t.Errorf("Convert(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
