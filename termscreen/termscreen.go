// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termscreen implements a 2D display.Drawer that outputs to the
// terminal using ANSI color codes.
//
// It previews e-paper frames on a workstation, where a refresh would
// otherwise take seconds and a real panel.
package termscreen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// Opts represents the options available for this display.
type Opts struct {
	Width  int
	Height int
	// Step renders only every Step-th column and row. Defaults to 1.
	Step    int
	Palette *ansi256.Palette

	_ struct{}
}

// Dev is a monochrome panel emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	step    int
	palette ansi256.Palette

	img *image.Gray
	buf bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	return NewWriter(colorable.NewColorableStdout(), opts)
}

// NewWriter returns a Dev writing its frames to w.
func NewWriter(w io.Writer, opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	step := opts.Step
	if step < 1 {
		step = 1
	}
	d := &Dev{
		w:       w,
		step:    step,
		palette: *p,
		img:     image.NewGray(image.Rect(0, 0, opts.Width, opts.Height)),
	}
	draw.Draw(d.img, d.img.Bounds(), image.White, image.Point{}, draw.Src)
	return d
}

func (d *Dev) String() string {
	return fmt.Sprintf("TermScreen{%dx%d}", d.img.Rect.Dx(), d.img.Rect.Dy())
}

// Halt implements conn.Resource.
//
// It resets the terminal attributes so it is not corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.GrayModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.img.Rect
}

// Draw implements display.Drawer. The whole screen is written after every
// call.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	draw.Draw(d.img, r, src, sp, draw.Src)
	return d.refresh()
}

func (d *Dev) refresh() error {
	d.buf.Reset()
	_, _ = d.buf.WriteString("\033[0m\n")
	b := d.img.Rect
	for y := b.Min.Y; y < b.Max.Y; y += d.step {
		for x := b.Min.X; x < b.Max.X; x += d.step {
			c := color.NRGBAModel.Convert(d.img.GrayAt(x, y)).(color.NRGBA)
			_, _ = io.WriteString(&d.buf, d.palette.Block(c))
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
