// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"image"
	"image/color"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/makeworld-the-better-one/dither"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// renderer produces the picture drawn into the frame buffer on every update.
type renderer func(now time.Time) image.Image

func fontFace(size float64) (font.Face, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		Hinting: font.HintingFull,
	}), nil
}

func blank(w, h int) *gg.Context {
	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetColor(color.Black)
	return dc
}

// clockRenderer draws an analog clock with the time and date below it.
func clockRenderer(w, h int) (renderer, error) {
	large, err := fontFace(36)
	if err != nil {
		return nil, err
	}
	small, err := fontFace(16)
	if err != nil {
		return nil, err
	}

	return func(now time.Time) image.Image {
		dc := blank(w, h)
		cx, cy := float64(w)/2, float64(w)/2+8
		r := float64(w)/2 - 8

		dc.SetLineWidth(3)
		dc.DrawCircle(cx, cy, r)
		dc.Stroke()

		dc.SetLineWidth(2)
		for i := 0; i < 12; i++ {
			a := float64(i) * math.Pi / 6
			dc.DrawLine(cx+math.Sin(a)*(r-8), cy-math.Cos(a)*(r-8), cx+math.Sin(a)*r, cy-math.Cos(a)*r)
		}
		dc.Stroke()

		hour := (float64(now.Hour()%12) + float64(now.Minute())/60) * math.Pi / 6
		minute := float64(now.Minute()) * math.Pi / 30
		dc.SetLineWidth(5)
		dc.DrawLine(cx, cy, cx+math.Sin(hour)*r*0.5, cy-math.Cos(hour)*r*0.5)
		dc.Stroke()
		dc.SetLineWidth(3)
		dc.DrawLine(cx, cy, cx+math.Sin(minute)*r*0.8, cy-math.Cos(minute)*r*0.8)
		dc.Stroke()

		dc.SetFontFace(large)
		dc.DrawStringAnchored(now.Format("15:04"), cx, cy+r+40, 0.5, 0.5)
		dc.SetFontFace(small)
		dc.DrawStringAnchored(now.Format("Mon 2 Jan"), cx, cy+r+80, 0.5, 0.5)
		return dc.Image()
	}, nil
}

// textRenderer draws text wrapped and centered on the panel.
func textRenderer(w, h int, text string) (renderer, error) {
	face, err := fontFace(24)
	if err != nil {
		return nil, err
	}
	return func(time.Time) image.Image {
		dc := blank(w, h)
		dc.SetFontFace(face)
		dc.DrawStringWrapped(text, float64(w)/2, float64(h)/2, 0.5, 0.5, float64(w-16), 1.2, gg.AlignCenter)
		return dc.Image()
	}, nil
}

// imageRenderer loads a picture once and dithers it to black and white.
func imageRenderer(w, h int, path string, rotate float64) (renderer, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	img := fitImage(src, w, h, rotate)
	return func(time.Time) image.Image {
		return img
	}, nil
}

func fitImage(src image.Image, w, h int, rotate float64) image.Image {
	rot := imaging.Rotate(src, rotate, color.White)
	fit := imaging.Fit(rot, w, h, imaging.Lanczos)
	img := image.Image(imaging.PasteCenter(imaging.New(w, h, color.White), fit))

	d := dither.NewDitherer([]color.Color{color.Black, color.White})
	d.Matrix = dither.FloydSteinberg
	d.Serpentine = true
	if tmp := d.DitherPaletted(img); tmp != nil {
		img = tmp
	}
	return img
}
