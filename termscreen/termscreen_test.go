// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package termscreen

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/maruel/ansi256"
)

func frame(rows ...[]color.Color) string {
	var b strings.Builder
	b.WriteString("\033[0m\n")
	for _, row := range rows {
		for _, c := range row {
			b.WriteString(ansi256.Default.Block(color.NRGBAModel.Convert(c).(color.NRGBA)))
		}
		b.WriteString("\033[0m\n")
	}
	return b.String()
}

func TestDraw(t *testing.T) {
	k, w := color.Gray{}, color.Gray{Y: 0xff}

	for _, tc := range []struct {
		name string
		opts Opts
		rect image.Rectangle
		want string
	}{
		{
			name: "full",
			opts: Opts{Width: 3, Height: 2},
			rect: image.Rect(0, 0, 3, 2),
			want: frame([]color.Color{k, k, k}, []color.Color{k, k, k}),
		},
		{
			name: "partial",
			opts: Opts{Width: 3, Height: 2},
			rect: image.Rect(1, 1, 3, 2),
			want: frame([]color.Color{w, w, w}, []color.Color{w, k, k}),
		},
		{
			name: "clipped",
			opts: Opts{Width: 2, Height: 1},
			rect: image.Rect(-5, -5, 50, 50),
			want: frame([]color.Color{k, k}),
		},
		{
			name: "step",
			opts: Opts{Width: 4, Height: 4, Step: 2},
			rect: image.Rect(0, 0, 1, 4),
			want: frame([]color.Color{k, w}, []color.Color{k, w}),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			d := NewWriter(&out, &tc.opts)

			if err := d.Draw(tc.rect, image.Black, image.Point{}); err != nil {
				t.Fatalf("Draw() failed: %v", err)
			}

			if diff := cmp.Diff(out.String(), tc.want); diff != "" {
				t.Errorf("Draw() output difference (-got +want):\n%s", diff)
			}
		})
	}
}

func TestDrawNegativeOrigin(t *testing.T) {
	k, w := color.Gray{}, color.Gray{Y: 0xff}
	src := image.NewGray(image.Rect(0, 0, 4, 1))
	src.SetGray(0, 0, w)
	src.SetGray(1, 0, k)
	src.SetGray(2, 0, w)
	src.SetGray(3, 0, k)

	var out bytes.Buffer
	d := NewWriter(&out, &Opts{Width: 2, Height: 1})

	// Destination x=-2 maps to source x=0, so the screen shows src[2:4].
	if err := d.Draw(image.Rect(-2, 0, 2, 1), src, image.Point{}); err != nil {
		t.Fatalf("Draw() failed: %v", err)
	}

	if diff := cmp.Diff(out.String(), frame([]color.Color{w, k})); diff != "" {
		t.Errorf("Draw() output difference (-got +want):\n%s", diff)
	}
}

func TestHalt(t *testing.T) {
	var out bytes.Buffer
	d := NewWriter(&out, &Opts{Width: 1, Height: 1})

	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "\n\033[0m" {
		t.Errorf("Halt() wrote %q", got)
	}
	if got := d.String(); got != "TermScreen{1x1}" {
		t.Errorf("String() = %q", got)
	}
}
