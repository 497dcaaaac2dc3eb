// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Binary epd2in9 periodically refreshes an SSD1680 e-paper panel with a
// clock, a text or a picture.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/epaper/ssd1680"
	"github.com/GermanBionicSystems/epaper/termscreen"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/conn/v3/spi/spitest"
	"periph.io/x/host/v3"
)

var (
	spiName  = flag.String("spi", "", "SPI port to use.")
	dcPin    = flag.String("dc", "GPIO25", "Data/Command pin.")
	csPin    = flag.String("cs", "", "Chip-select pin, empty when driven by the SPI port.")
	rstPin   = flag.String("rst", "GPIO17", "Reset pin, empty if not wired.")
	busyPin  = flag.String("busy", "GPIO24", "Busy pin, empty if not wired.")
	powerPin = flag.String("power", "", "Panel power enable pin, empty if not gated.")
	interval = flag.Duration("interval", 60*time.Second, "Time between refreshes.")
	mode     = flag.String("mode", "clock", "What to display: clock, text or image.")
	text     = flag.String("text", "Hello from periph!", "Text for -mode=text.")
	picture  = flag.String("image", "", "Picture file for -mode=image.")
	rotate   = flag.Float64("rotate", 0.0, "Picture rotation in degrees.")
	once     = flag.Bool("once", false, "Refresh once and exit.")
	dryRun   = flag.Bool("dry-run", false, "Use fake pins and bus instead of hardware.")
	preview  = flag.Bool("preview", false, "Print every frame to the terminal.")
	stall    = flag.Duration("stall", 30*time.Second, "Warn when a refresh makes no progress for this long.")
	logLevel = flag.String("log-level", "info", "Log level.")
)

func main() {
	flag.Parse()
	if err := mainImpl(); err != nil {
		logrus.Fatal(err)
	}
}

func mainImpl() error {
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	opts := ssd1680.EPD2in9
	render, err := newRenderer(opts.Width, opts.Height)
	if err != nil {
		return err
	}

	var screen *termscreen.Dev
	if *preview {
		screen = termscreen.New(&termscreen.Opts{Width: opts.Width, Height: opts.Height, Step: 2})
		defer screen.Halt()
	}

	if *stall <= 0 {
		return errors.New("-stall must be positive")
	}
	wd := newWatchdog(*stall)
	defer wd.stop()

	opts.Yield = wd.feed
	opts.Writer = func(s ssd1680.PixelSurface) {
		draw.Draw(s, s.Bounds(), render(time.Now()), image.Point{}, draw.Src)
		if screen != nil {
			if err := screen.Draw(s.Bounds(), s, image.Point{}); err != nil {
				logrus.WithError(err).Warn("preview failed")
			}
		}
	}

	port, pins, closer, err := openHardware()
	if err != nil {
		return err
	}
	defer closer()

	dev, err := ssd1680.New(port, pins, &opts)
	if err != nil {
		return err
	}
	if err := dev.Setup(); err != nil {
		return err
	}
	dev.LogConfig()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		wd.arm()
		err := dev.Update()
		wd.disarm()
		if err != nil {
			return err
		}
		if rec, ok := port.(*spitest.Record); ok {
			discard(rec)
		}
		if *once {
			return nil
		}
		select {
		case s := <-c:
			logrus.Infof("Got signal %q, quitting", s.String())
			return nil
		case <-ticker.C:
		}
	}
}

func newRenderer(w, h int) (renderer, error) {
	switch *mode {
	case "clock":
		return clockRenderer(w, h)
	case "text":
		return textRenderer(w, h, *text)
	case "image":
		if *picture == "" {
			return nil, errors.New("-image is required with -mode=image")
		}
		return imageRenderer(w, h, *picture, *rotate)
	default:
		return nil, fmt.Errorf("unknown mode %q", *mode)
	}
}

// openHardware returns the bus and the pins, or fakes of them with -dry-run.
func openHardware() (spi.Port, *ssd1680.Pins, func(), error) {
	if *dryRun {
		pins := &ssd1680.Pins{
			DC:    &gpiotest.Pin{N: "DC"},
			Reset: &gpiotest.Pin{N: "RST"},
			Busy:  &gpiotest.Pin{N: "BUSY"},
		}
		return &spitest.Record{}, pins, func() {}, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, nil, nil, err
	}
	pins, err := ssd1680.PinsByName(*dcPin, *csPin, *rstPin, *busyPin, *powerPin)
	if err != nil {
		return nil, nil, nil, err
	}
	p, err := spireg.Open(*spiName)
	if err != nil {
		return nil, nil, nil, err
	}
	return p, pins, func() { p.Close() }, nil
}

// discard drops the transactions recorded during a dry run so a long run
// does not grow without bound.
func discard(rec *spitest.Record) {
	rec.Lock()
	defer rec.Unlock()
	logrus.WithField("transactions", len(rec.Ops)).Debug("dry run refresh")
	rec.Ops = rec.Ops[:0]
}

// watchdog warns when an armed refresh does not call feed for longer than
// limit.
type watchdog struct {
	armed atomic.Bool
	last  atomic.Int64
	done  chan struct{}
}

func newWatchdog(limit time.Duration) *watchdog {
	w := &watchdog{done: make(chan struct{})}
	go func() {
		t := time.NewTicker(limit / 2)
		defer t.Stop()
		for {
			select {
			case <-w.done:
				return
			case now := <-t.C:
				if !w.armed.Load() {
					continue
				}
				if since := now.Sub(time.Unix(0, w.last.Load())); since > limit {
					logrus.WithField("since", since).Warn("display refresh stalled")
				}
			}
		}
	}()
	return w
}

func (w *watchdog) arm() {
	w.feed()
	w.armed.Store(true)
}

func (w *watchdog) disarm() {
	w.armed.Store(false)
}

func (w *watchdog) feed() {
	w.last.Store(time.Now().UnixNano())
}

func (w *watchdog) stop() {
	close(w.done)
}
