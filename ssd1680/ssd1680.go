// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1680

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/host/v3/rpi"
)

// Commands
const (
	driverOutputControl            byte = 0x01
	dataEntryModeSetting           byte = 0x11
	swReset                        byte = 0x12
	tempSensorSelect               byte = 0x18
	masterActivation               byte = 0x20
	displayUpdateControl2          byte = 0x22
	writeRAMBW                     byte = 0x24
	writeRAMRed                    byte = 0x26
	borderWaveformControl          byte = 0x3C
	setRAMXAddressStartEndPosition byte = 0x44
	setRAMYAddressStartEndPosition byte = 0x45
	setRAMXAddressCounter          byte = 0x4E
	setRAMYAddressCounter          byte = 0x4F
)

// Bus parameters. The controller accepts up to 20MHz for writes but long
// ribbon cables on the reference boards are not reliable above 4MHz.
const (
	busFrequency = 4 * physic.MegaHertz
	busMode      = spi.Mode0
	busBits      = 8
)

// powerSettle is the time the panel supply needs after being enabled.
const powerSettle = 100 * time.Millisecond

var (
	// ErrNoDCPin is returned by New when no Data/Command pin is given.
	ErrNoDCPin = errors.New("ssd1680: data/command pin is required")
	// ErrAlreadySetUp is returned by Setup when called more than once.
	ErrAlreadySetUp = errors.New("ssd1680: already set up")
	// ErrNotSetUp is returned by Update when Setup was not called.
	ErrNotSetUp = errors.New("ssd1680: Setup must be called before Update")
)

// State is the controller initialization state.
type State int

const (
	// Uninitialized means the bring-up program has not run yet.
	Uninitialized State = iota
	// Idle means the controller was brought up and frames can be written.
	Idle
)

func (s State) String() string {
	if s == Idle {
		return "Idle"
	}
	return "Uninitialized"
}

// Pins lists the control lines of the display. Only DC is required.
type Pins struct {
	// DC selects between command (low) and data (high) bytes.
	DC gpio.PinOut
	// CS is driven around every transfer. Leave nil when the SPI port drives
	// chip-select.
	CS gpio.PinOut
	// Reset is the active low hardware reset. Without it only software resets
	// are issued.
	Reset gpio.PinOut
	// Busy reads high while the controller is busy. Without it every wait is
	// a fixed delay.
	Busy gpio.PinIn
	// Power enables the panel supply on boards that gate it.
	Power gpio.PinOut
}

// PinsByName looks up pins in the gpioreg registry. Empty names, except dc,
// leave the corresponding pin unconfigured.
func PinsByName(dc, cs, rst, busy, power string) (*Pins, error) {
	p := &Pins{}
	for _, x := range []struct {
		name     string
		required bool
		set      func(gpio.PinIO)
	}{
		{dc, true, func(pin gpio.PinIO) { p.DC = pin }},
		{cs, false, func(pin gpio.PinIO) { p.CS = pin }},
		{rst, false, func(pin gpio.PinIO) { p.Reset = pin }},
		{busy, false, func(pin gpio.PinIO) { p.Busy = pin }},
		{power, false, func(pin gpio.PinIO) { p.Power = pin }},
	} {
		if x.name == "" {
			if x.required {
				return nil, ErrNoDCPin
			}
			continue
		}
		pin := gpioreg.ByName(x.name)
		if pin == nil {
			return nil, fmt.Errorf("ssd1680: unknown pin %q", x.name)
		}
		x.set(pin)
	}
	return p, nil
}

// Timeouts bounds every wait for the busy line. Zero values are replaced by
// the values of DefaultTimeouts.
type Timeouts struct {
	// SoftwareReset bounds the wait after the bring-up software reset.
	SoftwareReset time.Duration
	// Idle bounds the generic waits while re-arming and writing a frame.
	Idle time.Duration
	// Refresh bounds the wait for a full refresh to finish.
	Refresh time.Duration
	// Poll is the interval between busy line reads.
	Poll time.Duration
	// RefreshPoll is the interval between busy line reads during a refresh.
	RefreshPoll time.Duration
	// NoBusyDelay replaces every wait when no busy pin is configured.
	NoBusyDelay time.Duration
	// Settle is slept after the busy line dropped.
	Settle time.Duration
}

// DefaultTimeouts are the timings used with the reference panels.
var DefaultTimeouts = Timeouts{
	SoftwareReset: 2 * time.Second,
	Idle:          10 * time.Second,
	Refresh:       5 * time.Second,
	Poll:          10 * time.Millisecond,
	RefreshPoll:   100 * time.Millisecond,
	NoBusyDelay:   100 * time.Millisecond,
	Settle:        10 * time.Millisecond,
}

func (t Timeouts) withDefaults() Timeouts {
	for _, x := range []struct {
		v *time.Duration
		d time.Duration
	}{
		{&t.SoftwareReset, DefaultTimeouts.SoftwareReset},
		{&t.Idle, DefaultTimeouts.Idle},
		{&t.Refresh, DefaultTimeouts.Refresh},
		{&t.Poll, DefaultTimeouts.Poll},
		{&t.RefreshPoll, DefaultTimeouts.RefreshPoll},
		{&t.NoBusyDelay, DefaultTimeouts.NoBusyDelay},
		{&t.Settle, DefaultTimeouts.Settle},
	} {
		if *x.v <= 0 {
			*x.v = x.d
		}
	}
	return t
}

// forWait returns the timeout and poll interval of a call site.
func (t *Timeouts) forWait(w wait) (time.Duration, time.Duration) {
	switch w {
	case waitSoftwareReset:
		return t.SoftwareReset, t.Poll
	case waitRefresh:
		return t.Refresh, t.RefreshPoll
	default:
		return t.Idle, t.Poll
	}
}

// Opts defines the structure of the display configuration.
type Opts struct {
	Width  int
	Height int

	Timeouts Timeouts

	// Writer is called on every Update, before the frame is sent, to draw
	// into the frame buffer.
	Writer func(s PixelSurface)
	// Yield is called once per busy line poll so a supervising watchdog can
	// be fed during refreshes that take seconds.
	Yield func()
	// Logger defaults to the logrus standard logger.
	Logger logrus.FieldLogger
}

// EPD2in9 contains the display configuration for 2.9 inch 128x296 panels.
var EPD2in9 = Opts{
	Width:    128,
	Height:   296,
	Timeouts: DefaultTimeouts,
}

// Dev defines the handler which is used to access the display.
type Dev struct {
	p spi.Port
	c conn.Conn

	dc    gpio.PinOut
	cs    gpio.PinOut
	rst   gpio.PinOut
	busy  gpio.PinIn
	power gpio.PinOut

	opts     *Opts
	timeouts Timeouts
	log      logrus.FieldLogger
	yield    func()

	buffer *FrameBuffer
	state  State
	setUp  bool

	sleep func(time.Duration)
	now   func() time.Time
}

// New creates a new handler which is used to access the display. No I/O is
// done until Setup is called.
func New(p spi.Port, pins *Pins, opts *Opts) (*Dev, error) {
	if pins == nil || pins.DC == nil {
		return nil, ErrNoDCPin
	}
	if opts.Width <= 0 || opts.Height <= 0 || opts.Width%8 != 0 {
		return nil, fmt.Errorf("ssd1680: invalid dimensions %dx%d, width must be a positive multiple of 8", opts.Width, opts.Height)
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	yield := opts.Yield
	if yield == nil {
		yield = func() {}
	}

	return &Dev{
		p:        p,
		dc:       pins.DC,
		cs:       pins.CS,
		rst:      pins.Reset,
		busy:     pins.Busy,
		power:    pins.Power,
		opts:     opts,
		timeouts: opts.Timeouts.withDefaults(),
		log:      log.WithField("device", "ssd1680"),
		yield:    yield,
		buffer:   NewFrameBuffer(opts.Width, opts.Height),
		state:    Uninitialized,
		sleep:    time.Sleep,
		now:      time.Now,
	}, nil
}

// NewHat creates a new handler using the default Waveshare HAT pin
// configuration.
func NewHat(p spi.Port, opts *Opts) (*Dev, error) {
	return New(p, &Pins{
		DC:    rpi.P1_22,
		CS:    rpi.P1_24,
		Reset: rpi.P1_11,
		Busy:  rpi.P1_18,
	}, opts)
}

// Setup powers the panel, configures the pins and the bus and clears the
// frame buffer. The controller itself is initialized on the first Update.
func (d *Dev) Setup() error {
	if d.setUp {
		return ErrAlreadySetUp
	}

	if err := d.enablePower(); err != nil {
		return fmt.Errorf("ssd1680: enabling power: %w", err)
	}

	eh := errorHandler{d: d}
	eh.dcOut(gpio.Low)
	eh.csOut(gpio.High)
	if d.rst != nil {
		eh.rstOut(gpio.High)
	}
	if d.busy == nil {
		d.log.Warn("ssd1680: no busy pin configured, waits use a fixed delay")
	} else if eh.err == nil {
		eh.err = d.busy.In(gpio.Float, gpio.NoEdge)
	}
	if eh.err != nil {
		return fmt.Errorf("ssd1680: configuring pins: %w", eh.err)
	}

	c, err := d.p.Connect(busFrequency, busMode, busBits)
	if err != nil {
		return fmt.Errorf("ssd1680: connecting to bus: %w", err)
	}
	d.c = c

	d.buffer.Fill(Background)
	d.setUp = true

	d.log.Info("ssd1680: setup complete, display initialization deferred")
	return nil
}

// enablePower asserts the power line. It is never deasserted.
func (d *Dev) enablePower() error {
	if d.power == nil {
		d.log.Debug("ssd1680: no power pin configured")
		return nil
	}
	if err := d.power.Out(gpio.High); err != nil {
		return err
	}
	d.log.WithField("pin", d.power.String()).Info("ssd1680: display power enabled")
	d.sleep(powerSettle)
	return nil
}

// Update initializes the controller on the first call, runs Opts.Writer and
// sends the frame buffer to the display followed by a full refresh.
//
// Busy line timeouts are logged and ignored. Only bus and pin errors are
// returned. The call blocks for several seconds.
func (d *Dev) Update() error {
	if !d.setUp {
		return ErrNotSetUp
	}
	if d.opts.Writer != nil {
		d.opts.Writer(d.buffer)
	}
	return d.refresh()
}

// refresh brings the controller up if needed and sends the frame buffer as
// is.
func (d *Dev) refresh() error {
	if !d.setUp {
		return ErrNotSetUp
	}

	eh := errorHandler{d: d}

	if d.state == Uninitialized {
		d.log.Info("ssd1680: first update, initializing display")
		initDisplay(&eh, d.opts, d.log)
		if eh.err != nil {
			return fmt.Errorf("ssd1680: initializing display: %w", eh.err)
		}
		d.state = Idle
		d.log.Info("ssd1680: initialization complete")
	}

	displayFrame(&eh, d.opts, d.buffer, d.log)
	if eh.err != nil {
		return fmt.Errorf("ssd1680: writing frame: %w", eh.err)
	}
	return nil
}

// DrawPixel sets a pixel of the frame buffer. Out of range coordinates are
// ignored. It takes effect on the next Update.
func (d *Dev) DrawPixel(x, y int, c Color) {
	d.buffer.SetPixel(x, y, c)
}

// Buffer returns the frame buffer sent on every Update.
func (d *Dev) Buffer() *FrameBuffer {
	return d.buffer
}

// State returns the controller initialization state.
func (d *Dev) State() State {
	return d.state
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return ColorModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.buffer.Bounds()
}

// Draw implements display.Drawer. It renders src into the frame buffer and
// refreshes the display. Opts.Writer is not called.
func (d *Dev) Draw(dstRect image.Rectangle, src image.Image, srcPts image.Point) error {
	draw.Src.Draw(d.buffer, dstRect, src, srcPts)
	return d.refresh()
}

// Halt implements conn.Resource. It clears the display.
func (d *Dev) Halt() error {
	d.buffer.Fill(Background)
	if !d.setUp {
		return nil
	}
	return d.refresh()
}

// String returns a string containing configuration information.
func (d *Dev) String() string {
	return fmt.Sprintf("ssd1680.Dev{%s, %s, Width: %d, Height: %d}", d.p, d.dc, d.opts.Width, d.opts.Height)
}

// LogConfig logs the pin configuration and the current busy line level.
func (d *Dev) LogConfig() {
	fields := logrus.Fields{
		"dc":     pinName(d.dc),
		"cs":     pinName(d.cs),
		"reset":  pinName(d.rst),
		"busy":   pinName(d.busy),
		"power":  pinName(d.power),
		"width":  d.opts.Width,
		"height": d.opts.Height,
		"state":  d.state,
	}
	if d.busy != nil {
		fields["busyLevel"] = d.busy.Read()
	}
	d.log.WithFields(fields).Info("ssd1680: configuration")
}

func pinName(p fmt.Stringer) string {
	if p == nil {
		return "none"
	}
	return p.String()
}

// waitUntilIdle polls the busy line until it drops or the timeout of w
// expires, calling the yield hook on every iteration.
func (d *Dev) waitUntilIdle(w wait) bool {
	if d.busy == nil {
		d.sleep(d.timeouts.NoBusyDelay)
		d.yield()
		return true
	}

	timeout, poll := d.timeouts.forWait(w)
	start := d.now()
	for d.busy.Read() == gpio.High {
		elapsed := d.now().Sub(start)
		if elapsed >= timeout {
			entry := d.log.WithFields(logrus.Fields{"wait": w.String(), "timeout": timeout})
			if w == waitRefresh {
				// The busy line frequently stays high although the refresh ran.
				entry.Debug("ssd1680: busy line still high after refresh, continuing")
			} else {
				entry.Warn("ssd1680: timeout waiting for display, continuing")
			}
			return false
		}
		if left := timeout - elapsed; left < poll {
			d.sleep(left)
		} else {
			d.sleep(poll)
		}
		d.yield()
	}
	d.log.WithFields(logrus.Fields{"wait": w.String(), "elapsed": d.now().Sub(start)}).Debug("ssd1680: display idle")
	d.sleep(d.timeouts.Settle)
	return true
}

var _ display.Drawer = &Dev{}
