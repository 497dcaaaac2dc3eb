// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1680

import (
	"bytes"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
)

// wait identifies the call site of a wait-for-idle. Each has its own timeout.
type wait int

const (
	waitSoftwareReset wait = iota
	waitIdle
	waitRefresh
)

func (w wait) String() string {
	switch w {
	case waitSoftwareReset:
		return "software reset"
	case waitRefresh:
		return "refresh"
	default:
		return "idle"
	}
}

type controller interface {
	sendCommand(byte)
	sendData([]byte)
	// waitUntilIdle blocks until the busy line drops or the timeout for w
	// expires. It reports whether the controller became idle.
	waitUntilIdle(w wait) bool
	// pulseReset drives the reset line through levels, holding each for hold.
	// It returns false when no reset line is wired.
	pulseReset(hold time.Duration, levels ...gpio.Level) bool
	delay(time.Duration)
}

const (
	resetHold           = 10 * time.Millisecond
	resetSettle         = 100 * time.Millisecond
	softwareResetSettle = 20 * time.Millisecond
	frameSoftwareReset  = 10 * time.Millisecond
	dataEntryXIncYInc   = 0x03
	borderWaveformLUT1  = 0x05
	tempSensorInternal  = 0x80
)

// Flags for the displayUpdateControl2 command.
const (
	displayUpdateDisableOsc byte = 1 << iota
	displayUpdateDisableAnalog
	displayUpdateDisplay
	displayUpdateMode2
	displayUpdateLoadLUT
	displayUpdateLoadTemperature
	displayUpdateEnableClock
	displayUpdateEnableAnalog
)

// fullRefresh is 0xF7.
const fullRefresh = displayUpdateEnableClock |
	displayUpdateEnableAnalog |
	displayUpdateLoadTemperature |
	displayUpdateLoadLUT |
	displayUpdateDisplay |
	displayUpdateDisableAnalog |
	displayUpdateDisableOsc

// initDisplay runs the one-time bring-up program.
func initDisplay(ctrl controller, opts *Opts, log logrus.FieldLogger) {
	if ctrl.pulseReset(resetHold, gpio.High, gpio.Low, gpio.High) {
		ctrl.delay(resetSettle)
	} else {
		log.Warn("ssd1680: no reset pin configured, skipping hardware reset")
	}

	ctrl.sendCommand(swReset)
	ctrl.delay(softwareResetSettle)
	if !ctrl.waitUntilIdle(waitSoftwareReset) {
		log.Warn("ssd1680: software reset did not complete, continuing")
	}

	armRAMWindow(ctrl, opts)

	ctrl.sendCommand(borderWaveformControl)
	ctrl.sendData([]byte{borderWaveformLUT1})

	ctrl.sendCommand(tempSensorSelect)
	ctrl.sendData([]byte{tempSensorInternal})

	resetRAMCounters(ctrl)
}

// armRAMWindow programs scan direction, data entry mode and the RAM window
// covering the whole panel.
func armRAMWindow(ctrl controller, opts *Opts) {
	lastRow := opts.Height - 1

	ctrl.sendCommand(driverOutputControl)
	ctrl.sendData([]byte{byte(lastRow & 0xFF), byte((lastRow >> 8) & 0xFF), 0x00})

	ctrl.sendCommand(dataEntryModeSetting)
	ctrl.sendData([]byte{dataEntryXIncYInc})

	ctrl.sendCommand(setRAMXAddressStartEndPosition)
	ctrl.sendData([]byte{0x00, byte(opts.Width/8 - 1)})

	ctrl.sendCommand(setRAMYAddressStartEndPosition)
	ctrl.sendData([]byte{0x00, 0x00, byte(lastRow & 0xFF), byte((lastRow >> 8) & 0xFF)})
}

// resetRAMCounters moves the RAM address pointer back to the window origin.
func resetRAMCounters(ctrl controller) {
	ctrl.sendCommand(setRAMXAddressCounter)
	ctrl.sendData([]byte{0x00})

	ctrl.sendCommand(setRAMYAddressCounter)
	ctrl.sendData([]byte{0x00, 0x00})
}

// displayFrame re-arms the controller, uploads buf and runs a full refresh.
func displayFrame(ctrl controller, opts *Opts, buf *FrameBuffer, log logrus.FieldLogger) {
	if ctrl.pulseReset(resetHold, gpio.Low, gpio.High) {
		ctrl.waitUntilIdle(waitIdle)
	}

	ctrl.sendCommand(swReset)
	ctrl.delay(frameSoftwareReset)
	ctrl.waitUntilIdle(waitIdle)

	armRAMWindow(ctrl, opts)
	resetRAMCounters(ctrl)

	// The panel shows a set bit as white, the buffer uses set bits for ink.
	ctrl.sendCommand(writeRAMBW)
	writePlane(ctrl, buf.Bytes(), buf.Stride(), func(b byte) byte { return ^b })

	resetRAMCounters(ctrl)

	// The red plane is not rendered by this panel but must not hold garbage.
	ctrl.sendCommand(writeRAMRed)
	writePlane(ctrl, bytes.Repeat([]byte{0x00}, len(buf.Bytes())), buf.Stride(), nil)

	ctrl.waitUntilIdle(waitIdle)

	log.Debug("ssd1680: frame written, starting refresh")
	turnOnDisplay(ctrl)
}

// writePlane sends src one row per transaction, applying conv to each byte.
//
// The controller accepts any number of data bytes per DC-high transfer, so a
// row is framed like a single byte would be. Each transfer stays atomic and
// well below the 4096 byte limit of spidev.
func writePlane(ctrl controller, src []byte, stride int, conv func(byte) byte) {
	row := make([]byte, stride)
	for off := 0; off < len(src); off += stride {
		n := copy(row, src[off:])
		if conv != nil {
			for i := range row[:n] {
				row[i] = conv(row[i])
			}
		}
		ctrl.sendData(row[:n])
	}
}

// turnOnDisplay triggers a full refresh using the waveform stored in OTP.
func turnOnDisplay(ctrl controller) {
	ctrl.sendCommand(displayUpdateControl2)
	ctrl.sendData([]byte{fullRefresh})
	ctrl.sendCommand(masterActivation)
	ctrl.waitUntilIdle(waitRefresh)
}
