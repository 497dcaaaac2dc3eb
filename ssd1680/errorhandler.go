// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1680

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// errorHandler is a wrapper for error management. The first failing bus or
// pin operation is kept and every later operation becomes a no-op.
type errorHandler struct {
	d   *Dev
	err error
}

func (eh *errorHandler) rstOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.rst.Out(l)
}

func (eh *errorHandler) cTx(w []byte, r []byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.c.Tx(w, r)
}

func (eh *errorHandler) dcOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.dc.Out(l)
}

// csOut is a no-op when the SPI controller drives chip-select itself.
func (eh *errorHandler) csOut(l gpio.Level) {
	if eh.err != nil || eh.d.cs == nil {
		return
	}
	eh.err = eh.d.cs.Out(l)
}

func (eh *errorHandler) sendCommand(cmd byte) {
	if eh.err != nil {
		return
	}

	eh.dcOut(gpio.Low)
	eh.csOut(gpio.Low)
	eh.cTx([]byte{cmd}, nil)
	eh.csOut(gpio.High)
}

func (eh *errorHandler) sendData(data []byte) {
	if eh.err != nil {
		return
	}

	eh.dcOut(gpio.High)
	eh.csOut(gpio.Low)
	eh.cTx(data, nil)
	eh.csOut(gpio.High)
}

func (eh *errorHandler) waitUntilIdle(w wait) bool {
	if eh.err != nil {
		return false
	}
	return eh.d.waitUntilIdle(w)
}

func (eh *errorHandler) pulseReset(hold time.Duration, levels ...gpio.Level) bool {
	if eh.d.rst == nil {
		return false
	}
	for _, l := range levels {
		eh.rstOut(l)
		eh.delay(hold)
	}
	return true
}

func (eh *errorHandler) delay(t time.Duration) {
	if eh.err != nil {
		return
	}
	eh.d.sleep(t)
}

var _ controller = &errorHandler{}
