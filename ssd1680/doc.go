// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ssd1680 controls bilevel e-paper panels driven by a Solomon Systech
// SSD1680 controller, such as the 2.9 inch 128x296 modules found on Waveshare
// HATs and Elecrow CrowPanel boards.
//
// The driver keeps a 1 bit per pixel frame buffer in memory. Initialization of
// the controller is deferred until the first call to Update, and every Update
// re-arms the controller before writing the frame, because the controller
// state is known to drift between refreshes. The busy line on this panel class
// does not reliably deassert, so every wait is bounded by a timeout and a
// timeout is never treated as a failure.
//
// Datasheet
//
// https://cdn-learn.adafruit.com/assets/assets/000/097/631/original/SSD1680_Datasheet.pdf
//
// Product page:
//
// 2.9 inch: https://www.waveshare.com/wiki/2.9inch_e-Paper_Module_Manual
//
package ssd1680
