// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package epaper is a container for e-paper display drivers and the tools
// around them.
//
// ssd1680 drives SSD1680 based bilevel panels, termscreen previews frames in
// a terminal and cmd/epd2in9 refreshes a panel periodically.
package epaper
