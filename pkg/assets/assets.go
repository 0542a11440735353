// PicoPlot Core
// Copyright (c) 2026 The PicoPlot Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of PicoPlot Core.
//
// PicoPlot Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// PicoPlot Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with PicoPlot Core.  If not, see <http://www.gnu.org/licenses/>.

// Package assets bundles files shipped inside the binary.
package assets

import _ "embed"

// PlotterLib is the device-side MicroPython plotting library. It is
// installed onto the board at PlotterLibPath so user programs can
// `from picoplot import Plotter`.
//
//go:embed picoplot.py
var PlotterLib []byte

// PlotterLibPath is where the library is written on the device.
const PlotterLibPath = "/lib/picoplot.py"
