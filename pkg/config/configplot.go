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

package config

const (
	DefaultFlushThreshold = 1024
	minFlushThreshold     = 64
	maxFlushThreshold     = 65536
)

// Plot holds tunables for the telemetry stream parser.
type Plot struct {
	// FlushThreshold is how many buffered bytes without a sync byte are
	// tolerated before the parser flushes them all as console text.
	FlushThreshold int `toml:"flush_threshold,omitempty"`
}

// FlushThreshold returns the stream parser's text flush threshold, clamped
// to a sane range so a config typo can't disable the memory bound.
func (c *Instance) FlushThreshold() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t := c.vals.Plot.FlushThreshold
	if t <= 0 {
		return DefaultFlushThreshold
	}
	if t < minFlushThreshold {
		return minFlushThreshold
	}
	if t > maxFlushThreshold {
		return maxFlushThreshold
	}
	return t
}

func (c *Instance) SetFlushThreshold(threshold int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Plot.FlushThreshold = threshold
}
