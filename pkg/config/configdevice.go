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

const DefaultBaudRate = 115200

// Device holds the serial link settings for the target board.
type Device struct {
	// Port is the preferred serial device path, e.g. /dev/ttyACM0 or COM5.
	// Empty means no port has been chosen yet.
	Port string `toml:"port,omitempty"`
	// BaudRate ignored by USB CDC boards but honored on real UARTs.
	BaudRate int `toml:"baud_rate,omitempty"`
}

func (c *Instance) DevicePort() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Device.Port
}

// SetDevicePort stores the selected port and persists it so the next
// service start reconnects to the same board.
func (c *Instance) SetDevicePort(port string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Device.Port = port
	return c.saveLocked()
}

func (c *Instance) BaudRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Device.BaudRate <= 0 {
		return DefaultBaudRate
	}
	return c.vals.Device.BaudRate
}

func (c *Instance) SetBaudRate(baud int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Device.BaudRate = baud
}
