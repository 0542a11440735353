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

package helpers

import (
	"fmt"
	"runtime"
	"strings"

	"go.bug.st/serial/enumerator"
)

// picoVID is the Raspberry Pi USB vendor ID, used to flag boards that are
// almost certainly MicroPython targets.
const picoVID = "2E8A"

// PortInfo describes one candidate serial device. Description is whatever
// the OS reports for the device; it may equal the device path.
type PortInfo struct {
	Device      string
	Description string
	Pico        bool
}

// Label returns a human-readable label for the port.
func (p PortInfo) Label() string {
	if p.Description != "" && p.Description != p.Device {
		return fmt.Sprintf("%s (%s)", p.Description, p.Device)
	}
	return p.Device
}

func candidatePort(name string) bool {
	switch runtime.GOOS {
	case "linux":
		return strings.Contains(name, "ttyUSB") || strings.Contains(name, "ttyACM")
	case "darwin":
		return strings.HasPrefix(name, "/dev/cu.") || strings.HasPrefix(name, "/dev/tty.")
	case "windows":
		return strings.HasPrefix(name, "COM")
	default:
		return true
	}
}

// ListDevicePorts enumerates serial devices that could plausibly be a
// MicroPython board. Debug probe interfaces (CMSIS-DAP) are excluded since
// they expose a serial port that is not the REPL.
func ListDevicePorts() ([]PortInfo, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	infos := make([]PortInfo, 0, len(ports))
	for _, p := range ports {
		if !candidatePort(p.Name) {
			continue
		}

		if strings.Contains(p.Product, "CMSIS-DAP") {
			continue
		}

		desc := p.Product
		if desc == "" {
			desc = p.Name
		}

		infos = append(infos, PortInfo{
			Device:      p.Name,
			Description: desc,
			Pico:        strings.EqualFold(p.VID, picoVID),
		})
	}

	return infos, nil
}
