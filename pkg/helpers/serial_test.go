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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPortInfoLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		info PortInfo
		want string
	}{
		{
			name: "description and device",
			info: PortInfo{Device: "/dev/ttyACM0", Description: "Board CDC"},
			want: "Board CDC (/dev/ttyACM0)",
		},
		{
			name: "description equals device",
			info: PortInfo{Device: "COM3", Description: "COM3"},
			want: "COM3",
		},
		{
			name: "no description",
			info: PortInfo{Device: "/dev/cu.usbmodem1101"},
			want: "/dev/cu.usbmodem1101",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.info.Label())
		})
	}
}

func TestListDevicePorts(t *testing.T) {
	t.Parallel()

	// Enumeration itself is environment dependent; just assert it doesn't
	// error and never returns a CMSIS-DAP interface.
	ports, err := ListDevicePorts()
	if err != nil {
		t.Skipf("enumeration unavailable: %v", err)
	}
	for _, p := range ports {
		assert.NotContains(t, p.Description, "CMSIS-DAP")
		assert.NotEmpty(t, p.Device)
	}
}
