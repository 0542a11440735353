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

// Package plotstream decodes the board's live output: a byte stream that
// interleaves plain console text with binary telemetry and channel-config
// packets behind a single in-band sync byte.
package plotstream

import (
	"encoding/binary"
	"fmt"
)

// Wire format bytes shared with the device-side library.
const (
	// SyncByte marks the start of a binary protocol unit. It is not
	// escaped in text output, so false positives are expected and must be
	// recoverable.
	SyncByte = 0xAA
	// TypeData precedes a telemetry sample packet.
	TypeData = 0x01
	// TypeConfig precedes a channel name packet.
	TypeConfig = 0x02

	// MaxChannels is the most values/names one packet can carry.
	MaxChannels = 5
	// MaxNameBytes bounds one encoded channel name.
	MaxNameBytes = 16
)

// AppendData appends an encoded telemetry packet to dst:
// [sync][type][count][count x uint16 little-endian].
func AppendData(dst []byte, values []uint16) ([]byte, error) {
	if len(values) == 0 || len(values) > MaxChannels {
		return dst, fmt.Errorf("value count must be 1-%d, got %d", MaxChannels, len(values))
	}

	dst = append(dst, SyncByte, TypeData, byte(len(values)))
	for _, v := range values {
		dst = binary.LittleEndian.AppendUint16(dst, v)
	}
	return dst, nil
}

// AppendConfig appends an encoded channel-config packet to dst:
// [sync][type][count] then per channel [len][utf8 bytes].
func AppendConfig(dst []byte, names []string) ([]byte, error) {
	if len(names) == 0 || len(names) > MaxChannels {
		return dst, fmt.Errorf("name count must be 1-%d, got %d", MaxChannels, len(names))
	}
	for _, name := range names {
		if len(name) > MaxNameBytes {
			return dst, fmt.Errorf("channel name over %d bytes: %q", MaxNameBytes, name)
		}
	}

	dst = append(dst, SyncByte, TypeConfig, byte(len(names)))
	for _, name := range names {
		dst = append(dst, byte(len(name)))
		dst = append(dst, name...)
	}
	return dst, nil
}
