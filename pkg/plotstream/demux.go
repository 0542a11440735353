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

package plotstream

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultFlushThreshold is how many buffered bytes without a sync byte are
// tolerated before the whole buffer is flushed as text. Bounds memory
// growth against a device that never emits protocol bytes.
const DefaultFlushThreshold = 1024

// Event is one classified unit from the stream: DataEvent, ConfigEvent or
// TextEvent.
type Event interface {
	isEvent()
}

// DataEvent carries one telemetry sample set.
type DataEvent struct {
	Values []uint16
}

// ConfigEvent carries the channel names for the current run.
type ConfigEvent struct {
	Channels []string
}

// TextEvent carries a run of plain console output. Invalid UTF-8 is
// replaced; a multi-byte codepoint split at the flush boundary therefore
// decodes as replacement characters, same as the poll-based predecessor.
type TextEvent struct {
	Text string
}

func (DataEvent) isEvent()   {}
func (ConfigEvent) isEvent() {}
func (TextEvent) isEvent()   {}

// Demux classifies an arbitrarily-chunked byte stream into telemetry
// packets, config packets and leftover text. Bytes are only removed from
// the front of the rolling buffer once fully classified; partial packets
// stay buffered until more input arrives.
//
// Not safe for concurrent use: the stream worker is its only caller.
type Demux struct {
	buf            []byte
	flushThreshold int
	configSeen     bool
}

// NewDemux creates a demultiplexer. A non-positive flushThreshold uses
// DefaultFlushThreshold.
func NewDemux(flushThreshold int) *Demux {
	if flushThreshold <= 0 {
		flushThreshold = DefaultFlushThreshold
	}
	return &Demux{flushThreshold: flushThreshold}
}

// Reset clears the rolling buffer and re-arms config propagation. Called
// when a new run starts or streaming is toggled.
func (d *Demux) Reset() {
	d.buf = nil
	d.configSeen = false
}

// Buffered returns how many unclassified bytes are currently held.
func (d *Demux) Buffered() int {
	return len(d.buf)
}

// Process appends chunk to the rolling buffer and extracts every complete
// unit from the front, returning the classified events in stream order.
func (d *Demux) Process(chunk []byte) []Event {
	if len(chunk) == 0 && len(d.buf) == 0 {
		return nil
	}

	d.buf = append(d.buf, chunk...)

	var events []Event
	for d.extract(&events) {
	}
	return events
}

// extract attempts to classify one unit from the front of the buffer,
// appending any resulting event. Returns whether progress was made, so the
// caller knows to keep going.
func (d *Demux) extract(events *[]Event) bool {
	if len(d.buf) == 0 {
		return false
	}

	idx := bytes.IndexByte(d.buf, SyncByte)
	if idx < 0 {
		// No sync byte anywhere. Flush oversized buffers as text so a
		// board that never speaks the protocol can't grow the buffer
		// forever; otherwise wait, since a sync byte may be split across
		// a future chunk boundary.
		if len(d.buf) > d.flushThreshold {
			d.emitText(events, d.buf)
			d.buf = nil
			return true
		}
		return false
	}

	if idx > 0 {
		// Everything before the sync byte is unambiguous text.
		d.emitText(events, d.buf[:idx])
		d.buf = d.buf[idx:]
	}

	// Buffer now starts at a sync byte.
	if len(d.buf) < 2 {
		return false
	}

	switch d.buf[1] {
	case TypeData:
		return d.extractData(events)
	case TypeConfig:
		return d.extractConfig(events)
	default:
		// Not a recognized type: the sync byte was a coincidence inside
		// program output. Drop just that byte and rescan.
		d.buf = d.buf[1:]
		return true
	}
}

func (d *Demux) extractData(events *[]Event) bool {
	if len(d.buf) < 3 {
		return false
	}

	count := int(d.buf[2])
	if count < 1 || count > MaxChannels {
		d.buf = d.buf[1:] // spurious sync
		return true
	}

	total := 3 + 2*count
	if len(d.buf) < total {
		return false
	}

	values := make([]uint16, count)
	for i := 0; i < count; i++ {
		values[i] = binary.LittleEndian.Uint16(d.buf[3+2*i:])
	}
	d.buf = d.buf[total:]

	*events = append(*events, DataEvent{Values: values})
	return true
}

func (d *Demux) extractConfig(events *[]Event) bool {
	if len(d.buf) < 3 {
		return false
	}

	count := int(d.buf[2])
	if count < 1 || count > MaxChannels {
		d.buf = d.buf[1:] // spurious sync
		return true
	}

	// Walk the name fields; never consume a partial field.
	idx := 3
	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if idx >= len(d.buf) {
			return false
		}
		nameLen := int(d.buf[idx])
		idx++

		if idx+nameLen > len(d.buf) {
			return false
		}
		names = append(names, decodeText(d.buf[idx:idx+nameLen]))
		idx += nameLen
	}
	d.buf = d.buf[idx:]

	// Channel names don't change mid-run: parse repeats to keep the
	// buffer consistent but only surface the first packet per run.
	if d.configSeen {
		log.Debug().Strs("channels", names).Msg("suppressed repeated config packet")
		return true
	}
	d.configSeen = true

	*events = append(*events, ConfigEvent{Channels: names})
	return true
}

// emitText appends a text event unless the run itself looks like the start
// of a recognized packet header, which would mean we are double-emitting a
// prefix still under evaluation.
func (d *Demux) emitText(events *[]Event, data []byte) {
	if len(data) == 0 {
		return
	}

	if data[0] == SyncByte && len(data) >= 2 && (data[1] == TypeData || data[1] == TypeConfig) {
		log.Debug().Int("bytes", len(data)).Msg("suppressed packet-header-shaped text run")
		return
	}

	*events = append(*events, TextEvent{Text: decodeText(data)})
}

// decodeText converts raw output bytes to a string, replacing invalid
// UTF-8 sequences.
func decodeText(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}
