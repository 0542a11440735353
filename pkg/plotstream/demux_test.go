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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func mustData(t *testing.T, values ...uint16) []byte {
	t.Helper()
	pkt, err := AppendData(nil, values)
	require.NoError(t, err)
	return pkt
}

func mustConfig(t *testing.T, names ...string) []byte {
	t.Helper()
	pkt, err := AppendConfig(nil, names)
	require.NoError(t, err)
	return pkt
}

func TestTextOnly(t *testing.T) {
	t.Parallel()

	d := NewDemux(0)

	// Pure text without a sync byte stays buffered until either a sync
	// byte or the flush threshold arrives.
	events := d.Process([]byte("hello world\r\n"))
	assert.Empty(t, events)
	assert.Equal(t, 13, d.Buffered())

	// A following packet releases the buffered text first.
	events = d.Process(mustData(t, 42))
	require.Len(t, events, 2)
	assert.Equal(t, TextEvent{Text: "hello world\r\n"}, events[0])
	assert.Equal(t, DataEvent{Values: []uint16{42}}, events[1])
}

func TestInterleavedTextAndPackets(t *testing.T) {
	t.Parallel()

	var stream []byte
	stream = append(stream, "boot\r\n"...)
	stream = append(stream, mustConfig(t, "temp", "rpm")...)
	stream = append(stream, "run\r\n"...)
	stream = append(stream, mustData(t, 100, 200)...)
	stream = append(stream, mustData(t, 101, 201)...)

	d := NewDemux(0)
	events := d.Process(stream)

	require.Len(t, events, 5)
	assert.Equal(t, TextEvent{Text: "boot\r\n"}, events[0])
	assert.Equal(t, ConfigEvent{Channels: []string{"temp", "rpm"}}, events[1])
	assert.Equal(t, TextEvent{Text: "run\r\n"}, events[2])
	assert.Equal(t, DataEvent{Values: []uint16{100, 200}}, events[3])
	assert.Equal(t, DataEvent{Values: []uint16{101, 201}}, events[4])
	assert.Zero(t, d.Buffered())
}

func TestPartialPacketAcrossChunks(t *testing.T) {
	t.Parallel()

	pkt := mustData(t, 0xBEEF, 0xCAFE)

	d := NewDemux(0)
	for _, b := range pkt[:len(pkt)-1] {
		assert.Empty(t, d.Process([]byte{b}))
	}

	events := d.Process(pkt[len(pkt)-1:])
	require.Len(t, events, 1)
	assert.Equal(t, DataEvent{Values: []uint16{0xBEEF, 0xCAFE}}, events[0])
}

func TestSpuriousSyncRecovery(t *testing.T) {
	t.Parallel()

	// A sync byte followed by a data type byte but an invalid channel
	// count. The demultiplexer must drop only the sync byte and rescan
	// in the same call, so the real packet right behind it still decodes.
	stream := []byte{SyncByte, TypeData, 0xFF}
	stream = append(stream, mustData(t, 7)...)

	d := NewDemux(0)
	events := d.Process(stream)

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, DataEvent{Values: []uint16{7}}, last)
	assert.Zero(t, d.Buffered())
}

func TestSpuriousSyncUnknownType(t *testing.T) {
	t.Parallel()

	stream := []byte{SyncByte, 0x7F}
	stream = append(stream, mustData(t, 9)...)

	d := NewDemux(0)
	events := d.Process(stream)

	require.NotEmpty(t, events)
	assert.Equal(t, DataEvent{Values: []uint16{9}}, events[len(events)-1])
}

func TestConfigSuppressionPerRun(t *testing.T) {
	t.Parallel()

	cfg := mustConfig(t, "ch1")

	d := NewDemux(0)

	events := d.Process(cfg)
	require.Len(t, events, 1)
	assert.IsType(t, ConfigEvent{}, events[0])

	// Repeats within the same run are consumed silently.
	assert.Empty(t, d.Process(cfg))
	assert.Empty(t, d.Process(cfg))

	// A reset (new run) re-arms propagation.
	d.Reset()
	events = d.Process(cfg)
	require.Len(t, events, 1)
	assert.Equal(t, ConfigEvent{Channels: []string{"ch1"}}, events[0])
}

func TestFlushThreshold(t *testing.T) {
	t.Parallel()

	d := NewDemux(64)

	// Below the threshold nothing is emitted.
	assert.Empty(t, d.Process([]byte(strings.Repeat("a", 64))))
	assert.Equal(t, 64, d.Buffered())

	// Crossing it flushes the whole buffer as one text event.
	events := d.Process([]byte("b"))
	require.Len(t, events, 1)
	assert.Equal(t, TextEvent{Text: strings.Repeat("a", 64) + "b"}, events[0])
	assert.Zero(t, d.Buffered())
}

func TestInvalidUTF8Replaced(t *testing.T) {
	t.Parallel()

	stream := []byte{0xFF, 0xFE, 'o', 'k'}
	stream = append(stream, mustData(t, 1)...)

	d := NewDemux(0)
	events := d.Process(stream)

	require.Len(t, events, 2)
	text, ok := events[0].(TextEvent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "ok")
	assert.Contains(t, text.Text, "�")
}

func TestResetDropsBufferedBytes(t *testing.T) {
	t.Parallel()

	d := NewDemux(0)
	d.Process([]byte("pending"))
	require.Equal(t, 7, d.Buffered())

	d.Reset()
	assert.Zero(t, d.Buffered())
	assert.Empty(t, d.Process(nil))
}

// TestChunkingInvariance verifies that how the stream is sliced into reads
// never changes the decoded result: any chunking of the same bytes yields
// the same packets and the same overall text.
func TestChunkingInvariance(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		var stream []byte
		pieces := rapid.IntRange(1, 8).Draw(t, "pieces")
		for p := 0; p < pieces; p++ {
			switch rapid.IntRange(0, 2).Draw(t, "kind") {
			case 0:
				n := rapid.IntRange(1, MaxChannels).Draw(t, "count")
				values := rapid.SliceOfN(rapid.Uint16(), n, n).Draw(t, "values")
				pkt, err := AppendData(nil, values)
				require.NoError(t, err)
				stream = append(stream, pkt...)
			case 1:
				n := rapid.IntRange(1, MaxChannels).Draw(t, "names")
				names := make([]string, n)
				for i := range names {
					names[i] = rapid.StringOfN(
						rapid.RuneFrom([]rune("abcxyz")), 1, MaxNameBytes, -1,
					).Draw(t, "name")
				}
				pkt, err := AppendConfig(nil, names)
				require.NoError(t, err)
				stream = append(stream, pkt...)
			default:
				text := rapid.StringOfN(
					rapid.RuneFrom([]rune("ht \r\n0123456789")), 1, 40, -1,
				).Draw(t, "text")
				stream = append(stream, text...)
			}
		}
		// Terminate with a packet so no trailing text is left buffered.
		stream = append(stream, mustDataRapid(t, 1)...)

		whole := NewDemux(0)
		want := normalize(whole.Process(stream))

		chunked := NewDemux(0)
		var got []Event
		rest := stream
		for len(rest) > 0 {
			n := rapid.IntRange(1, len(rest)).Draw(t, "chunk")
			got = append(got, chunked.Process(rest[:n])...)
			rest = rest[n:]
		}

		assert.Equal(t, want, normalize(got))
		assert.Equal(t, whole.Buffered(), chunked.Buffered())
	})
}

func mustDataRapid(t *rapid.T, values ...uint16) []byte {
	pkt, err := AppendData(nil, values)
	if err != nil {
		t.Fatalf("encode data packet: %v", err)
	}
	return pkt
}

// normalize merges adjacent text events, since chunking legitimately
// affects how one text run is split across events but never its content.
func normalize(events []Event) []Event {
	var out []Event
	for _, ev := range events {
		text, ok := ev.(TextEvent)
		if !ok {
			out = append(out, ev)
			continue
		}
		if len(out) > 0 {
			if prev, ok := out[len(out)-1].(TextEvent); ok {
				out[len(out)-1] = TextEvent{Text: prev.Text + text.Text}
				continue
			}
		}
		out = append(out, text)
	}
	return out
}
