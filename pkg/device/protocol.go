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

// Package device implements the MicroPython Raw-REPL protocol: session
// setup, interrupt/reset recovery and execute-and-capture of code payloads
// over a serial transport.
package device

import "time"

// Raw-REPL control bytes.
const (
	ctrlEnterRaw  = 0x01 // Ctrl-A
	ctrlExitRaw   = 0x02 // Ctrl-B
	ctrlInterrupt = 0x03 // Ctrl-C
	ctrlEOT       = 0x04 // Ctrl-D, submit/end of transmission
)

// rawModeAttempts is how many times raw mode entry is retried before the
// failure is reported as terminal.
const rawModeAttempts = 3

// interruptBurst is how many interrupts are sent in a row to break into a
// running program.
const interruptBurst = 3

var (
	// rawReplBanner must appear verbatim after sending ctrlEnterRaw.
	rawReplBanner = []byte("raw REPL; CTRL-B to exit\r\n")
	// ackToken is sent by the interpreter once it has accepted a payload.
	ackToken = []byte("OK")
	// outputEnd marks the end of all output from an executed payload.
	outputEnd = []byte{ctrlEOT, ctrlEOT}
	// promptToken is the raw mode ready prompt.
	promptToken = []byte{'>'}
)

// Timing groups every pause and timeout the protocol uses. Tests shrink
// these to keep simulated failure paths fast.
type Timing struct {
	// InterruptPause separates repeated interrupt sends.
	InterruptPause time.Duration
	// StopSettle is the pause after the interrupt burst in ForceStop.
	StopSettle time.Duration
	// RetryBackoff separates raw mode entry attempts.
	RetryBackoff time.Duration
	// RebootPause allows a soft reboot to complete during Stop.
	RebootPause time.Duration
	// CorrectivePause separates the exit/re-enter cycle in Stop.
	CorrectivePause time.Duration
	// AckTimeout is short by design so a busy device is detected quickly
	// instead of hanging the caller.
	AckTimeout time.Duration
	// OutputTimeout is longer because output volume is unbounded.
	OutputTimeout time.Duration
	// BannerTimeout bounds the wait for the raw REPL banner.
	BannerTimeout time.Duration
	// PromptTimeout bounds the wait for the raw mode prompt.
	PromptTimeout time.Duration
	// ReadSlice is the per-read poll timeout on the transport.
	ReadSlice time.Duration
}

// DefaultTiming returns the production timing profile.
func DefaultTiming() Timing {
	return Timing{
		InterruptPause:  50 * time.Millisecond,
		StopSettle:      100 * time.Millisecond,
		RetryBackoff:    500 * time.Millisecond,
		RebootPause:     500 * time.Millisecond,
		CorrectivePause: 100 * time.Millisecond,
		AckTimeout:      2 * time.Second,
		OutputTimeout:   5 * time.Second,
		BannerTimeout:   2 * time.Second,
		PromptTimeout:   time.Second,
		ReadSlice:       50 * time.Millisecond,
	}
}
