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

package device

// OutcomeKind classifies the result of one execute-and-capture call.
type OutcomeKind int

const (
	// OutcomeOK means the payload was acknowledged and all output captured.
	OutcomeOK OutcomeKind = iota
	// OutcomeBusy means the device never acknowledged the payload. The
	// device may simply be mid-execution of something else; this is not
	// escalated as a fatal error.
	OutcomeBusy
	// OutcomeTimeout means the payload was acknowledged but output capture
	// did not complete within its budget.
	OutcomeTimeout
	// OutcomeTransportErr means the connection itself failed; the caller
	// should reconnect rather than retry blindly.
	OutcomeTransportErr
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeBusy:
		return "busy"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeTransportErr:
		return "transport-error"
	default:
		return "unknown"
	}
}

// Outcome is the result of one Run or Start call. Output holds whatever
// bytes were captured, even on failure, for diagnostics.
type Outcome struct {
	Err    error
	Output []byte
	Kind   OutcomeKind
}

// OK reports whether the call succeeded.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeOK
}

// StopResult is the tri-state result of a Stop call.
type StopResult int

const (
	// Stopped means the program was interrupted and raw mode re-entered.
	Stopped StopResult = iota
	// StoppedNotReady means the stop sequence ran but the device did not
	// re-enter raw mode; a retry or power cycle may be needed.
	StoppedNotReady
	// NeedsReconnect means the transport failed and the session must be
	// reconnected before anything else is attempted.
	NeedsReconnect
)

func (r StopResult) String() string {
	switch r {
	case Stopped:
		return "stopped"
	case StoppedNotReady:
		return "stopped-not-ready"
	case NeedsReconnect:
		return "needs-reconnect"
	default:
		return "unknown"
	}
}
