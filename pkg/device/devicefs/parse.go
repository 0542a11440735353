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

package devicefs

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Entry is one directory listing row.
type Entry struct {
	Name string
	Dir  bool
}

// parseList converts list program output into entries. Order is whatever
// the remote sort produced (lexicographic by name).
func parseList(output string) ([]Entry, error) {
	entries := []Entry{}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if msg, ok := strings.CutPrefix(line, listErrorPrefix); ok {
			return nil, fmt.Errorf("device error: %s", strings.TrimSpace(msg))
		}

		name, kind, ok := strings.Cut(line, "|")
		if !ok {
			// Stray program output, e.g. a leftover banner line.
			continue
		}

		entries = append(entries, Entry{
			Name: name,
			Dir:  kind == "DIR",
		})
	}

	return entries, nil
}

// parseRead recovers exact binary content from between the file sentinels.
// Absence of either sentinel, an error sentinel, or a malformed hex body
// are all parse failures; none is fatal to the session.
func parseRead(output string) ([]byte, error) {
	if idx := strings.Index(output, sentinelError); idx >= 0 {
		msg := strings.TrimSpace(output[idx+len(sentinelError):])
		return nil, fmt.Errorf("device error: %s", msg)
	}

	start := strings.Index(output, sentinelFileStart)
	if start < 0 {
		return nil, fmt.Errorf("file start sentinel not found in output")
	}
	body := output[start+len(sentinelFileStart):]

	end := strings.Index(body, sentinelFileEnd)
	if end < 0 {
		return nil, fmt.Errorf("file end sentinel not found in output")
	}

	content, err := hex.DecodeString(body[:end])
	if err != nil {
		return nil, fmt.Errorf("failed to decode file content: %w", err)
	}

	return content, nil
}

// parseResult checks for the success/error sentinel pair used by the write
// and delete programs.
func parseResult(output string) error {
	if idx := strings.Index(output, sentinelError); idx >= 0 {
		msg := strings.TrimSpace(output[idx+len(sentinelError):])
		return fmt.Errorf("device error: %s", msg)
	}
	if !strings.Contains(output, sentinelSuccess) {
		return fmt.Errorf("success sentinel not found in output")
	}
	return nil
}
