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

package crashreport

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
)

func TestSanitizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "no username in path",
			input:    "/usr/local/bin/picoplot",
			expected: "/usr/local/bin/picoplot",
		},
		{
			name:     "linux home path",
			input:    "/home/sam/dev/picoplot-core/pkg/config/config.go",
			expected: "/home/<user>/dev/picoplot-core/pkg/config/config.go",
		},
		{
			name:     "linux home path uppercase",
			input:    "/Home/Sam/dev/picoplot-core/pkg/config/config.go",
			expected: "/home/<user>/dev/picoplot-core/pkg/config/config.go",
		},
		{
			name:     "macos users path",
			input:    "/Users/sam/Documents/picoplot/config.toml",
			expected: "/Users/<user>/Documents/picoplot/config.toml",
		},
		{
			name:     "windows path",
			input:    "C:\\Users\\sam\\AppData\\Local\\picoplot\\config.toml",
			expected: "C:\\Users\\<user>\\AppData\\Local\\picoplot\\config.toml",
		},
		{
			name:     "windows path different drive",
			input:    "D:\\Users\\admin\\picoplot\\logs",
			expected: "C:\\Users\\<user>\\picoplot\\logs",
		},
		{
			name:     "error message with path",
			input:    "failed to open file: /home/user123/config.toml: no such file",
			expected: "failed to open file: /home/<user>/config.toml: no such file",
		},
		{
			name:     "multiple paths in message",
			input:    "copying /home/alice/src to /home/bob/dst",
			expected: "copying /home/<user>/src to /home/<user>/dst",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := sanitizePath(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSanitizeEvent(t *testing.T) {
	t.Parallel()

	event := &sentry.Event{
		ServerName: "my-hostname",
		Message:    "open /home/sam/main.py failed",
		Extra: map[string]any{
			"path":  "/Users/sam/recordings",
			"count": 3,
		},
	}

	result := sanitizeEvent(event)

	assert.Empty(t, result.ServerName)
	assert.Equal(t, "open /home/<user>/main.py failed", result.Message)
	assert.Equal(t, "/Users/<user>/recordings", result.Extra["path"])
	assert.Equal(t, 3, result.Extra["count"])
}

func TestEnabled(t *testing.T) {
	t.Parallel()

	// enabled starts as false
	assert.False(t, Enabled(), "crash reporting should be disabled by default")
}

func TestCloseWhenDisabled(t *testing.T) {
	t.Parallel()

	// Should not panic when called while disabled
	Close()
}

func TestFlushWhenDisabled(t *testing.T) {
	t.Parallel()

	// Should not panic when called while disabled
	Flush()
}
