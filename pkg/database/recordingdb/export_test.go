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

package recordingdb

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSV(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	started := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	id, err := db.StartRecording("bench test #1", started)
	require.NoError(t, err)
	require.NoError(t, db.SetChannels(id, []string{"temp", "humidity"}))

	ts := time.Date(2026, 3, 14, 9, 27, 0, 500000000, time.UTC)
	require.NoError(t, db.AddSamples(id, 0, ts, [][]uint16{
		{100, 200},
		{101, 201},
	}))

	fs := afero.NewMemMapFs()
	path, err := db.ExportCSV(fs, id, "/exports")
	require.NoError(t, err)

	wantName := "bench_test__1_" + "1" + "_20260314T092653.csv"
	assert.Equal(t, "/exports/"+wantName, path)

	content, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,v0,v1,v2,v3,v4,seq", lines[0])
	assert.Equal(t, "2026-03-14T09:27:00.5Z,100,200,,,,0", lines[1])
	assert.Equal(t, "2026-03-14T09:27:00.5Z,101,201,,,,1", lines[2])
}

func TestExportCSVEmptyRecording(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)

	id, err := db.StartRecording("empty", time.Now())
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	path, err := db.ExportCSV(fs, id, "/exports")
	require.NoError(t, err)

	content, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "timestamp,v0,v1,v2,v3,v4,seq", lines[0])
}

func TestExportCSVUnknownRecording(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)

	_, err := db.ExportCSV(afero.NewMemMapFs(), 42, "/exports")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExportFilename(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		recName  string
		expected string
	}{
		{
			name:     "plain name",
			recName:  "sensors",
			expected: "sensors_7_20260102T150405.csv",
		},
		{
			name:     "spaces and punctuation replaced",
			recName:  "lab run (v2)!",
			expected: "lab_run__v2___7_20260102T150405.csv",
		},
		{
			name:     "dashes and underscores kept",
			recName:  "run-01_a",
			expected: "run-01_a_7_20260102T150405.csv",
		},
		{
			name:     "empty name falls back",
			recName:  "",
			expected: "recording_7_20260102T150405.csv",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := Recording{ID: 7, Name: tt.recName, StartedAt: started}
			assert.Equal(t, tt.expected, exportFilename(rec))
		})
	}
}
