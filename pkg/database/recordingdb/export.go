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
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// csvRow is the flat CSV export shape: one line per sample, fixed five
// value columns with empty cells past the channel count.
type csvRow struct {
	Timestamp string `csv:"timestamp"`
	V0        string `csv:"v0"`
	V1        string `csv:"v1"`
	V2        string `csv:"v2"`
	V3        string `csv:"v3"`
	V4        string `csv:"v4"`
	Seq       int64  `csv:"seq"`
}

// ExportCSV writes one recording to a CSV file under dir and returns the
// file path. The filesystem is abstracted so tests export to memory.
func (db *RecordingDB) ExportCSV(fs afero.Fs, id int64, dir string) (string, error) {
	rec, err := db.Get(id)
	if err != nil {
		return "", err
	}

	samples, err := db.GetSamples(id)
	if err != nil {
		return "", err
	}

	rows := make([]csvRow, 0, len(samples))
	for _, s := range samples {
		row := csvRow{
			Seq:       s.Seq,
			Timestamp: s.Ts.UTC().Format(time.RFC3339Nano),
		}
		cells := []*string{&row.V0, &row.V1, &row.V2, &row.V3, &row.V4}
		for i, v := range s.Values {
			if i >= len(cells) {
				break
			}
			*cells[i] = fmt.Sprintf("%d", v)
		}
		rows = append(rows, row)
	}

	if err := fs.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	path := filepath.Join(dir, exportFilename(rec))
	f, err := fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to close export file")
		}
	}()

	if err := gocsv.Marshal(rows, f); err != nil {
		return "", fmt.Errorf("failed to write export csv: %w", err)
	}

	log.Info().Int64("id", id).Str("path", path).Int("samples", len(rows)).Msg("exported recording")
	return path, nil
}

// exportFilename builds a stable, filesystem-safe name from the recording
// metadata.
func exportFilename(rec Recording) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, rec.Name)
	if name == "" {
		name = "recording"
	}
	return fmt.Sprintf("%s_%d_%s.csv", name, rec.ID, rec.StartedAt.UTC().Format("20060102T150405"))
}
