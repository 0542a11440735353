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
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/PicoPlotProject/picoplot-core/pkg/database"
	"github.com/PicoPlotProject/picoplot-core/pkg/plotstream"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func sqlMigrateUp(db *sql.DB) error {
	if err := database.MigrateUp(db, migrationFiles, "migrations"); err != nil {
		return fmt.Errorf("failed to run recording database migrations: %w", err)
	}
	return nil
}

func sqlStartRecording(ctx context.Context, db *sql.DB, name string, startedAt time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `
	INSERT INTO Recordings (Name, StartedAt) VALUES (?, ?)
	`, name, startedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert recording: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read recording id: %w", err)
	}
	return id, nil
}

func sqlSetChannels(ctx context.Context, db *sql.DB, id int64, channels []string) error {
	encoded, err := json.Marshal(channels)
	if err != nil {
		return fmt.Errorf("failed to encode channel names: %w", err)
	}

	_, err = db.ExecContext(ctx, `
	UPDATE Recordings SET Channels = ? WHERE DBID = ?
	`, string(encoded), id)
	if err != nil {
		return fmt.Errorf("failed to update recording channels: %w", err)
	}
	return nil
}

func sqlAddSamples(
	ctx context.Context, db *sql.DB,
	id, firstSeq int64, ts time.Time, values [][]uint16,
) error {
	if len(values) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin sample batch: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Error().Err(err).Msg("failed to rollback sample batch")
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO Samples (RecordingDBID, Seq, Ts, ValueCount, V0, V1, V2, V3, V4)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare sample insert: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close sample statement")
		}
	}()

	for i, sample := range values {
		cols := make([]any, plotstream.MaxChannels)
		for j, v := range sample {
			if j >= plotstream.MaxChannels {
				break
			}
			cols[j] = int64(v)
		}

		_, err = stmt.ExecContext(ctx,
			id, firstSeq+int64(i), ts, len(sample),
			cols[0], cols[1], cols[2], cols[3], cols[4])
		if err != nil {
			return fmt.Errorf("failed to insert sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sample batch: %w", err)
	}
	return nil
}

func sqlStopRecording(ctx context.Context, db *sql.DB, id int64, stoppedAt time.Time) error {
	res, err := db.ExecContext(ctx, `
	UPDATE Recordings SET StoppedAt = ? WHERE DBID = ? AND StoppedAt IS NULL
	`, stoppedAt, id)
	if err != nil {
		return fmt.Errorf("failed to stop recording: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check stop result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

const recordingColumns = `
	r.DBID, r.Name, r.Channels, r.StartedAt, r.StoppedAt,
	(SELECT COUNT(*) FROM Samples s WHERE s.RecordingDBID = r.DBID)
`

func scanRecording(scanner interface{ Scan(...any) error }) (Recording, error) {
	var rec Recording
	var channels string
	var stoppedAt sql.NullTime

	err := scanner.Scan(&rec.ID, &rec.Name, &channels, &rec.StartedAt, &stoppedAt, &rec.Samples)
	if err != nil {
		return rec, err //nolint:wrapcheck // callers wrap with query context
	}

	if stoppedAt.Valid {
		t := stoppedAt.Time
		rec.StoppedAt = &t
	}
	if err := json.Unmarshal([]byte(channels), &rec.Channels); err != nil {
		log.Warn().Err(err).Int64("id", rec.ID).Msg("bad channel names in recording row")
		rec.Channels = nil
	}
	return rec, nil
}

func sqlListRecordings(ctx context.Context, db *sql.DB) ([]Recording, error) {
	rows, err := db.QueryContext(ctx, `
	SELECT `+recordingColumns+`
	FROM Recordings r
	ORDER BY r.StartedAt DESC, r.DBID DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recordings: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close recordings rows")
		}
	}()

	recordings := []Recording{}
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recording: %w", err)
		}
		recordings = append(recordings, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading recordings: %w", err)
	}
	return recordings, nil
}

func sqlGetRecording(ctx context.Context, db *sql.DB, id int64) (Recording, error) {
	row := db.QueryRowContext(ctx, `
	SELECT `+recordingColumns+`
	FROM Recordings r
	WHERE r.DBID = ?
	`, id)

	rec, err := scanRecording(row)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("failed to get recording: %w", err)
	}
	return rec, nil
}

func sqlGetSamples(ctx context.Context, db *sql.DB, id int64) ([]Sample, error) {
	rows, err := db.QueryContext(ctx, `
	SELECT Seq, Ts, ValueCount, V0, V1, V2, V3, V4
	FROM Samples
	WHERE RecordingDBID = ?
	ORDER BY Seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close samples rows")
		}
	}()

	samples := []Sample{}
	for rows.Next() {
		var s Sample
		var count int
		cols := make([]sql.NullInt64, plotstream.MaxChannels)

		err := rows.Scan(&s.Seq, &s.Ts, &count,
			&cols[0], &cols[1], &cols[2], &cols[3], &cols[4])
		if err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}

		if count > plotstream.MaxChannels {
			count = plotstream.MaxChannels
		}
		s.Values = make([]uint16, 0, count)
		for i := 0; i < count; i++ {
			if cols[i].Valid {
				s.Values = append(s.Values, uint16(cols[i].Int64)) //nolint:gosec // stored from uint16
			}
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading samples: %w", err)
	}
	return samples, nil
}

func sqlDeleteRecording(ctx context.Context, db *sql.DB, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM Recordings WHERE DBID = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recording: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func sqlCleanupRecordings(ctx context.Context, db *sql.DB, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	res, err := db.ExecContext(ctx, `
	DELETE FROM Recordings WHERE StoppedAt IS NOT NULL AND StoppedAt < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up recordings: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check cleanup result: %w", err)
	}
	if rows > 0 {
		log.Info().Int64("removed", rows).Msg("cleaned up old recordings")
	}
	return rows, nil
}
