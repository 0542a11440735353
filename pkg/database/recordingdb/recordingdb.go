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

// Package recordingdb persists telemetry runs to a local sqlite database:
// one row per recording, one row per sample set.
package recordingdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/PicoPlotProject/picoplot-core/pkg/config"
	"github.com/PicoPlotProject/picoplot-core/pkg/helpers"
	"github.com/PicoPlotProject/picoplot-core/pkg/platforms"
	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrNullSQL  = errors.New("recording database is not connected")
	ErrNotFound = errors.New("recording not found")
)

const sqliteConnParams = "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"

// RecordingDB is the telemetry recording store.
type RecordingDB struct {
	sql *sql.DB
	ctx context.Context
}

// OpenRecordingDB opens (creating and migrating if necessary) the
// recordings database in the platform data dir.
func OpenRecordingDB(ctx context.Context, pl platforms.Platform) (*RecordingDB, error) {
	dbPath := filepath.Join(helpers.DataDir(pl), config.RecordingsDbFile)
	return Open(ctx, dbPath)
}

// Open opens the recordings database at an explicit path. Used directly by
// tests with ":memory:".
func Open(ctx context.Context, dbPath string) (*RecordingDB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create directory for database: %w", err)
		}
	}

	sqlInstance, err := sql.Open("sqlite3", dbPath+sqliteConnParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &RecordingDB{sql: sqlInstance, ctx: ctx}
	if err := db.MigrateUp(); err != nil {
		_ = sqlInstance.Close()
		return nil, err
	}
	return db, nil
}

func (db *RecordingDB) MigrateUp() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(db.sql)
}

// UnsafeGetSQLDb exposes the underlying handle for tests.
func (db *RecordingDB) UnsafeGetSQLDb() *sql.DB {
	return db.sql
}

func (db *RecordingDB) Close() error {
	if db.sql == nil {
		return nil
	}
	err := db.sql.Close()
	db.sql = nil
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Recording is one telemetry run.
type Recording struct {
	StartedAt time.Time
	StoppedAt *time.Time
	Name      string
	Channels  []string
	ID        int64
	Samples   int64
}

// Sample is one decoded telemetry sample set.
type Sample struct {
	Ts     time.Time
	Values []uint16
	Seq    int64
}

// StartRecording inserts a new recording row and returns its id.
func (db *RecordingDB) StartRecording(name string, startedAt time.Time) (int64, error) {
	if db.sql == nil {
		return 0, ErrNullSQL
	}
	return sqlStartRecording(db.ctx, db.sql, name, startedAt)
}

// SetChannels stores the channel names once the run's config packet
// arrives.
func (db *RecordingDB) SetChannels(id int64, channels []string) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlSetChannels(db.ctx, db.sql, id, channels)
}

// AddSamples appends a batch of samples in one transaction. firstSeq is
// the sequence number of the first sample in the batch.
func (db *RecordingDB) AddSamples(id, firstSeq int64, ts time.Time, values [][]uint16) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlAddSamples(db.ctx, db.sql, id, firstSeq, ts, values)
}

// StopRecording closes a recording.
func (db *RecordingDB) StopRecording(id int64, stoppedAt time.Time) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlStopRecording(db.ctx, db.sql, id, stoppedAt)
}

// List returns all recordings, newest first, with their sample counts.
func (db *RecordingDB) List() ([]Recording, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlListRecordings(db.ctx, db.sql)
}

// Get returns one recording by id.
func (db *RecordingDB) Get(id int64) (Recording, error) {
	if db.sql == nil {
		return Recording{}, ErrNullSQL
	}
	return sqlGetRecording(db.ctx, db.sql, id)
}

// GetSamples returns every sample of a recording in sequence order.
func (db *RecordingDB) GetSamples(id int64) ([]Sample, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlGetSamples(db.ctx, db.sql, id)
}

// Delete removes a recording and, via cascade, its samples.
func (db *RecordingDB) Delete(id int64) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlDeleteRecording(db.ctx, db.sql, id)
}

// Cleanup deletes finished recordings older than retentionDays. Zero or
// negative retention disables cleanup.
func (db *RecordingDB) Cleanup(retentionDays int) (int64, error) {
	if db.sql == nil {
		return 0, ErrNullSQL
	}
	if retentionDays <= 0 {
		return 0, nil
	}
	return sqlCleanupRecordings(db.ctx, db.sql, retentionDays)
}
