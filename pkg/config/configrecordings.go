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

package config

const DefaultRetentionDays = 30

// Recordings controls persistence of telemetry runs to the local database.
type Recordings struct {
	// ExportDir overrides where CSV exports are written. Empty uses the
	// platform data dir.
	ExportDir string `toml:"export_dir,omitempty"`
	// RetentionDays is how long finished recordings are kept before
	// cleanup. Zero or negative disables cleanup.
	RetentionDays int `toml:"retention_days,omitempty"`
	// AutoRecord starts a recording automatically every time a program
	// run begins.
	AutoRecord bool `toml:"auto_record,omitempty"`
}

func (c *Instance) AutoRecord() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Recordings.AutoRecord
}

func (c *Instance) SetAutoRecord(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Recordings.AutoRecord = enabled
}

func (c *Instance) RecordingsRetentionDays() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Recordings.RetentionDays
}

func (c *Instance) RecordingsExportDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Recordings.ExportDir
}
