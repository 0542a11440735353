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

package models

// ConnectParams selects the board to connect to. Both fields are optional:
// an empty port uses the configured (or sole detected) port, a zero baud
// uses the configured rate.
type ConnectParams struct {
	Port string `json:"port,omitempty"`
	Baud int    `json:"baud,omitempty"    validate:"omitempty,min=1200,max=4000000"`
}

type SetPortParams struct {
	Port string `json:"port" validate:"required"`
}

// EvalParams carries code for a captured execution.
type EvalParams struct {
	Code string `json:"code" validate:"required"`
}

// RunParams carries a program for a streaming run. Record overrides the
// auto_record config setting for this run when set.
type RunParams struct {
	Record *bool  `json:"record,omitempty"`
	Code   string `json:"code"             validate:"required"`
}

type FilePathParams struct {
	Path string `json:"path" validate:"required,devicepath"`
}

// FileWriteParams carries base64-encoded file content so arbitrary binary
// data survives JSON transport.
type FileWriteParams struct {
	Path string `json:"path" validate:"required,devicepath"`
	Data string `json:"data" validate:"omitempty,base64"`
}

type FileSyncParams struct {
	LocalDir string `json:"localDir"       validate:"required"`
	Dest     string `json:"dest,omitempty" validate:"omitempty,devicepath"`
}

type RecordingStartParams struct {
	Name string `json:"name,omitempty" validate:"omitempty,max=128"`
}

type RecordingIDParams struct {
	ID int64 `json:"id" validate:"required,min=1"`
}

type RecordingExportParams struct {
	Dir string `json:"dir,omitempty"`
	ID  int64  `json:"id"            validate:"required,min=1"`
}

// UpdateSettingsParams updates config values in memory. Absent fields are
// left untouched; settings.reload discards unsaved changes.
type UpdateSettingsParams struct {
	DebugLogging   *bool `json:"debugLogging,omitempty"`
	AutoRecord     *bool `json:"autoRecord,omitempty"`
	FlushThreshold *int  `json:"flushThreshold,omitempty" validate:"omitempty,min=64,max=65536"`
	BaudRate       *int  `json:"baudRate,omitempty"       validate:"omitempty,min=1200,max=4000000"`
}
