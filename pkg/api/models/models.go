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

// Package models defines the JSON-RPC wire objects, method names and
// notification payloads of the PicoPlot API.
package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Notification method names pushed to connected clients.
const (
	NotificationDeviceConnected    = "device.connected"
	NotificationDeviceDisconnected = "device.disconnected"
	NotificationRunStarted         = "run.started"
	NotificationRunStopped         = "run.stopped"
	NotificationConsoleOutput      = "console.output"
	NotificationPlotData           = "plot.data"
	NotificationPlotConfig         = "plot.config"
	NotificationRecordingStarted   = "recordings.started"
	NotificationRecordingStopped   = "recordings.stopped"
)

// Request method names accepted by the API.
const (
	MethodVersion          = "version"
	MethodPorts            = "ports"
	MethodDeviceConnect    = "device.connect"
	MethodDeviceDisconnect = "device.disconnect"
	MethodDeviceStatus     = "device.status"
	MethodDeviceSetPort    = "device.setport"
	MethodDeviceEval       = "device.eval"
	MethodDeviceInstallLib = "device.lib.install"
	MethodRun              = "run"
	MethodStop             = "stop"
	MethodFilesList        = "files.list"
	MethodFilesRead        = "files.read"
	MethodFilesWrite       = "files.write"
	MethodFilesDelete      = "files.delete"
	MethodFilesSync        = "files.sync"
	MethodRecordingsStart  = "recordings.start"
	MethodRecordingsStop   = "recordings.stop"
	MethodRecordingsList   = "recordings.list"
	MethodRecordingsDelete = "recordings.delete"
	MethodRecordingsExport = "recordings.export"
	MethodSettings         = "settings"
	MethodSettingsUpdate   = "settings.update"
	MethodSettingsReload   = "settings.reload"
)

// Notification is a server-initiated push message: a JSON-RPC request with
// no id.
type Notification struct {
	Params any
	Method string
}

type RequestObject struct {
	ID      *uuid.UUID      `json:"id,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
}

type ErrorObject struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type ResponseObject struct {
	Result  any          `json:"result"`
	Error   *ErrorObject `json:"error,omitempty"`
	JSONRPC string       `json:"jsonrpc"`
	ID      uuid.UUID    `json:"id"`
}
