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

import "time"

type VersionResponse struct {
	Version  string `json:"version"`
	Platform string `json:"platform"`
}

// Port is one serial port candidate on the host.
type Port struct {
	Device      string `json:"device"`
	Description string `json:"description,omitempty"`
	Pico        bool   `json:"pico"`
	Connected   bool   `json:"connected"`
}

type PortsResponse struct {
	Ports []Port `json:"ports"`
}

// StatusResponse is the device state snapshot returned by device.status.
type StatusResponse struct {
	Port      string `json:"port"`
	LastError string `json:"lastError,omitempty"`
	Baud      int    `json:"baud"`
	Connected bool   `json:"connected"`
	Running   bool   `json:"running"`
	Recording bool   `json:"recording"`
}

type EvalResponse struct {
	Output string `json:"output"`
}

type FileEntry struct {
	Name string `json:"name"`
	Dir  bool   `json:"dir"`
}

type FileListResponse struct {
	Path    string      `json:"path"`
	Entries []FileEntry `json:"entries"`
}

// FileReadResponse carries base64-encoded file content.
type FileReadResponse struct {
	Path string `json:"path"`
	Data string `json:"data"`
	Size int    `json:"size"`
}

type FileSyncResponse struct {
	Files int `json:"files"`
}

type RecordingInfo struct {
	StartedAt time.Time  `json:"startedAt"`
	StoppedAt *time.Time `json:"stoppedAt,omitempty"`
	Name      string     `json:"name"`
	Channels  []string   `json:"channels"`
	ID        int64      `json:"id"`
	Samples   int64      `json:"samples"`
}

type RecordingsResponse struct {
	Recordings []RecordingInfo `json:"recordings"`
}

type RecordingStartedResponse struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

type RecordingExportResponse struct {
	Path string `json:"path"`
}

type SettingsResponse struct {
	Port           string `json:"port"`
	DebugLogging   bool   `json:"debugLogging"`
	AutoRecord     bool   `json:"autoRecord"`
	FlushThreshold int    `json:"flushThreshold"`
	BaudRate       int    `json:"baudRate"`
	APIPort        int    `json:"apiPort"`
}

// Notification payloads.

type DeviceConnectedParams struct {
	Port string `json:"port"`
	Baud int    `json:"baud"`
}

type DeviceDisconnectedParams struct {
	Reason string `json:"reason,omitempty"`
}

type ConsoleOutputParams struct {
	Text string `json:"text"`
}

// PlotDataParams batches every sample decoded from one read chunk, in
// stream order.
type PlotDataParams struct {
	Samples [][]uint16 `json:"samples"`
}

type PlotConfigParams struct {
	Channels []string `json:"channels"`
}

type RecordingStartedParams struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

type RecordingStoppedParams struct {
	ID      int64 `json:"id"`
	Samples int64 `json:"samples"`
}
