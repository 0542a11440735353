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

// Package notifications provides typed senders for every push notification
// the service emits.
package notifications

import "github.com/PicoPlotProject/picoplot-core/pkg/api/models"

func DeviceConnected(ns chan<- models.Notification, payload models.DeviceConnectedParams) {
	ns <- models.Notification{
		Method: models.NotificationDeviceConnected,
		Params: payload,
	}
}

func DeviceDisconnected(ns chan<- models.Notification, payload models.DeviceDisconnectedParams) {
	ns <- models.Notification{
		Method: models.NotificationDeviceDisconnected,
		Params: payload,
	}
}

func RunStarted(ns chan<- models.Notification) {
	ns <- models.Notification{
		Method: models.NotificationRunStarted,
	}
}

func RunStopped(ns chan<- models.Notification) {
	ns <- models.Notification{
		Method: models.NotificationRunStopped,
	}
}

func ConsoleOutput(ns chan<- models.Notification, text string) {
	ns <- models.Notification{
		Method: models.NotificationConsoleOutput,
		Params: models.ConsoleOutputParams{Text: text},
	}
}

func PlotData(ns chan<- models.Notification, payload models.PlotDataParams) {
	ns <- models.Notification{
		Method: models.NotificationPlotData,
		Params: payload,
	}
}

func PlotConfig(ns chan<- models.Notification, channels []string) {
	ns <- models.Notification{
		Method: models.NotificationPlotConfig,
		Params: models.PlotConfigParams{Channels: channels},
	}
}

func RecordingStarted(ns chan<- models.Notification, payload models.RecordingStartedParams) {
	ns <- models.Notification{
		Method: models.NotificationRecordingStarted,
		Params: payload,
	}
}

func RecordingStopped(ns chan<- models.Notification, payload models.RecordingStoppedParams) {
	ns <- models.Notification{
		Method: models.NotificationRecordingStopped,
		Params: payload,
	}
}
