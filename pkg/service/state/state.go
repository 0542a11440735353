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

package state

import (
	"context"

	"github.com/PicoPlotProject/picoplot-core/pkg/api/models"
	"github.com/PicoPlotProject/picoplot-core/pkg/api/notifications"
	"github.com/PicoPlotProject/picoplot-core/pkg/helpers/syncutil"
	"github.com/PicoPlotProject/picoplot-core/pkg/platforms"
)

// State holds the runtime state of the PicoPlot service.
//
// LOCKING RULES: mu protects all mutable fields. To prevent deadlocks:
//   - Never send to channels while holding the lock (notifications)
//   - Never call external methods while holding the lock
//   - Pattern: lock → modify state → copy needed data → unlock → notify
type State struct {
	platform      platforms.Platform
	ctx           context.Context
	ctxCancelFunc context.CancelFunc
	Notifications chan<- models.Notification
	port          string
	baud          int
	lastError     string
	channels      []string
	recordingID   int64
	mu            syncutil.RWMutex
	connected     bool
	running       bool
	recording     bool
	stopService   bool
}

// NewState creates service state plus the notification source channel the
// broker drains. The buffer absorbs plot.data bursts from fast loops
// without ever blocking the worker.
func NewState(platform platforms.Platform) (*State, <-chan models.Notification) {
	ns := make(chan models.Notification, 500)
	ctx, cancel := context.WithCancel(context.Background())
	return &State{
		platform:      platform,
		Notifications: ns,
		ctx:           ctx,
		ctxCancelFunc: cancel,
	}, ns
}

func (s *State) Platform() platforms.Platform {
	return s.platform
}

// GetContext returns the context cancelled when the service stops.
func (s *State) GetContext() context.Context {
	return s.ctx
}

func (s *State) StopService() {
	s.mu.Lock()
	s.stopService = true
	s.mu.Unlock()
	s.ctxCancelFunc()
}

func (s *State) ShouldStopService() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopService
}

// SetConnected records an established device connection and notifies.
func (s *State) SetConnected(port string, baud int) {
	s.mu.Lock()
	s.connected = true
	s.port = port
	s.baud = baud
	s.lastError = ""
	s.mu.Unlock()

	notifications.DeviceConnected(s.Notifications, models.DeviceConnectedParams{
		Port: port,
		Baud: baud,
	})
}

// SetDisconnected clears connection-scoped state and notifies with the
// failure reason (empty for a clean disconnect).
func (s *State) SetDisconnected(reason string) {
	s.mu.Lock()
	wasConnected := s.connected
	s.connected = false
	s.running = false
	s.lastError = reason
	s.mu.Unlock()

	if wasConnected {
		notifications.DeviceDisconnected(s.Notifications, models.DeviceDisconnectedParams{
			Reason: reason,
		})
	}
}

func (s *State) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *State) Port() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.port
}

// SetRunning flips the program-running flag and notifies on transitions.
func (s *State) SetRunning(running bool) {
	s.mu.Lock()
	changed := s.running != running
	s.running = running
	if running {
		// New run: channel names from the previous run no longer apply.
		s.channels = nil
	}
	s.mu.Unlock()

	if !changed {
		return
	}
	if running {
		notifications.RunStarted(s.Notifications)
	} else {
		notifications.RunStopped(s.Notifications)
	}
}

func (s *State) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// SetChannels stores the channel names surfaced by the first config packet
// of the current run.
func (s *State) SetChannels(channels []string) {
	s.mu.Lock()
	s.channels = append([]string(nil), channels...)
	s.mu.Unlock()
}

func (s *State) Channels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.channels...)
}

// SetRecording marks a recording in progress (id > 0) or stopped (0).
func (s *State) SetRecording(id int64) {
	s.mu.Lock()
	s.recording = id > 0
	s.recordingID = id
	s.mu.Unlock()
}

func (s *State) Recording() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recordingID, s.recording
}

func (s *State) SetLastError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

// Status returns a consistent snapshot for the device.status method.
func (s *State) Status() models.StatusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.StatusResponse{
		Connected: s.connected,
		Port:      s.port,
		Baud:      s.baud,
		Running:   s.running,
		Recording: s.recording,
		LastError: s.lastError,
	}
}
