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
	"testing"

	"github.com/PicoPlotProject/picoplot-core/pkg/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainOne(t *testing.T, ns <-chan models.Notification) models.Notification {
	t.Helper()
	select {
	case notif := <-ns:
		return notif
	default:
		t.Fatal("expected a notification, channel was empty")
		return models.Notification{}
	}
}

func TestSetConnectedNotifies(t *testing.T) {
	t.Parallel()

	st, ns := NewState(nil)

	st.SetConnected("/dev/ttyACM0", 115200)

	assert.True(t, st.Connected())
	assert.Equal(t, "/dev/ttyACM0", st.Port())

	notif := drainOne(t, ns)
	assert.Equal(t, models.NotificationDeviceConnected, notif.Method)
	params, ok := notif.Params.(models.DeviceConnectedParams)
	require.True(t, ok)
	assert.Equal(t, "/dev/ttyACM0", params.Port)
	assert.Equal(t, 115200, params.Baud)
}

func TestSetDisconnectedNotifiesOnlyWhenConnected(t *testing.T) {
	t.Parallel()

	st, ns := NewState(nil)

	// Not connected yet: no notification.
	st.SetDisconnected("read error")
	select {
	case notif := <-ns:
		t.Fatalf("unexpected notification %q", notif.Method)
	default:
	}

	st.SetConnected("/dev/ttyACM0", 115200)
	drainOne(t, ns)

	st.SetDisconnected("read error")
	assert.False(t, st.Connected())

	notif := drainOne(t, ns)
	assert.Equal(t, models.NotificationDeviceDisconnected, notif.Method)
}

func TestSetRunningNotifiesOnTransitionsOnly(t *testing.T) {
	t.Parallel()

	st, ns := NewState(nil)

	st.SetRunning(true)
	assert.Equal(t, models.NotificationRunStarted, drainOne(t, ns).Method)

	// Same value again: no notification.
	st.SetRunning(true)
	select {
	case notif := <-ns:
		t.Fatalf("unexpected notification %q", notif.Method)
	default:
	}

	st.SetRunning(false)
	assert.Equal(t, models.NotificationRunStopped, drainOne(t, ns).Method)
}

func TestRunStartClearsChannels(t *testing.T) {
	t.Parallel()

	st, _ := NewState(nil)

	st.SetChannels([]string{"temp", "humidity"})
	assert.Equal(t, []string{"temp", "humidity"}, st.Channels())

	st.SetRunning(true)
	assert.Empty(t, st.Channels())
}

func TestRecording(t *testing.T) {
	t.Parallel()

	st, _ := NewState(nil)

	id, active := st.Recording()
	assert.False(t, active)
	assert.Zero(t, id)

	st.SetRecording(7)
	id, active = st.Recording()
	assert.True(t, active)
	assert.Equal(t, int64(7), id)

	st.SetRecording(0)
	_, active = st.Recording()
	assert.False(t, active)
}

func TestStatusSnapshot(t *testing.T) {
	t.Parallel()

	st, ns := NewState(nil)
	st.SetConnected("/dev/ttyACM1", 9600)
	drainOne(t, ns)
	st.SetRunning(true)
	drainOne(t, ns)
	st.SetRecording(3)

	status := st.Status()
	assert.True(t, status.Connected)
	assert.Equal(t, "/dev/ttyACM1", status.Port)
	assert.Equal(t, 9600, status.Baud)
	assert.True(t, status.Running)
	assert.True(t, status.Recording)
	assert.Empty(t, status.LastError)
}

func TestStopServiceCancelsContext(t *testing.T) {
	t.Parallel()

	st, _ := NewState(nil)
	assert.False(t, st.ShouldStopService())

	st.StopService()

	assert.True(t, st.ShouldStopService())
	select {
	case <-st.GetContext().Done():
	default:
		t.Fatal("context should be cancelled after StopService")
	}
}
