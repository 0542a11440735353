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

package worker

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/PicoPlotProject/picoplot-core/pkg/api/models"
	"github.com/PicoPlotProject/picoplot-core/pkg/config"
	"github.com/PicoPlotProject/picoplot-core/pkg/database/recordingdb"
	"github.com/PicoPlotProject/picoplot-core/pkg/device"
	"github.com/PicoPlotProject/picoplot-core/pkg/device/transport"
	"github.com/PicoPlotProject/picoplot-core/pkg/plotstream"
	"github.com/PicoPlotProject/picoplot-core/pkg/service/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const rawReplGreeting = "raw REPL; CTRL-B to exit\r\n>"

func testTiming() device.Timing {
	return device.Timing{
		InterruptPause:  time.Millisecond,
		StopSettle:      time.Millisecond,
		RetryBackoff:    time.Millisecond,
		RebootPause:     time.Millisecond,
		CorrectivePause: time.Millisecond,
		AckTimeout:      25 * time.Millisecond,
		OutputTimeout:   50 * time.Millisecond,
		BannerTimeout:   25 * time.Millisecond,
		PromptTimeout:   25 * time.Millisecond,
		ReadSlice:       time.Millisecond,
	}
}

type fixture struct {
	w        *Worker
	st       *state.State
	ns       <-chan models.Notification
	mock     *transport.MockPort
	nextMock *transport.MockPort
	cfg      *config.Instance
	db       *recordingdb.RecordingDB
}

// newFixture wires a worker against a scripted serial port and runs its
// loop goroutine for the duration of the test. The reader pump is not
// started: tests feed stream bytes through the chunks channel (or start
// the pump themselves) so reads stay deterministic.
func newFixture(t *testing.T, withDB bool) *fixture {
	t.Helper()

	cfg, err := config.NewConfig(t.TempDir(), config.BaseDefaults)
	require.NoError(t, err)

	st, ns := state.NewState(nil)

	f := &fixture{st: st, ns: ns, cfg: cfg, mock: transport.NewMockPort()}

	opened := 0
	factory := func(_ string, _ *serial.Mode) (transport.Port, error) {
		opened++
		if opened > 1 && f.nextMock != nil {
			return f.nextMock, nil
		}
		return f.mock, nil
	}

	session := device.NewSession(factory, nil)
	session.SetTiming(testTiming())

	if withDB {
		f.db, err = recordingdb.Open(context.Background(), ":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = f.db.Close() })
	}

	f.w = New(cfg, st, session, f.db, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.w.loop(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return f
}

func (f *fixture) connect(t *testing.T) {
	t.Helper()
	f.mock.QueueRead([]byte(rawReplGreeting))
	require.NoError(t, f.w.Connect(context.Background(), "/dev/ttyACM0", 115200))
}

func waitNotification(
	t *testing.T, ns <-chan models.Notification, method string,
) models.Notification {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case n := <-ns:
			if n.Method == method {
				return n
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s notification", method)
		}
	}
}

func mustDataPacket(t *testing.T, values ...uint16) []byte {
	t.Helper()
	pkt, err := plotstream.AppendData(nil, values)
	require.NoError(t, err)
	return pkt
}

func mustConfigPacket(t *testing.T, names ...string) []byte {
	t.Helper()
	pkt, err := plotstream.AppendConfig(nil, names)
	require.NoError(t, err)
	return pkt
}

func TestConnectNotifies(t *testing.T) {
	f := newFixture(t, false)
	f.connect(t)

	assert.True(t, f.st.Connected())

	n := waitNotification(t, f.ns, models.NotificationDeviceConnected)
	params, ok := n.Params.(models.DeviceConnectedParams)
	require.True(t, ok)
	assert.Equal(t, "/dev/ttyACM0", params.Port)
	assert.Equal(t, 115200, params.Baud)
}

func TestConnectUsesConfiguredPort(t *testing.T) {
	f := newFixture(t, false)
	require.NoError(t, f.cfg.SetDevicePort("/dev/ttyUSB7"))

	f.mock.QueueRead([]byte(rawReplGreeting))
	require.NoError(t, f.w.Connect(context.Background(), "", 0))

	status := f.st.Status()
	assert.Equal(t, "/dev/ttyUSB7", status.Port)
	assert.Equal(t, config.DefaultBaudRate, status.Baud)
}

func TestDisconnect(t *testing.T) {
	f := newFixture(t, false)
	f.connect(t)
	waitNotification(t, f.ns, models.NotificationDeviceConnected)

	require.NoError(t, f.w.Disconnect(context.Background()))

	assert.False(t, f.st.Connected())
	assert.True(t, f.mock.IsClosed())

	n := waitNotification(t, f.ns, models.NotificationDeviceDisconnected)
	params, ok := n.Params.(models.DeviceDisconnectedParams)
	require.True(t, ok)
	assert.Empty(t, params.Reason)
}

func TestEvalCapturesOutput(t *testing.T) {
	f := newFixture(t, false)
	f.connect(t)

	f.mock.QueueRead([]byte("OK1\r\n\x04\x04>"))
	out, err := f.w.Eval(context.Background(), []byte("print(1)"))
	require.NoError(t, err)
	assert.Equal(t, "1\r\n", out)
}

func TestEvalNotConnected(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.w.Eval(context.Background(), []byte("print(1)"))
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestRunNotConnected(t *testing.T) {
	f := newFixture(t, false)

	err := f.w.Run(context.Background(), []byte("loop()"), nil)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestRunAutoRecordsStream(t *testing.T) {
	f := newFixture(t, true)
	f.cfg.SetAutoRecord(true)
	f.connect(t)

	// The config and first sample ride in with the ack.
	resp := []byte("OK")
	resp = append(resp, mustConfigPacket(t, "temp", "rpm")...)
	resp = append(resp, mustDataPacket(t, 42, 99)...)
	f.mock.QueueRead(resp)

	require.NoError(t, f.w.Run(context.Background(), []byte("loop()"), nil))

	assert.True(t, f.st.Running())
	id, active := f.st.Recording()
	require.True(t, active)

	waitNotification(t, f.ns, models.NotificationRunStarted)
	waitNotification(t, f.ns, models.NotificationRecordingStarted)

	n := waitNotification(t, f.ns, models.NotificationPlotConfig)
	cfgParams, ok := n.Params.(models.PlotConfigParams)
	require.True(t, ok)
	assert.Equal(t, []string{"temp", "rpm"}, cfgParams.Channels)

	n = waitNotification(t, f.ns, models.NotificationPlotData)
	dataParams, ok := n.Params.(models.PlotDataParams)
	require.True(t, ok)
	assert.Equal(t, [][]uint16{{42, 99}}, dataParams.Samples)

	rec, err := f.db.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"temp", "rpm"}, rec.Channels)
	assert.EqualValues(t, 1, rec.Samples)
}

func TestRunRecordOverrideDisables(t *testing.T) {
	f := newFixture(t, true)
	f.cfg.SetAutoRecord(true)
	f.connect(t)

	f.mock.QueueRead([]byte("OK"))
	record := false
	require.NoError(t, f.w.Run(context.Background(), []byte("loop()"), &record))

	assert.True(t, f.st.Running())
	_, active := f.st.Recording()
	assert.False(t, active)
}

func TestStopFinishesRecording(t *testing.T) {
	f := newFixture(t, true)
	f.connect(t)

	f.mock.QueueRead([]byte("OK"))
	record := true
	require.NoError(t, f.w.Run(context.Background(), []byte("loop()"), &record))
	id, active := f.st.Recording()
	require.True(t, active)

	// Stop soft-reboots back into raw mode, so another greeting is read.
	f.mock.QueueRead([]byte(rawReplGreeting))
	require.NoError(t, f.w.Stop(context.Background()))

	assert.False(t, f.st.Running())
	_, active = f.st.Recording()
	assert.False(t, active)

	n := waitNotification(t, f.ns, models.NotificationRecordingStopped)
	params, ok := n.Params.(models.RecordingStoppedParams)
	require.True(t, ok)
	assert.Equal(t, id, params.ID)

	waitNotification(t, f.ns, models.NotificationRunStopped)

	rec, err := f.db.Get(id)
	require.NoError(t, err)
	require.NotNil(t, rec.StoppedAt)
}

func TestStopRetriesAfterReconnect(t *testing.T) {
	f := newFixture(t, false)
	f.connect(t)

	// Second port succeeds: it serves a greeting after every raw-mode
	// entry byte so both the reconnect and the retried stop find it.
	replacement := transport.NewMockPort()
	served := 0
	replacement.ReadFunc = func(p []byte) (int, error) {
		wants := bytes.Count(replacement.WrittenBytes(), []byte{0x01})
		if served < wants {
			served++
			return copy(p, rawReplGreeting), nil
		}
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	f.nextMock = replacement

	// First stop attempt fails at the transport, forcing the reconnect.
	f.mock.WriteError = assert.AnError

	require.NoError(t, f.w.Stop(context.Background()))
	assert.True(t, f.st.Connected())
	assert.False(t, f.st.Running())
}

func TestStopFailsWhenReconnectFails(t *testing.T) {
	f := newFixture(t, false)
	f.connect(t)
	waitNotification(t, f.ns, models.NotificationDeviceConnected)

	// Every port write fails, including on the reconnected port.
	f.mock.WriteError = assert.AnError

	err := f.w.Stop(context.Background())
	assert.ErrorIs(t, err, ErrStopFailed)
	assert.False(t, f.st.Connected())

	waitNotification(t, f.ns, models.NotificationDeviceDisconnected)
}

func TestStreamChunkFansOut(t *testing.T) {
	f := newFixture(t, false)
	f.connect(t)

	chunk := []byte("hello")
	chunk = append(chunk, mustDataPacket(t, 7)...)
	f.w.chunks <- chunk

	n := waitNotification(t, f.ns, models.NotificationConsoleOutput)
	text, ok := n.Params.(models.ConsoleOutputParams)
	require.True(t, ok)
	assert.Equal(t, "hello", text.Text)

	n = waitNotification(t, f.ns, models.NotificationPlotData)
	data, ok := n.Params.(models.PlotDataParams)
	require.True(t, ok)
	assert.Equal(t, [][]uint16{{7}}, data.Samples)
}

func TestPumpDeliversStreamBytes(t *testing.T) {
	f := newFixture(t, false)
	f.connect(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.w.pump(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	f.mock.QueueRead(mustDataPacket(t, 3, 4))

	n := waitNotification(t, f.ns, models.NotificationPlotData)
	data, ok := n.Params.(models.PlotDataParams)
	require.True(t, ok)
	assert.Equal(t, [][]uint16{{3, 4}}, data.Samples)
}

func TestRecordStartStop(t *testing.T) {
	f := newFixture(t, true)
	f.connect(t)

	id, err := f.w.RecordStart(context.Background(), "bench")
	require.NoError(t, err)
	require.Positive(t, id)

	f.w.chunks <- mustDataPacket(t, 1)
	f.w.chunks <- mustDataPacket(t, 2)
	waitNotification(t, f.ns, models.NotificationPlotData)
	waitNotification(t, f.ns, models.NotificationPlotData)

	stoppedID, samples, err := f.w.RecordStop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id, stoppedID)
	assert.EqualValues(t, 2, samples)

	stored, err := f.db.GetSamples(id)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, []uint16{1}, stored[0].Values)
	assert.Equal(t, []uint16{2}, stored[1].Values)
	assert.EqualValues(t, 0, stored[0].Seq)
	assert.EqualValues(t, 1, stored[1].Seq)
}

func TestRecordStopWithoutRecording(t *testing.T) {
	f := newFixture(t, true)
	f.connect(t)

	_, _, err := f.w.RecordStop(context.Background())
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestRecordStartWithoutDatabase(t *testing.T) {
	f := newFixture(t, false)
	f.connect(t)

	_, err := f.w.RecordStart(context.Background(), "bench")
	assert.ErrorIs(t, err, ErrRecordingDisabled)
}

func TestRecordStartNotConnected(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.w.RecordStart(context.Background(), "bench")
	assert.ErrorIs(t, err, ErrNotConnected)
}
