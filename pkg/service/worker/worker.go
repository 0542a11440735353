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

// Package worker serializes all device access on a single goroutine. API
// handlers submit requests over a channel and every request yields exactly
// one completion; the stream reader pump feeds raw chunks to the same
// goroutine so telemetry decoding never races a command.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PicoPlotProject/picoplot-core/pkg/config"
	"github.com/PicoPlotProject/picoplot-core/pkg/database/recordingdb"
	"github.com/PicoPlotProject/picoplot-core/pkg/device"
	"github.com/PicoPlotProject/picoplot-core/pkg/device/devicefs"
	"github.com/PicoPlotProject/picoplot-core/pkg/plotstream"
	"github.com/PicoPlotProject/picoplot-core/pkg/service/state"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoPort       = errors.New("no device port selected and none detected")
	ErrNotConnected = errors.New("device not connected")
	ErrNotRecording = errors.New("no recording in progress")
	ErrStopFailed   = errors.New("failed to stop program, device reconnect did not recover it")
	ErrShuttingDown = errors.New("service is shutting down")
)

// readBufferSize is the pump's per-read buffer. Large enough to drain a
// fast plotting loop between slices.
const readBufferSize = 4096

// pumpIdlePause is how long the pump waits before polling again while no
// device is connected.
const pumpIdlePause = 250 * time.Millisecond

type result struct {
	value any
	err   error
}

type request struct {
	fn    func() (any, error)
	reply chan result
}

// Worker owns the device session, the stream demultiplexer and the
// recording sink. All fields below requests are touched only on the worker
// goroutine.
type Worker struct {
	session  *device.Session
	fs       *devicefs.FS
	demux    *plotstream.Demux
	st       *state.State
	cfg      *config.Instance
	db       *recordingdb.RecordingDB
	clock    clockwork.Clock
	requests chan request
	chunks   chan []byte
	stopped  chan struct{}

	recID   int64
	recSeq  int64
	recName string
}

// New creates a worker. db may be nil, which disables recording. A nil
// clock uses the real clock.
func New(
	cfg *config.Instance,
	st *state.State,
	session *device.Session,
	db *recordingdb.RecordingDB,
	clock clockwork.Clock,
) *Worker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Worker{
		session:  session,
		fs:       devicefs.New(session),
		demux:    plotstream.NewDemux(cfg.FlushThreshold()),
		st:       st,
		cfg:      cfg,
		db:       db,
		clock:    clock,
		requests: make(chan request, 32),
		chunks:   make(chan []byte, 32),
		stopped:  make(chan struct{}),
	}
}

// Start launches the worker loop and the reader pump. Both exit when ctx
// is cancelled.
func (w *Worker) Start(ctx context.Context) {
	go w.loop(ctx)
	go w.pump(ctx)
}

// Done is closed once the worker loop has exited and any open recording
// has been finalized. Teardown waits on it before closing the database.
func (w *Worker) Done() <-chan struct{} {
	return w.stopped
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.stopped)
	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("worker loop stopping")
			w.finishRecording()
			w.session.Disconnect()
			return
		case req := <-w.requests:
			value, err := req.fn()
			req.reply <- result{value: value, err: err}
		case chunk := <-w.chunks:
			w.handleChunk(chunk)
		}
	}
}

// pump performs short bounded reads against the session and hands any
// bytes to the worker goroutine. It replaces a poll timer: the read itself
// blocks up to one slice, so data is picked up as soon as it arrives.
func (w *Worker) pump(ctx context.Context) {
	buf := make([]byte, readBufferSize)
	for {
		if ctx.Err() != nil {
			log.Debug().Msg("reader pump stopping")
			return
		}

		if !w.session.Connected() {
			w.clock.Sleep(pumpIdlePause)
			continue
		}

		n, err := w.session.ReadAvailable(buf)
		if err != nil {
			if !w.session.Connected() {
				// ReadAvailable already classified this as a disconnect.
				w.notifyDisconnected(err.Error())
			} else {
				log.Debug().Err(err).Msg("stream read error")
				w.clock.Sleep(pumpIdlePause)
			}
			continue
		}
		if n == 0 {
			continue
		}

		chunk := make([]byte, n)
		copy(chunk, buf[:n])

		select {
		case w.chunks <- chunk:
		case <-ctx.Done():
			return
		}
	}
}

// submit runs fn on the worker goroutine and waits for its completion.
func (w *Worker) submit(ctx context.Context, fn func() (any, error)) (any, error) {
	req := request{fn: fn, reply: make(chan result, 1)}

	select {
	case w.requests <- req:
	case <-ctx.Done():
		return nil, fmt.Errorf("request not submitted: %w", ctx.Err())
	}

	select {
	case res := <-req.reply:
		return res.value, res.err
	case <-ctx.Done():
		// The request still executes; the buffered reply is dropped.
		return nil, fmt.Errorf("request abandoned: %w", ctx.Err())
	}
}

// notifyDisconnected routes an asynchronous disconnect through the worker
// goroutine so recording teardown stays single-threaded.
func (w *Worker) notifyDisconnected(reason string) {
	req := request{
		fn: func() (any, error) {
			w.markDisconnected(reason)
			return nil, nil
		},
		reply: make(chan result, 1),
	}
	select {
	case w.requests <- req:
	default:
		log.Warn().Msg("worker queue full, dropping disconnect event")
	}
}

// markDisconnected tears down connection-scoped state after a transport
// failure. Worker goroutine only.
func (w *Worker) markDisconnected(reason string) {
	log.Warn().Str("reason", reason).Msg("device disconnected")
	w.finishRecording()
	w.session.Disconnect()
	w.demux.Reset()
	w.st.SetDisconnected(reason)
}
