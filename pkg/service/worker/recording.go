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
	"context"
	"errors"
	"fmt"

	"github.com/PicoPlotProject/picoplot-core/pkg/api/models"
	"github.com/PicoPlotProject/picoplot-core/pkg/api/notifications"
	"github.com/PicoPlotProject/picoplot-core/pkg/database/recordingdb"
	"github.com/PicoPlotProject/picoplot-core/pkg/plotstream"
	"github.com/rs/zerolog/log"
)

var ErrRecordingDisabled = errors.New("recording database is not available")

// handleChunk classifies one raw stream chunk and fans the results out:
// console text and plot packets to subscribers, samples to the recording
// sink. Worker goroutine only.
func (w *Worker) handleChunk(chunk []byte) {
	events := w.demux.Process(chunk)
	if len(events) == 0 {
		return
	}

	var samples [][]uint16
	for _, ev := range events {
		switch ev := ev.(type) {
		case plotstream.TextEvent:
			notifications.ConsoleOutput(w.st.Notifications, ev.Text)

		case plotstream.ConfigEvent:
			w.st.SetChannels(ev.Channels)
			notifications.PlotConfig(w.st.Notifications, ev.Channels)
			if w.recID != 0 {
				if err := w.db.SetChannels(w.recID, ev.Channels); err != nil {
					log.Error().Err(err).Int64("id", w.recID).
						Msg("failed to store recording channels")
				}
			}

		case plotstream.DataEvent:
			samples = append(samples, ev.Values)
		}
	}

	if len(samples) == 0 {
		return
	}

	notifications.PlotData(w.st.Notifications, models.PlotDataParams{Samples: samples})

	if w.recID != 0 {
		err := w.db.AddSamples(w.recID, w.recSeq, w.clock.Now(), samples)
		if err != nil {
			log.Error().Err(err).Int64("id", w.recID).Msg("failed to store samples")
		}
		w.recSeq += int64(len(samples))
	}
}

// startRecording opens a new recording row, finishing any previous one
// first. Worker goroutine only.
func (w *Worker) startRecording(name string) (int64, error) {
	if w.db == nil {
		return 0, ErrRecordingDisabled
	}

	w.finishRecording()

	if name == "" {
		name = "run " + w.clock.Now().Format("2006-01-02 15:04:05")
	}

	id, err := w.db.StartRecording(name, w.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to start recording: %w", err)
	}

	w.recID = id
	w.recSeq = 0
	w.recName = name

	// Channel names may already be known if the run's config packet
	// arrived before recording started.
	if channels := w.st.Channels(); len(channels) > 0 {
		if err := w.db.SetChannels(id, channels); err != nil {
			log.Error().Err(err).Int64("id", id).Msg("failed to store recording channels")
		}
	}

	w.st.SetRecording(id)
	notifications.RecordingStarted(w.st.Notifications, models.RecordingStartedParams{
		ID:   id,
		Name: name,
	})
	log.Info().Int64("id", id).Str("name", name).Msg("recording started")
	return id, nil
}

// finishRecording closes the active recording, if any. Safe to call when
// nothing is being recorded. Worker goroutine only.
func (w *Worker) finishRecording() {
	if w.recID == 0 {
		return
	}

	id, samples := w.recID, w.recSeq
	w.recID = 0
	w.recSeq = 0
	w.recName = ""

	if err := w.db.StopRecording(id, w.clock.Now()); err != nil {
		if !errors.Is(err, recordingdb.ErrNotFound) {
			log.Error().Err(err).Int64("id", id).Msg("failed to stop recording")
		}
	}

	w.st.SetRecording(0)
	notifications.RecordingStopped(w.st.Notifications, models.RecordingStoppedParams{
		ID:      id,
		Samples: samples,
	})
	log.Info().Int64("id", id).Int64("samples", samples).Msg("recording stopped")
}

// RecordStart begins recording the current stream under the given name.
// An already-active recording is finished first.
func (w *Worker) RecordStart(ctx context.Context, name string) (int64, error) {
	value, err := w.submit(ctx, func() (any, error) {
		if !w.session.Connected() {
			return nil, ErrNotConnected
		}
		return w.startRecording(name)
	})
	if err != nil {
		return 0, err
	}
	id, _ := value.(int64)
	return id, nil
}

// RecordStop ends the active recording and returns its id and sample
// count.
func (w *Worker) RecordStop(ctx context.Context) (int64, int64, error) {
	value, err := w.submit(ctx, func() (any, error) {
		if w.recID == 0 {
			return nil, ErrNotRecording
		}
		id, samples := w.recID, w.recSeq
		w.finishRecording()
		return [2]int64{id, samples}, nil
	})
	if err != nil {
		return 0, 0, err
	}
	pair, _ := value.([2]int64)
	return pair[0], pair[1], nil
}
