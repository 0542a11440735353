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

package methods

import (
	"errors"
	"path/filepath"

	"github.com/PicoPlotProject/picoplot-core/pkg/api/models"
	"github.com/PicoPlotProject/picoplot-core/pkg/api/models/requests"
	"github.com/PicoPlotProject/picoplot-core/pkg/api/validation"
	"github.com/PicoPlotProject/picoplot-core/pkg/helpers"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var ErrRecordingsUnavailable = errors.New("recordings are not available")

//nolint:gocritic // single-use parameter in API handler
func HandleRecordingsStart(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received recordings start request")

	var params models.RecordingStartParams
	if len(env.Params) > 0 {
		if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
			return nil, err
		}
	}

	id, err := env.Worker.RecordStart(env.State.GetContext(), params.Name)
	if err != nil {
		return nil, err
	}
	return models.RecordingStartedResponse{ID: id, Name: params.Name}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleRecordingsStop(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received recordings stop request")

	id, samples, err := env.Worker.RecordStop(env.State.GetContext())
	if err != nil {
		return nil, err
	}
	return models.RecordingStoppedParams{ID: id, Samples: samples}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleRecordingsList(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received recordings list request")

	if env.Database == nil {
		return nil, ErrRecordingsUnavailable
	}

	recordings, err := env.Database.List()
	if err != nil {
		log.Error().Err(err).Msg("error listing recordings")
		return nil, errors.New("error listing recordings")
	}

	resp := models.RecordingsResponse{
		Recordings: make([]models.RecordingInfo, 0, len(recordings)),
	}
	for _, rec := range recordings {
		resp.Recordings = append(resp.Recordings, models.RecordingInfo{
			ID:        rec.ID,
			Name:      rec.Name,
			Channels:  rec.Channels,
			StartedAt: rec.StartedAt,
			StoppedAt: rec.StoppedAt,
			Samples:   rec.Samples,
		})
	}
	return resp, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleRecordingsDelete(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received recordings delete request")

	if env.Database == nil {
		return nil, ErrRecordingsUnavailable
	}

	var params models.RecordingIDParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}

	if active, recording := env.State.Recording(); recording && active == params.ID {
		return nil, errors.New("recording is in progress, stop it first")
	}

	if err := env.Database.Delete(params.ID); err != nil {
		return nil, err
	}
	return NoContent{}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleRecordingsExport(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received recordings export request")

	if env.Database == nil {
		return nil, ErrRecordingsUnavailable
	}

	var params models.RecordingExportParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}

	dir := params.Dir
	if dir == "" {
		dir = env.Config.RecordingsExportDir()
	}
	if dir == "" {
		dir = filepath.Join(helpers.DataDir(env.Platform), "exports")
	}

	path, err := env.Database.ExportCSV(afero.NewOsFs(), params.ID, dir)
	if err != nil {
		return nil, err
	}
	return models.RecordingExportResponse{Path: path}, nil
}
