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
	"encoding/base64"

	"github.com/PicoPlotProject/picoplot-core/pkg/api/models"
	"github.com/PicoPlotProject/picoplot-core/pkg/api/models/requests"
	"github.com/PicoPlotProject/picoplot-core/pkg/api/validation"
	"github.com/rs/zerolog/log"
)

//nolint:gocritic // single-use parameter in API handler
func HandleFilesList(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received files list request")

	var params models.FilePathParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}

	entries, err := env.Worker.FileList(env.State.GetContext(), params.Path)
	if err != nil {
		return nil, err
	}

	resp := models.FileListResponse{
		Path:    params.Path,
		Entries: make([]models.FileEntry, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, models.FileEntry{Name: e.Name, Dir: e.Dir})
	}
	return resp, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleFilesRead(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received files read request")

	var params models.FilePathParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}

	content, err := env.Worker.FileRead(env.State.GetContext(), params.Path)
	if err != nil {
		return nil, err
	}

	return models.FileReadResponse{
		Path: params.Path,
		Data: base64.StdEncoding.EncodeToString(content),
		Size: len(content),
	}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleFilesWrite(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received files write request")

	var params models.FileWriteParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}

	content, err := base64.StdEncoding.DecodeString(params.Data)
	if err != nil {
		return nil, ErrInvalidParams
	}

	if err := env.Worker.FileWrite(env.State.GetContext(), params.Path, content); err != nil {
		return nil, err
	}
	return NoContent{}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleFilesDelete(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received files delete request")

	var params models.FilePathParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}

	if err := env.Worker.FileDelete(env.State.GetContext(), params.Path); err != nil {
		return nil, err
	}
	return NoContent{}, nil
}

// HandleFilesSync reads a directory on the service host, so it is only
// available to loopback clients.
//
//nolint:gocritic // single-use parameter in API handler
func HandleFilesSync(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received files sync request")

	if !env.IsLocal {
		return nil, ErrNotAllowed
	}

	var params models.FileSyncParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}

	count, err := env.Worker.SyncDir(env.State.GetContext(), params.LocalDir, params.Dest)
	if err != nil {
		return nil, err
	}
	return models.FileSyncResponse{Files: count}, nil
}
