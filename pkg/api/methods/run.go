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
	"github.com/PicoPlotProject/picoplot-core/pkg/api/models"
	"github.com/PicoPlotProject/picoplot-core/pkg/api/models/requests"
	"github.com/PicoPlotProject/picoplot-core/pkg/api/validation"
	"github.com/rs/zerolog/log"
)

//nolint:gocritic // single-use parameter in API handler
func HandleRun(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received run request")

	var params models.RunParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}

	err := env.Worker.Run(env.State.GetContext(), []byte(params.Code), params.Record)
	if err != nil {
		return nil, err
	}
	return NoContent{}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleStop(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received stop request")

	if err := env.Worker.Stop(env.State.GetContext()); err != nil {
		return nil, err
	}
	return NoContent{}, nil
}
