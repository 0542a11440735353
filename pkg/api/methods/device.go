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
func HandleDeviceConnect(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received device connect request")

	var params models.ConnectParams
	if len(env.Params) > 0 {
		if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
			return nil, err
		}
	}

	err := env.Worker.Connect(env.State.GetContext(), params.Port, params.Baud)
	if err != nil {
		return nil, err
	}
	return env.State.Status(), nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleDeviceDisconnect(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received device disconnect request")

	if err := env.Worker.Disconnect(env.State.GetContext()); err != nil {
		return nil, err
	}
	return NoContent{}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleDeviceStatus(env requests.RequestEnv) (any, error) {
	log.Debug().Msg("received device status request")
	return env.State.Status(), nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleDeviceSetPort(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received set port request")

	var params models.SetPortParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}

	if err := env.Worker.SetPort(env.State.GetContext(), params.Port); err != nil {
		return nil, err
	}
	return env.State.Status(), nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleDeviceEval(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received eval request")

	var params models.EvalParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}

	output, err := env.Worker.Eval(env.State.GetContext(), []byte(params.Code))
	if err != nil {
		return nil, err
	}
	return models.EvalResponse{Output: output}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleInstallLib(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received lib install request")

	if err := env.Worker.InstallLib(env.State.GetContext()); err != nil {
		return nil, err
	}
	return NoContent{}, nil
}
