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

	"github.com/PicoPlotProject/picoplot-core/pkg/api/models"
	"github.com/PicoPlotProject/picoplot-core/pkg/api/models/requests"
	"github.com/PicoPlotProject/picoplot-core/pkg/config"
	"github.com/PicoPlotProject/picoplot-core/pkg/helpers"
	"github.com/rs/zerolog/log"
)

func HandleVersion(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	log.Info().Msg("received version request")
	return models.VersionResponse{
		Version:  config.AppVersion,
		Platform: env.Platform.ID(),
	}, nil
}

func HandlePorts(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	log.Info().Msg("received ports request")

	ports, err := helpers.ListDevicePorts()
	if err != nil {
		log.Error().Err(err).Msg("error listing serial ports")
		return nil, errors.New("error listing serial ports")
	}

	status := env.State.Status()

	resp := models.PortsResponse{Ports: make([]models.Port, 0, len(ports))}
	for _, p := range ports {
		resp.Ports = append(resp.Ports, models.Port{
			Device:      p.Device,
			Description: p.Description,
			Pico:        p.Pico,
			Connected:   status.Connected && status.Port == p.Device,
		})
	}
	return resp, nil
}
