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

package requests

import (
	"encoding/json"

	"github.com/PicoPlotProject/picoplot-core/pkg/config"
	"github.com/PicoPlotProject/picoplot-core/pkg/database/recordingdb"
	"github.com/PicoPlotProject/picoplot-core/pkg/platforms"
	"github.com/PicoPlotProject/picoplot-core/pkg/service/state"
	"github.com/PicoPlotProject/picoplot-core/pkg/service/worker"
	"github.com/google/uuid"
)

// RequestEnv carries everything a method handler may need to service one
// API request.
type RequestEnv struct {
	Platform platforms.Platform
	Config   *config.Instance
	State    *state.State
	Database *recordingdb.RecordingDB
	Worker   *worker.Worker
	Params   json.RawMessage
	ID       uuid.UUID
	IsLocal  bool
}
