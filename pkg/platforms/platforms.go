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

// Package platforms defines the small amount of surface that differs between
// operating systems: identity and the directories the service stores its
// config, data and logs in. Everything protocol-related is platform-neutral.
package platforms

// Settings defines the simple per-platform values used by the rest of the
// service.
type Settings struct {
	// DataDir is the root folder for permanent storage such as the
	// recordings database and CSV exports. Access it through
	// helpers.DataDir so portable installs are honored.
	DataDir string
	// ConfigDir is the directory holding config.toml. Access it through
	// helpers.ConfigDir so portable installs are honored.
	ConfigDir string
	// LogDir is where rotating log files are written.
	LogDir string
}

// Platform is implemented once per supported operating system and selected
// by the matching cmd entry point.
type Platform interface {
	// ID returns the unique ID of this platform.
	ID() string
	// Settings returns the platform's directory layout.
	Settings() Settings
}
