//go:build darwin

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

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/PicoPlotProject/picoplot-core/internal/crashreport"
	"github.com/PicoPlotProject/picoplot-core/pkg/cli"
	"github.com/PicoPlotProject/picoplot-core/pkg/config"
	"github.com/PicoPlotProject/picoplot-core/pkg/platforms/mac"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		crashreport.Flush()
		os.Exit(1)
	}
	crashreport.Close()
}

func run() error {
	pl := &mac.Platform{}
	flags := cli.SetupFlags()

	daemonMode := flag.Bool(
		"daemon",
		false,
		"run the service in the foreground",
	)

	flags.Pre(pl)

	if os.Geteuid() == 0 {
		return errors.New("picoplot cannot be run as root")
	}

	var logWriters []io.Writer
	if *daemonMode {
		logWriters = []io.Writer{os.Stderr}
	}

	cfg := cli.Setup(
		pl,
		config.BaseDefaults,
		logWriters,
	)

	flags.Post(cfg, pl)

	return cli.RunApp(pl, cfg)
}
