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

// Package cli implements the command line flags shared by all platform
// entry points. Every flag except -daemon talks to an already running
// service through the local API.
package cli

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/PicoPlotProject/picoplot-core/internal/crashreport"
	"github.com/PicoPlotProject/picoplot-core/pkg/api/client"
	"github.com/PicoPlotProject/picoplot-core/pkg/api/models"
	"github.com/PicoPlotProject/picoplot-core/pkg/config"
	"github.com/PicoPlotProject/picoplot-core/pkg/helpers"
	"github.com/PicoPlotProject/picoplot-core/pkg/platforms"
	"github.com/PicoPlotProject/picoplot-core/pkg/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Flags struct {
	Ports   *bool
	Run     *string
	Eval    *string
	Stop    *bool
	Ls      *string
	Get     *string
	Put     *string
	Rm      *string
	API     *string
	Version *bool
	Reload  *bool
}

// SetupFlags defines all common CLI flags between platforms.
func SetupFlags() *Flags {
	return &Flags{
		Ports: flag.Bool(
			"ports",
			false,
			"list serial ports and exit",
		),
		Run: flag.String(
			"run",
			"",
			"run a local MicroPython file on the device",
		),
		Eval: flag.String(
			"eval",
			"",
			"evaluate code on the device and print its output",
		),
		Stop: flag.Bool(
			"stop",
			false,
			"stop the currently running program",
		),
		Ls: flag.String(
			"ls",
			"",
			"list files in a directory on the device",
		),
		Get: flag.String(
			"get",
			"",
			"read a device file and write it to stdout",
		),
		Put: flag.String(
			"put",
			"",
			"copy a local file to the device (LOCAL or LOCAL:REMOTE)",
		),
		Rm: flag.String(
			"rm",
			"",
			"delete a file on the device",
		),
		API: flag.String(
			"api",
			"",
			"send method and params to API and print response (METHOD or METHOD:PARAMS)",
		),
		Version: flag.Bool(
			"version",
			false,
			"print version and exit",
		),
		Reload: flag.Bool(
			"reload",
			false,
			"reload config from disk",
		),
	}
}

func isFlagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// Pre runs flag parsing and actions any immediate flags that don't
// require environment setup. Add any custom flags before running this.
func (f *Flags) Pre(pl platforms.Platform) {
	flag.Parse()

	if *f.Version {
		_, _ = fmt.Printf("PicoPlot v%s (%s)\n", config.AppVersion, pl.ID())
		os.Exit(0)
	}
}

func call(cfg *config.Instance, method, params string) string {
	resp, err := client.LocalClient(context.Background(), cfg, method, params)
	if err != nil {
		log.Error().Err(err).Str("method", method).Msg("api call failed")
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return resp
}

func mustMarshal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error encoding params: %v\n", err)
		os.Exit(1)
	}
	return string(data)
}

func portsFlag(cfg *config.Instance) {
	resp := call(cfg, models.MethodPorts, "")

	var ports models.PortsResponse
	if err := json.Unmarshal([]byte(resp), &ports); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error decoding response: %v\n", err)
		os.Exit(1)
	}

	for _, p := range ports.Ports {
		marker := " "
		switch {
		case p.Connected:
			marker = "*"
		case p.Pico:
			marker = "+"
		}
		if p.Description != "" {
			_, _ = fmt.Printf("%s %s\t%s\n", marker, p.Device, p.Description)
		} else {
			_, _ = fmt.Printf("%s %s\n", marker, p.Device)
		}
	}
	os.Exit(0)
}

func runFlag(cfg *config.Instance, file string) {
	code, err := os.ReadFile(filepath.Clean(file))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", file, err)
		os.Exit(1)
	}

	call(cfg, models.MethodRun, mustMarshal(&models.RunParams{
		Code: string(code),
	}))
	_, _ = fmt.Fprintf(os.Stderr, "Running %s\n", file)
	os.Exit(0)
}

func evalFlag(cfg *config.Instance, code string) {
	resp := call(cfg, models.MethodDeviceEval, mustMarshal(&models.EvalParams{
		Code: code,
	}))

	var result models.EvalResponse
	if err := json.Unmarshal([]byte(resp), &result); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error decoding response: %v\n", err)
		os.Exit(1)
	}

	_, _ = fmt.Print(result.Output)
	os.Exit(0)
}

func lsFlag(cfg *config.Instance, dir string) {
	resp := call(cfg, models.MethodFilesList, mustMarshal(&models.FilePathParams{
		Path: dir,
	}))

	var listing models.FileListResponse
	if err := json.Unmarshal([]byte(resp), &listing); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error decoding response: %v\n", err)
		os.Exit(1)
	}

	for _, entry := range listing.Entries {
		if entry.Dir {
			_, _ = fmt.Printf("%s/\n", entry.Name)
		} else {
			_, _ = fmt.Println(entry.Name)
		}
	}
	os.Exit(0)
}

func getFlag(cfg *config.Instance, file string) {
	resp := call(cfg, models.MethodFilesRead, mustMarshal(&models.FilePathParams{
		Path: file,
	}))

	var result models.FileReadResponse
	if err := json.Unmarshal([]byte(resp), &result); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error decoding response: %v\n", err)
		os.Exit(1)
	}

	data, err := base64.StdEncoding.DecodeString(result.Data)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error decoding file content: %v\n", err)
		os.Exit(1)
	}

	_, _ = os.Stdout.Write(data)
	os.Exit(0)
}

// splitPutArg splits a -put value into local and remote paths. With no
// explicit remote the file lands in the device root under its own name.
func splitPutArg(arg string) (local, remote string) {
	if i := strings.LastIndex(arg, ":"); i > 0 {
		return arg[:i], arg[i+1:]
	}
	return arg, path.Base(filepath.ToSlash(arg))
}

func putFlag(cfg *config.Instance, arg string) {
	local, remote := splitPutArg(arg)

	data, err := os.ReadFile(filepath.Clean(local))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", local, err)
		os.Exit(1)
	}

	call(cfg, models.MethodFilesWrite, mustMarshal(&models.FileWriteParams{
		Path: remote,
		Data: base64.StdEncoding.EncodeToString(data),
	}))
	_, _ = fmt.Fprintf(os.Stderr, "Copied %s to %s\n", local, remote)
	os.Exit(0)
}

// Post actions all remaining common flags that require the environment to
// be set up. Logging is allowed.
func (f *Flags) Post(cfg *config.Instance, _ platforms.Platform) {
	switch {
	case *f.Ports:
		portsFlag(cfg)
	case isFlagPassed("run"):
		if *f.Run == "" {
			_, _ = fmt.Fprint(os.Stderr, "Error: run flag requires a file\n")
			os.Exit(1)
		}
		runFlag(cfg, *f.Run)
	case isFlagPassed("eval"):
		if *f.Eval == "" {
			_, _ = fmt.Fprint(os.Stderr, "Error: eval flag requires code\n")
			os.Exit(1)
		}
		evalFlag(cfg, *f.Eval)
	case *f.Stop:
		call(cfg, models.MethodStop, "")
		os.Exit(0)
	case isFlagPassed("ls"):
		lsFlag(cfg, *f.Ls)
	case isFlagPassed("get"):
		if *f.Get == "" {
			_, _ = fmt.Fprint(os.Stderr, "Error: get flag requires a path\n")
			os.Exit(1)
		}
		getFlag(cfg, *f.Get)
	case isFlagPassed("put"):
		if *f.Put == "" {
			_, _ = fmt.Fprint(os.Stderr, "Error: put flag requires a file\n")
			os.Exit(1)
		}
		putFlag(cfg, *f.Put)
	case isFlagPassed("rm"):
		if *f.Rm == "" {
			_, _ = fmt.Fprint(os.Stderr, "Error: rm flag requires a path\n")
			os.Exit(1)
		}
		call(cfg, models.MethodFilesDelete, mustMarshal(&models.FilePathParams{
			Path: *f.Rm,
		}))
		os.Exit(0)
	case isFlagPassed("api"):
		if *f.API == "" {
			_, _ = fmt.Fprint(os.Stderr, "Error: api flag requires a value\n")
			os.Exit(1)
		}

		ps := strings.SplitN(*f.API, ":", 2)
		method := ps[0]
		params := ""
		if len(ps) > 1 {
			params = ps[1]
		}

		_, _ = fmt.Println(call(cfg, method, params))
		os.Exit(0)
	case *f.Reload:
		call(cfg, models.MethodSettingsReload, "")
		os.Exit(0)
	}
}

// IsServiceRunning reports whether a local daemon is answering on the API
// port.
func IsServiceRunning(cfg *config.Instance) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := client.LocalClient(ctx, cfg, models.MethodVersion, "")
	return err == nil
}

// RunApp runs the service in the foreground until a signal arrives or the
// service shuts itself down.
func RunApp(pl platforms.Platform, cfg *config.Instance) (returnErr error) {
	defer func() {
		if r := recover(); r != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %v\n", r)
			log.Error().Msgf("panic recovered: %v", r)
			returnErr = fmt.Errorf("panic: %v", r)
		}
	}()

	if IsServiceRunning(cfg) {
		log.Info().
			Int("port", cfg.APIPort()).
			Msg("service already running, exiting")
		return nil
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	stopSvc, done, err := service.Start(pl, cfg)
	if err != nil {
		log.Error().Msgf("error starting service: %s", err)
		return fmt.Errorf("error starting service: %w", err)
	}
	defer func() {
		if err := stopSvc(); err != nil {
			log.Error().Msgf("error stopping service: %s", err)
		}
	}()
	log.Info().Msg("service started")

	select {
	case <-sigs:
		log.Info().Msg("signal received, shutting down")
	case <-done:
		log.Info().Msg("service shut down internally")
	}

	return nil
}

// Setup initializes the user config and logging. Returns a user config
// object.
//
//nolint:gocritic // config struct copied for immutability
func Setup(
	pl platforms.Platform,
	defaultConfig config.Values,
	writers []io.Writer,
) *config.Instance {
	// Ensure directories exist before logging initialization
	for _, dir := range []string{
		helpers.ConfigDir(pl),
		helpers.DataDir(pl),
		helpers.LogDir(pl),
	} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error creating directories: %v\n", err)
			os.Exit(1)
		}
	}

	err := helpers.InitLogging(pl, writers)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.NewConfig(helpers.ConfigDir(pl), defaultConfig)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Initialize error reporting (opt-in)
	if err := crashreport.Init(
		cfg.ErrorReporting(),
		cfg.DeviceID(),
		config.AppVersion,
		pl.ID(),
	); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	return cfg
}
