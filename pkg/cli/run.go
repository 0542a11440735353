//go:build linux

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

package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const serviceUnitName = "picoplot.service"

const serviceUnitTemplate = `[Unit]
Description=PicoPlot Core service
After=network.target

[Service]
ExecStart=%s -daemon
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`

// Installer defines the interface for install/uninstall operations.
// This allows mocking in tests to avoid side effects.
type Installer interface {
	InstallService() error
	UninstallService() error
}

// DefaultInstaller manages a systemd user unit for the current user.
type DefaultInstaller struct{}

func userUnitPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("error getting user home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "systemd", "user", serviceUnitName), nil
}

func systemctlUser(args ...string) error {
	cmd := exec.CommandContext(context.Background(), "systemctl", append([]string{"--user"}, args...)...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("systemctl --user %v: %w", args, err)
	}
	return nil
}

// InstallService writes the user unit pointing at the current executable
// and enables it.
func (DefaultInstaller) InstallService() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("error resolving executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return fmt.Errorf("error resolving executable symlinks: %w", err)
	}

	unitPath, err := userUnitPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(unitPath), 0o750); err != nil {
		return fmt.Errorf("error creating systemd user directory: %w", err)
	}

	unit := fmt.Sprintf(serviceUnitTemplate, exe)
	if err := os.WriteFile(unitPath, []byte(unit), 0o644); err != nil { //nolint:gosec // unit file must be world-readable
		return fmt.Errorf("error writing service unit: %w", err)
	}

	if err := systemctlUser("daemon-reload"); err != nil {
		return err
	}
	return systemctlUser("enable", "--now", serviceUnitName)
}

// UninstallService stops and removes the user unit. Missing pieces are
// not an error so the command is idempotent.
func (DefaultInstaller) UninstallService() error {
	if err := systemctlUser("disable", "--now", serviceUnitName); err != nil {
		log.Warn().Err(err).Msg("error disabling service unit")
	}

	unitPath, err := userUnitPath()
	if err != nil {
		return err
	}
	if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error removing service unit: %w", err)
	}

	return systemctlUser("daemon-reload")
}

// defaultInstaller is the package-level installer used by HandleInstall
// and HandleUninstall. It can be replaced in tests to avoid side effects.
var defaultInstaller Installer = DefaultInstaller{}

// HandleInstall handles the -install flag on Linux platforms.
func HandleInstall() error {
	if err := defaultInstaller.InstallService(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return fmt.Errorf("service installation failed: %w", err)
	}
	_, _ = fmt.Println("Service installation complete")
	return nil
}

// HandleUninstall handles the -uninstall flag on Linux platforms.
func HandleUninstall() error {
	if err := defaultInstaller.UninstallService(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return fmt.Errorf("service uninstallation failed: %w", err)
	}
	_, _ = fmt.Println("Service uninstallation complete")
	return nil
}
