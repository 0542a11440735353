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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigCreatesDefaultFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, CfgFile))
	assert.Equal(t, DefaultBaudRate, cfg.BaudRate())
	assert.Equal(t, DefaultFlushThreshold, cfg.FlushThreshold())
	assert.Equal(t, DefaultRetentionDays, cfg.RecordingsRetentionDays())
	assert.Equal(t, DefaultAPIPort, cfg.APIPort())
	assert.False(t, cfg.DebugLogging())

	// A device id is generated on first save.
	assert.NotEmpty(t, cfg.DeviceID())
}

func TestNewConfigDeviceIDStable(t *testing.T) {
	dir := t.TempDir()

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)
	id := cfg.DeviceID()
	require.NotEmpty(t, id)

	cfg2, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, id, cfg2.DeviceID())
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	dir := t.TempDir()

	content := "config_schema = 1\n\n[device]\nport = \"/dev/ttyACM0\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, CfgFile), []byte(content), 0o600))

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", cfg.DevicePort())
	assert.Equal(t, DefaultBaudRate, cfg.BaudRate())
	assert.Equal(t, DefaultFlushThreshold, cfg.FlushThreshold())
}

func TestLoadRejectsSchemaMismatch(t *testing.T) {
	dir := t.TempDir()

	content := "config_schema = 99\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, CfgFile), []byte(content), 0o600))

	_, err := NewConfig(dir, BaseDefaults)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema version mismatch")
}

func TestSetDevicePortPersists(t *testing.T) {
	dir := t.TempDir()

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	require.NoError(t, cfg.SetDevicePort("/dev/ttyACM1"))

	cfg2, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM1", cfg2.DevicePort())
}

func TestFlushThresholdClamped(t *testing.T) {
	dir := t.TempDir()

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	tests := []struct {
		name     string
		set      int
		expected int
	}{
		{name: "zero falls back to default", set: 0, expected: DefaultFlushThreshold},
		{name: "negative falls back to default", set: -1, expected: DefaultFlushThreshold},
		{name: "below minimum clamps up", set: 8, expected: minFlushThreshold},
		{name: "above maximum clamps down", set: 1 << 20, expected: maxFlushThreshold},
		{name: "in range passes through", set: 2048, expected: 2048},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg.SetFlushThreshold(tt.set)
			assert.Equal(t, tt.expected, cfg.FlushThreshold())
		})
	}
}

func TestEnvOverridesConfigPath(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "custom", "picoplot.toml")
	t.Setenv(CfgEnv, override)

	cfg, err := NewConfig(filepath.Join(dir, "ignored"), BaseDefaults)
	require.NoError(t, err)

	assert.Equal(t, override, cfg.Path())
	assert.FileExists(t, override)
	assert.NoFileExists(t, filepath.Join(dir, "ignored", CfgFile))
}
