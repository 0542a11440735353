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

package devicefs

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLocal(t *testing.T, fsys afero.Fs, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0o600))
}

func TestSyncDir(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	writeLocal(t, fsys, "/proj", "main.py", "print('main')\n")
	writeLocal(t, fsys, "/proj", "lib/util.py", "VALUE = 1\n")
	writeLocal(t, fsys, "/proj", "readme.txt", "not python\n")
	writeLocal(t, fsys, "/proj", ".hidden.py", "skipped\n")
	writeLocal(t, fsys, "/proj", ".git/hook.py", "skipped\n")

	runner := &fakeRunner{outcome: okOutcome(sentinelSuccess)}
	fs := New(runner)

	n, err := fs.SyncDir(fsys, "/proj", "/app")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// One write program per synced file, in sorted order, with
	// forward-slash device paths.
	require.Len(t, runner.code, 2)
	assert.Contains(t, runner.code[0], "'/app/lib/util.py'")
	assert.Contains(t, runner.code[1], "'/app/main.py'")
}

func TestSyncDirCreatesParentDirectories(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	writeLocal(t, fsys, "/proj", "lib/sensors/bme280.py", "pass\n")

	runner := &fakeRunner{outcome: okOutcome(sentinelSuccess)}
	fs := New(runner)

	n, err := fs.SyncDir(fsys, "/proj", "/app")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// The device has no /app/lib/sensors yet; the write program must
	// mkdir each parent before opening the file.
	require.Len(t, runner.code, 1)
	assert.Contains(t, runner.code[0], "os.mkdir")
	assert.Contains(t, runner.code[0], "'/app/lib/sensors/bme280.py'")
}

func TestSyncDirToRoot(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	writeLocal(t, fsys, "/proj", "boot.py", "pass\n")

	runner := &fakeRunner{outcome: okOutcome(sentinelSuccess)}
	fs := New(runner)

	n, err := fs.SyncDir(fsys, "/proj", "/")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, runner.code[0], "'/boot.py'")
}

func TestSyncDirEmpty(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/proj", 0o750))

	runner := &fakeRunner{outcome: okOutcome(sentinelSuccess)}
	fs := New(runner)

	n, err := fs.SyncDir(fsys, "/proj", "/app")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, runner.code)
}

func TestSyncDirDeviceFailureStops(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	writeLocal(t, fsys, "/proj", "a.py", "1\n")
	writeLocal(t, fsys, "/proj", "b.py", "2\n")

	runner := &fakeRunner{outcome: okOutcome(sentinelError + "ENOSPC")}
	fs := New(runner)

	n, err := fs.SyncDir(fsys, "/proj", "/app")
	require.Error(t, err)
	assert.Zero(t, n)
	// The failed first write aborts the sync.
	assert.Len(t, runner.code, 1)
}
