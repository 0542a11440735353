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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// SyncDir pushes every .py file under a local project directory to dest on
// the device, preserving relative paths. Hidden directories are skipped.
// Returns the number of files written. The local filesystem is abstracted
// so tests sync from memory; files are transferred in sorted order so
// repeated syncs touch the wire deterministically.
func (f *FS) SyncDir(fsys afero.Fs, localDir, dest string) (int, error) {
	localDir = filepath.Clean(localDir)

	var paths []string
	err := afero.Walk(fsys, localDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		name := info.Name()
		if info.IsDir() {
			if strings.HasPrefix(name, ".") && path != localDir {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(name, ".py") || strings.HasPrefix(name, ".") {
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk %s: %w", localDir, err)
	}

	sort.Strings(paths)

	written := 0
	for _, path := range paths {
		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return written, fmt.Errorf("failed to resolve %s: %w", path, err)
		}

		content, err := afero.ReadFile(fsys, path)
		if err != nil {
			return written, fmt.Errorf("failed to read %s: %w", path, err)
		}

		devPath := devicePath(dest, rel)
		if err := f.Write(devPath, content); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", devPath, err)
		}

		log.Debug().Str("local", path).Str("device", devPath).Msg("synced file")
		written++
	}

	return written, nil
}

// devicePath joins a device destination dir and a host-relative path using
// forward slashes regardless of host OS.
func devicePath(dest, rel string) string {
	rel = filepath.ToSlash(rel)
	dest = strings.TrimSuffix(dest, "/")
	if dest == "" {
		return "/" + rel
	}
	return dest + "/" + rel
}
