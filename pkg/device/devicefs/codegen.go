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

// Package devicefs implements file operations against the board's
// filesystem by generating small MicroPython programs, executing them over
// the raw REPL and parsing their sentinel-delimited output. Binary file
// content crosses the text-oriented channel hex-encoded.
package devicefs

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Sentinels emitted by the generated programs. They are matched as
// substrings of the captured output, so the programs must never print them
// except in their designated role.
const (
	sentinelFileStart = "<<<FILE_START>>>"
	sentinelFileEnd   = "<<<FILE_END>>>"
	sentinelSuccess   = "<<<SUCCESS>>>"
	sentinelError     = "<<<ERROR>>>"
	listErrorPrefix   = "ERROR:"
)

// readChunkSize is how many bytes the remote read program hex-encodes per
// loop iteration, bounding its memory use on small boards.
const readChunkSize = 256

// escapePy escapes a string for embedding inside a single-quoted Python
// string literal. Backslashes must be escaped before quotes.
func escapePy(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return s
}

// listDirCode generates a program that emits one "name|DIR" or "name|FILE"
// line per entry of path, sorted by name, or an "ERROR:<msg>" line.
func listDirCode(path string) string {
	p := escapePy(path)
	return fmt.Sprintf(`import os
try:
    for name in sorted(os.listdir('%s')):
        full = '%s/' + name if '%s' != '/' else '/' + name
        try:
            kind = 'DIR' if os.stat(full)[0] & 0x4000 else 'FILE'
        except OSError:
            kind = 'UNKNOWN'
        print(name + '|' + kind)
except Exception as e:
    print('ERROR:' + str(e))
`, p, p, p)
}

// readFileCode generates a program that hex-encodes the file between the
// start/end sentinels with no separators, so arbitrary binary content
// survives the text channel.
func readFileCode(path string) string {
	return fmt.Sprintf(`import sys, binascii
try:
    f = open('%s', 'rb')
    sys.stdout.write('%s')
    while True:
        chunk = f.read(%d)
        if not chunk:
            break
        sys.stdout.write(binascii.hexlify(chunk).decode())
    f.close()
    sys.stdout.write('%s')
except Exception as e:
    sys.stdout.write('%s' + str(e))
`, escapePy(path), sentinelFileStart, readChunkSize, sentinelFileEnd, sentinelError)
}

// writeFileCode generates a program that creates any missing parent
// directories, then decodes the hex-encoded content and writes it in
// binary mode. Hex encoding sidesteps any escaping concern for the file
// body; only the path needs escaping.
func writeFileCode(path string, content []byte) string {
	return fmt.Sprintf(`import binascii, os
try:
    p = '%s'
    parts = p.split('/')
    for i in range(1, len(parts)):
        d = '/'.join(parts[:i])
        if d:
            try:
                os.mkdir(d)
            except OSError:
                pass
    f = open(p, 'wb')
    f.write(binascii.unhexlify('%s'))
    f.close()
    print('%s')
except Exception as e:
    print('%s' + str(e))
`, escapePy(path), hex.EncodeToString(content), sentinelSuccess, sentinelError)
}

// deletePathCode generates a program that removes a file, or recursively
// removes a directory bottom-up. Root refusal happens client-side before
// any code is generated.
func deletePathCode(path string) string {
	return fmt.Sprintf(`import os
def _rm(p):
    if os.stat(p)[0] & 0x4000:
        for name in os.listdir(p):
            _rm(p + '/' + name)
        os.rmdir(p)
    else:
        os.remove(p)
try:
    _rm('%s')
    print('%s')
except Exception as e:
    print('%s' + str(e))
`, escapePy(path), sentinelSuccess, sentinelError)
}
