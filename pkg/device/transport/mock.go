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

package transport

import (
	"errors"
	"time"

	"github.com/PicoPlotProject/picoplot-core/pkg/helpers/syncutil"
)

// MockPort is a scripted in-memory implementation of Port for tests.
// Reads serve from ReadFunc when set, otherwise from the queued ReadData.
// Writes are captured for assertions.
type MockPort struct {
	ReadError  error
	WriteError error
	CloseError error
	TimeoutErr error
	ResetErr   error
	ReadFunc   func(p []byte) (n int, err error)
	ReadData   []byte
	ReadIndex  int
	Written    []byte
	ResetCount int
	Closed     bool
	mu         syncutil.RWMutex
}

// NewMockPort creates a new mock serial port for testing.
func NewMockPort() *MockPort {
	return &MockPort{}
}

func (m *MockPort) Read(p []byte) (n int, err error) {
	m.mu.RLock()
	closed := m.Closed
	m.mu.RUnlock()

	if closed {
		return 0, errors.New("port closed")
	}

	if m.ReadFunc != nil {
		return m.ReadFunc(p)
	}

	if m.ReadError != nil {
		return 0, m.ReadError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ReadIndex >= len(m.ReadData) {
		// Simulate a read timeout with no data available.
		time.Sleep(time.Millisecond)
		return 0, nil
	}

	n = copy(p, m.ReadData[m.ReadIndex:])
	m.ReadIndex += n
	return n, nil
}

func (m *MockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Closed {
		return 0, errors.New("port closed")
	}
	if m.WriteError != nil {
		return 0, m.WriteError
	}

	m.Written = append(m.Written, p...)
	return len(p), nil
}

func (m *MockPort) Close() error {
	m.mu.Lock()
	m.Closed = true
	closeError := m.CloseError
	m.mu.Unlock()
	return closeError
}

func (m *MockPort) SetReadTimeout(_ time.Duration) error {
	return m.TimeoutErr
}

func (m *MockPort) ResetInputBuffer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResetCount++
	return m.ResetErr
}

// QueueRead appends data to be returned by future Read calls (thread-safe).
func (m *MockPort) QueueRead(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadData = append(m.ReadData, data...)
}

// WrittenBytes returns a copy of everything written so far (thread-safe).
func (m *MockPort) WrittenBytes() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]byte, len(m.Written))
	copy(out, m.Written)
	return out
}

// IsClosed returns true if the port has been closed (thread-safe).
func (m *MockPort) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Closed
}
