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

package publishers

import (
	"testing"
	"time"

	"github.com/PicoPlotProject/picoplot-core/pkg/api/models"
	"github.com/stretchr/testify/assert"
)

func TestNewMQTTPublisher(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		broker string
		topic  string
		filter []string
	}{
		{
			name:   "with filter",
			broker: "localhost:1883",
			topic:  "picoplot/pico1",
			filter: []string{"run.started", "run.stopped"},
		},
		{
			name:   "without filter",
			broker: "broker.example.com:8883",
			topic:  "notifications",
			filter: nil,
		},
		{
			name:   "empty filter",
			broker: "test:1883",
			topic:  "test/topic",
			filter: []string{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			publisher := NewMQTTPublisher(tt.broker, tt.topic, tt.filter)

			assert.NotNil(t, publisher)
			assert.Equal(t, tt.broker, publisher.broker)
			assert.Equal(t, tt.topic, publisher.topic)
			assert.Equal(t, tt.filter, publisher.filter)
			assert.NotNil(t, publisher.stopCh)
		})
	}
}

func TestMatchesFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		method  string
		wantMsg string
		filter  []string
		want    bool
	}{
		{
			name:    "empty filter matches all",
			filter:  []string{},
			method:  "run.started",
			want:    true,
			wantMsg: "empty filter should match all notifications",
		},
		{
			name:    "nil filter matches all",
			filter:  nil,
			method:  "device.connected",
			want:    true,
			wantMsg: "nil filter should match all notifications",
		},
		{
			name:    "method in filter",
			filter:  []string{"run.started", "run.stopped"},
			method:  "run.started",
			want:    true,
			wantMsg: "should match when method is in filter",
		},
		{
			name:    "method not in filter",
			filter:  []string{"run.started", "run.stopped"},
			method:  "plot.data",
			want:    false,
			wantMsg: "should not match when method not in filter",
		},
		{
			name:    "wildcard prefix match",
			filter:  []string{"plot.*"},
			method:  "plot.data",
			want:    true,
			wantMsg: "trailing .* should match any method under the prefix",
		},
		{
			name:    "wildcard does not match bare prefix",
			filter:  []string{"plot.*"},
			method:  "plot",
			want:    false,
			wantMsg: "wildcard requires a segment after the prefix",
		},
		{
			name:    "wildcard does not match other prefixes",
			filter:  []string{"plot.*"},
			method:  "plotter.data",
			want:    false,
			wantMsg: "wildcard match is segment-aware",
		},
		{
			name:    "case sensitive",
			filter:  []string{"run.started"},
			method:  "Run.Started",
			want:    false,
			wantMsg: "filter matching should be case-sensitive",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			publisher := &MQTTPublisher{
				filter: tt.filter,
			}

			result := publisher.matchesFilter(tt.method)

			assert.Equal(t, tt.want, result, tt.wantMsg)
		})
	}
}

func TestStop(t *testing.T) {
	t.Parallel()

	publisher := NewMQTTPublisher("localhost:1883", "test", nil)

	// Stop should not panic and should close the channel
	publisher.Stop()

	_, ok := <-publisher.stopCh
	assert.False(t, ok, "stopCh should be closed after Stop()")
}

func TestPublishNotifications_TopicPerMethod(t *testing.T) {
	t.Parallel()

	mockClient := newMockMQTTClient()
	publisher := NewMQTTPublisher("localhost:1883", "picoplot/pico1", nil)
	publisher.client = mockClient
	mockClient.connected = true

	notifChan := make(chan models.Notification, 10)

	publisher.wg.Add(1)
	go publisher.publishNotifications(notifChan)

	notifChan <- models.Notification{
		Method: "plot.data",
		Params: []byte(`{"samples": [[1.0, 2.0]]}`),
	}

	time.Sleep(50 * time.Millisecond)

	msgs := mockClient.getPublished()
	if assert.Len(t, msgs, 1) {
		assert.Equal(t, "picoplot/pico1/plot.data", msgs[0].topic)
	}

	publisher.Stop()
}

func TestPublishNotifications_FilteredOut(t *testing.T) {
	t.Parallel()

	mockClient := newMockMQTTClient()
	publisher := NewMQTTPublisher("localhost:1883", "test/topic", []string{"device.connected"})
	publisher.client = mockClient
	mockClient.connected = true

	notifChan := make(chan models.Notification, 10)

	publisher.wg.Add(1)
	go publisher.publishNotifications(notifChan)

	// Send notification that should be filtered out
	notifChan <- models.Notification{
		Method: "console.output",
		Params: []byte(`{"text": "hello"}`),
	}

	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, mockClient.getPublishedCount())

	// Now send one that matches filter
	notifChan <- models.Notification{
		Method: "device.connected",
		Params: []byte(`{"port": "/dev/ttyACM0"}`),
	}

	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, mockClient.getPublishedCount())

	publisher.Stop()
}

func TestPublishNotifications_PublishError(t *testing.T) {
	t.Parallel()

	mockClient := newMockMQTTClient()
	mockClient.publishError = assert.AnError
	mockClient.connected = true

	publisher := NewMQTTPublisher("localhost:1883", "test/topic", nil)
	publisher.client = mockClient

	notifChan := make(chan models.Notification, 10)

	publisher.wg.Add(1)
	go publisher.publishNotifications(notifChan)

	notifChan <- models.Notification{
		Method: "run.stopped",
		Params: []byte(`{}`),
	}

	// Wait briefly - should handle error gracefully
	time.Sleep(50 * time.Millisecond)

	// No panic means success - error was handled
	publisher.Stop()
}

func TestPublishNotifications_ChannelClosed(t *testing.T) {
	t.Parallel()

	mockClient := newMockMQTTClient()
	mockClient.connected = true

	publisher := NewMQTTPublisher("localhost:1883", "test/topic", nil)
	publisher.client = mockClient

	notifChan := make(chan models.Notification, 10)

	publisher.wg.Add(1)
	go publisher.publishNotifications(notifChan)

	close(notifChan)

	// Wait for goroutine to exit
	publisher.wg.Wait()
}

func TestStop_WithConnectedClient(t *testing.T) {
	t.Parallel()

	mockClient := newMockMQTTClient()
	mockClient.connected = true

	publisher := NewMQTTPublisher("localhost:1883", "test", nil)
	publisher.client = mockClient

	publisher.Stop()

	assert.Equal(t, 1, mockClient.disconnectCall)
	assert.False(t, mockClient.IsConnected())

	_, ok := <-publisher.stopCh
	assert.False(t, ok, "stopCh should be closed after Stop()")
}
