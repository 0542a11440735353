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

// Package service wires the pieces of the daemon together: state,
// notification broker, recordings database, device worker, API server,
// mDNS discovery and MQTT publishers.
package service

import (
	"fmt"
	"os"

	"github.com/PicoPlotProject/picoplot-core/pkg/api"
	"github.com/PicoPlotProject/picoplot-core/pkg/config"
	"github.com/PicoPlotProject/picoplot-core/pkg/database/recordingdb"
	"github.com/PicoPlotProject/picoplot-core/pkg/device"
	"github.com/PicoPlotProject/picoplot-core/pkg/helpers"
	"github.com/PicoPlotProject/picoplot-core/pkg/platforms"
	"github.com/PicoPlotProject/picoplot-core/pkg/service/broker"
	"github.com/PicoPlotProject/picoplot-core/pkg/service/discovery"
	"github.com/PicoPlotProject/picoplot-core/pkg/service/publishers"
	"github.com/PicoPlotProject/picoplot-core/pkg/service/state"
	"github.com/PicoPlotProject/picoplot-core/pkg/service/worker"
	"github.com/rs/zerolog/log"
)

func setupEnvironment(pl platforms.Platform) error {
	if dir, ok := helpers.HasUserDir(); ok {
		log.Info().Msgf("using portable directory for storage: %s", dir)
	}

	log.Info().Msg("creating platform directories")
	dirs := []string{
		helpers.ConfigDir(pl),
		helpers.DataDir(pl),
		helpers.LogDir(pl),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// cleanupRecordingsOnStartup prunes old recordings if retention is
// configured.
func cleanupRecordingsOnStartup(cfg *config.Instance, db *recordingdb.RecordingDB) {
	retentionDays := cfg.RecordingsRetentionDays()
	if retentionDays <= 0 {
		log.Debug().Msg("recordings cleanup disabled (retention set to 0)")
		return
	}

	log.Info().Msgf("cleaning up recordings older than %d days", retentionDays)
	rowsDeleted, err := db.Cleanup(retentionDays)
	switch {
	case err != nil:
		log.Error().Err(err).Msg("error cleaning up recordings")
	case rowsDeleted > 0:
		log.Info().Msgf("deleted %d old recordings", rowsDeleted)
	default:
		log.Debug().Msg("no old recordings to clean up")
	}
}

// startPublishers starts one MQTT publisher per enabled config entry,
// each with its own broker subscription so a stalled broker connection
// cannot hold up other consumers.
func startPublishers(
	cfg *config.Instance,
	notifBroker *broker.Broker,
) []*publishers.MQTTPublisher {
	active := make([]*publishers.MQTTPublisher, 0)

	for _, mqttCfg := range cfg.GetMQTTPublishers() {
		// nil = enabled by default
		if mqttCfg.Enabled != nil && !*mqttCfg.Enabled {
			continue
		}

		topic := mqttCfg.Topic
		if topic == "" {
			topic = "picoplot/" + cfg.DeviceID()
		}

		log.Info().Msgf("starting MQTT publisher: %s (topic: %s)", mqttCfg.Broker, topic)

		publisher := publishers.NewMQTTPublisher(mqttCfg.Broker, topic, mqttCfg.Filter)
		notifChan, _ := notifBroker.Subscribe(100)
		if err := publisher.Start(notifChan); err != nil {
			log.Error().Err(err).Msgf("failed to start MQTT publisher for %s", mqttCfg.Broker)
			continue
		}

		active = append(active, publisher)
	}

	if len(active) > 0 {
		log.Info().Msgf("started %d MQTT publisher(s)", len(active))
	}

	return active
}

// Start brings the daemon up and returns a stop function that performs a
// full ordered teardown, plus a done channel closed once teardown
// completes.
func Start(
	pl platforms.Platform,
	cfg *config.Instance,
) (stop func() error, done <-chan struct{}, err error) {
	log.Info().Msgf("version: %s", config.AppVersion)

	st, ns := state.NewState(pl)

	notifBroker := broker.NewBroker(st.GetContext(), ns)
	notifBroker.Start()

	if err := setupEnvironment(pl); err != nil {
		log.Error().Err(err).Msg("error setting up environment")
		return nil, nil, err
	}

	log.Info().Msg("opening recordings database")
	db, err := recordingdb.OpenRecordingDB(st.GetContext(), pl)
	if err != nil {
		// Recording is optional; the service still runs for live plotting.
		log.Error().Err(err).Msg("failed to open recordings database, recording disabled")
		db = nil
	}
	if db != nil {
		cleanupRecordingsOnStartup(cfg, db)
	}

	log.Info().Msg("starting device worker")
	session := device.NewSession(nil, nil)
	wk := worker.New(cfg, st, session, db, nil)
	wk.Start(st.GetContext())

	log.Info().Msg("starting mDNS discovery service")
	discoveryService := discovery.New(cfg, pl.ID())
	if discoveryErr := discoveryService.Start(); discoveryErr != nil {
		log.Error().Err(discoveryErr).Msg("mDNS discovery failed to start (continuing without discovery)")
	}

	log.Info().Msg("starting API service")
	apiNotifications, _ := notifBroker.Subscribe(100)
	if _, apiErr := api.Start(pl, cfg, st, wk, db, apiNotifications); apiErr != nil {
		log.Error().Err(apiErr).Msg("error starting API service")
		st.StopService()
		notifBroker.Stop()
		discoveryService.Stop()
		if db != nil {
			_ = db.Close()
		}
		return nil, nil, apiErr
	}

	log.Info().Msg("starting publishers")
	activePublishers := startPublishers(cfg, notifBroker)

	log.Info().Msg("service fully initialized")

	doneCh := make(chan struct{})
	go func() {
		<-st.GetContext().Done()
		log.Info().Msg("service context cancelled, running cleanup")

		discoveryService.Stop()
		for _, publisher := range activePublishers {
			publisher.Stop()
		}
		notifBroker.Stop()
		<-wk.Done()
		if db != nil {
			if closeErr := db.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("error closing recordings database")
			}
		}

		log.Info().Msg("service cleanup completed")
		close(doneCh)
	}()

	stop = func() error {
		st.StopService()
		<-doneCh
		return nil
	}
	done = doneCh
	return stop, done, nil
}
