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

// Package api exposes the service over a JSON-RPC 2.0 websocket endpoint
// with a push notification stream.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PicoPlotProject/picoplot-core/pkg/api/methods"
	apimiddleware "github.com/PicoPlotProject/picoplot-core/pkg/api/middleware"
	"github.com/PicoPlotProject/picoplot-core/pkg/api/models"
	"github.com/PicoPlotProject/picoplot-core/pkg/api/models/requests"
	"github.com/PicoPlotProject/picoplot-core/pkg/api/validation"
	"github.com/PicoPlotProject/picoplot-core/pkg/config"
	"github.com/PicoPlotProject/picoplot-core/pkg/database/recordingdb"
	"github.com/PicoPlotProject/picoplot-core/pkg/platforms"
	"github.com/PicoPlotProject/picoplot-core/pkg/service/state"
	"github.com/PicoPlotProject/picoplot-core/pkg/service/worker"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

var JSONRPCErrorParseError = models.ErrorObject{
	Code:    -32700,
	Message: "Parse error",
}
var JSONRPCErrorInvalidRequest = models.ErrorObject{
	Code:    -32600,
	Message: "Invalid Request",
}
var JSONRPCErrorMethodNotFound = models.ErrorObject{
	Code:    -32601,
	Message: "Method not found",
}
var JSONRPCErrorInvalidParams = models.ErrorObject{
	Code:    -32602,
	Message: "Invalid params",
}
var JSONRPCErrorServerError = models.ErrorObject{
	Code:    -32000,
	Message: "Server error",
}

func maybeUUID(req *models.RequestObject) uuid.UUID {
	if req.ID == nil {
		return uuid.Nil
	}
	return *req.ID
}

var methodMap = map[string]func(requests.RequestEnv) (any, error){
	// utils
	models.MethodVersion: methods.HandleVersion,
	models.MethodPorts:   methods.HandlePorts,
	// device
	models.MethodDeviceConnect:    methods.HandleDeviceConnect,
	models.MethodDeviceDisconnect: methods.HandleDeviceDisconnect,
	models.MethodDeviceStatus:     methods.HandleDeviceStatus,
	models.MethodDeviceSetPort:    methods.HandleDeviceSetPort,
	models.MethodDeviceEval:       methods.HandleDeviceEval,
	models.MethodDeviceInstallLib: methods.HandleInstallLib,
	// run
	models.MethodRun:  methods.HandleRun,
	models.MethodStop: methods.HandleStop,
	// files
	models.MethodFilesList:   methods.HandleFilesList,
	models.MethodFilesRead:   methods.HandleFilesRead,
	models.MethodFilesWrite:  methods.HandleFilesWrite,
	models.MethodFilesDelete: methods.HandleFilesDelete,
	models.MethodFilesSync:   methods.HandleFilesSync,
	// recordings
	models.MethodRecordingsStart:  methods.HandleRecordingsStart,
	models.MethodRecordingsStop:   methods.HandleRecordingsStop,
	models.MethodRecordingsList:   methods.HandleRecordingsList,
	models.MethodRecordingsDelete: methods.HandleRecordingsDelete,
	models.MethodRecordingsExport: methods.HandleRecordingsExport,
	// settings
	models.MethodSettings:       methods.HandleSettings,
	models.MethodSettingsUpdate: methods.HandleSettingsUpdate,
	models.MethodSettingsReload: methods.HandleSettingsReload,
}

func handleRequest(env requests.RequestEnv, req *models.RequestObject) (any, *models.ErrorObject) {
	log.Debug().Str("method", req.Method).Msg("received request")

	fn, ok := methodMap[strings.ToLower(req.Method)]
	if !ok {
		return nil, &JSONRPCErrorMethodNotFound
	}

	env.ID = *req.ID
	env.Params = req.Params

	resp, err := fn(env)
	if err == nil {
		return resp, nil
	}

	var validationErr *validation.Error
	switch {
	case errors.Is(err, validation.ErrMissingParams),
		errors.Is(err, validation.ErrInvalidParams),
		errors.As(err, &validationErr):
		return nil, &models.ErrorObject{
			Code:    JSONRPCErrorInvalidParams.Code,
			Message: err.Error(),
		}
	default:
		return nil, &models.ErrorObject{
			Code:    JSONRPCErrorServerError.Code,
			Message: err.Error(),
		}
	}
}

func sendResponse(session *melody.Session, id uuid.UUID, result any) error {
	log.Debug().Interface("result", result).Msg("sending response")

	resp := models.ResponseObject{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("error marshalling response: %w", err)
	}

	if err := session.Write(data); err != nil {
		return fmt.Errorf("error writing response: %w", err)
	}
	return nil
}

func sendError(session *melody.Session, id uuid.UUID, errObj models.ErrorObject) error {
	log.Debug().Int("code", errObj.Code).Str("message", errObj.Message).Msg("sending error")

	resp := models.ResponseObject{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &errObj,
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("error marshalling error response: %w", err)
	}

	if err := session.Write(data); err != nil {
		return fmt.Errorf("error writing error response: %w", err)
	}
	return nil
}

// broadcastNotifications drains the notification subscription and pushes
// each one to every connected websocket client as an id-less request.
func broadcastNotifications(
	st *state.State,
	session *melody.Melody,
	notifications <-chan models.Notification,
) {
	for {
		select {
		case <-st.GetContext().Done():
			log.Debug().Msg("stopping notification broadcaster")
			return
		case notif, ok := <-notifications:
			if !ok {
				log.Debug().Msg("notification subscription closed")
				return
			}

			var params json.RawMessage
			if notif.Params != nil {
				data, err := json.Marshal(notif.Params)
				if err != nil {
					log.Error().Err(err).Msg("marshalling notification params")
					continue
				}
				params = data
			}

			req := models.RequestObject{
				JSONRPC: "2.0",
				Method:  notif.Method,
				Params:  params,
			}

			data, err := json.Marshal(req)
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification request")
				continue
			}

			if err := session.Broadcast(data); err != nil {
				log.Error().Err(err).Msg("broadcasting notification")
			}
		}
	}
}

func handleWSMessage(env requests.RequestEnv) func(session *melody.Session, msg []byte) {
	return func(session *melody.Session, msg []byte) {
		// plain text ping for client heartbeats
		if bytes.Equal(msg, []byte("ping")) {
			if err := session.Write([]byte("pong")); err != nil {
				log.Error().Err(err).Msg("sending pong")
			}
			return
		}

		if !json.Valid(msg) {
			log.Error().Msg("message is not valid json")
			if err := sendError(session, uuid.Nil, JSONRPCErrorParseError); err != nil {
				log.Error().Err(err).Msg("error sending error response")
			}
			return
		}

		var req models.RequestObject
		if err := json.Unmarshal(msg, &req); err != nil || req.Method == "" {
			log.Error().Err(err).Msg("message does not parse as a request")
			if err := sendError(session, maybeUUID(&req), JSONRPCErrorInvalidRequest); err != nil {
				log.Error().Err(err).Msg("error sending error response")
			}
			return
		}

		if req.JSONRPC != "2.0" {
			log.Error().Str("jsonrpc", req.JSONRPC).Msg("unsupported payload version")
			if err := sendError(session, maybeUUID(&req), JSONRPCErrorInvalidRequest); err != nil {
				log.Error().Err(err).Msg("error sending error response")
			}
			return
		}

		if req.ID == nil {
			// id-less request is a notification, nothing to respond to
			log.Info().Str("method", req.Method).Msg("received notification, ignoring")
			return
		}

		env.IsLocal = apimiddleware.IsLoopbackAddr(session.Request.RemoteAddr)

		resp, errObj := handleRequest(env, &req)
		if errObj != nil {
			if err := sendError(session, *req.ID, *errObj); err != nil {
				log.Error().Err(err).Msg("error sending error response")
			}
			return
		}

		if err := sendResponse(session, *req.ID, resp); err != nil {
			log.Error().Err(err).Msg("error sending response")
		}
	}
}

// Start builds the router and begins serving the API. The returned server
// is shut down by the service teardown; the listener is bound before
// returning so port conflicts surface immediately.
func Start(
	pl platforms.Platform,
	cfg *config.Instance,
	st *state.State,
	wk *worker.Worker,
	db *recordingdb.RecordingDB,
	notifications <-chan models.Notification,
) (*http.Server, error) {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(middleware.Timeout(config.ApiRequestTimeout))

	allowedOrigins := cfg.AllowedOrigins()
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"https://*", "http://*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"Accept"},
	}))

	rateLimiter := apimiddleware.NewIPRateLimiter()
	rateLimiter.StartCleanup(st.GetContext())
	r.Use(apimiddleware.HTTPRateLimitMiddleware(rateLimiter))

	session := melody.New()
	session.Upgrader.CheckOrigin = func(_ *http.Request) bool { return true }
	go broadcastNotifications(st, session, notifications)

	wsHandler := func(w http.ResponseWriter, r *http.Request) {
		if err := session.HandleRequest(w, r); err != nil {
			log.Error().Err(err).Msg("handling websocket request")
		}
	}
	r.Get("/api", wsHandler)
	r.Get("/api/v0", wsHandler)

	env := requests.RequestEnv{
		Platform: pl,
		Config:   cfg,
		State:    st,
		Database: db,
		Worker:   wk,
	}
	session.HandleMessage(apimiddleware.WebSocketRateLimitHandler(rateLimiter, handleWSMessage(env)))

	listener, err := net.Listen("tcp", cfg.APIListen())
	if err != nil {
		return nil, fmt.Errorf("failed to bind api listener: %w", err)
	}

	server := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("listen", cfg.APIListen()).Msg("api server started")
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("api server stopped")
		}
	}()

	go func() {
		<-st.GetContext().Done()
		if err := session.Close(); err != nil {
			log.Debug().Err(err).Msg("error closing websocket sessions")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Debug().Err(err).Msg("error shutting down api server")
		}
	}()

	return server, nil
}
