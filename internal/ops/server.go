/*-------------------------------------------------------------------------
 *
 * server.go
 *    Operational HTTP endpoint
 *
 * Small read-only surface for supervisors and dashboards: liveness,
 * relay status, and Prometheus metrics. Disabled entirely when no
 * listen address is configured.
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/ops/server.go
 *
 *-------------------------------------------------------------------------
 */

package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/clawbackx/approval-relay/internal/checkpoint"
	"github.com/clawbackx/approval-relay/internal/metrics"
)

/* Status is the /status response body */
type Status struct {
	AgentID     string `json:"agent_id"`
	Mode        string `json:"mode"`
	LastPoll    string `json:"last_poll,omitempty"`
	Checkpoints int    `json:"checkpoints"`
}

/* Server exposes the operational endpoint for one running daemon */
type Server struct {
	agentID string
	mode    string
	store   *checkpoint.Store
	http    *http.Server
}

/* NewServer builds the ops server on the given listen address */
func NewServer(listen, agentID, mode string, store *checkpoint.Store) *Server {
	s := &Server{
		agentID: agentID,
		mode:    mode,
		store:   store,
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	router.HandleFunc("/status", s.handleStatus).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	s.http = &http.Server{
		Addr:         listen,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

/* Start serves until Stop is called. Serve errors other than a clean
 * close are logged, not fatal; the relay keeps polling without its ops
 * surface. */
func (s *Server) Start() {
	go func() {
		log.Info().Str("listen", s.http.Addr).Msg("ops endpoint listening")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("ops endpoint failed")
		}
	}()
}

/* Stop shuts the listener down gracefully */
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := Status{
		AgentID:     s.agentID,
		Mode:        s.mode,
		Checkpoints: s.store.Len(),
	}
	if lp := s.store.LastPoll(); !lp.IsZero() {
		status.LastPoll = lp.UTC().Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("status encode failed")
	}
}
