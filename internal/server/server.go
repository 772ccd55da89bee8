package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rxtech-lab/argo-consensus/internal/engine"
	"github.com/rxtech-lab/argo-consensus/internal/logger"
	"github.com/rxtech-lab/argo-consensus/internal/simulation"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/pkg/errors"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 8 << 20

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// BarsResponse reports the outcome of pushing bars into a simulation.
type BarsResponse struct {
	Processed int          `json:"processed"`
	Result    types.Result `json:"result"`
}

// Server exposes a simulation manager over HTTP.
type Server struct {
	manager    *simulation.Manager
	hub        *Hub
	router     *mux.Router
	httpServer *http.Server
	listener   net.Listener
	logger     *logger.Logger
}

// New wires the routes. Simulations created through the API publish their
// updates to the websocket hub.
func New(manager *simulation.Manager, hub *Hub, log *logger.Logger) *Server {
	s := &Server{
		manager: manager,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  log.Named("server"),
	}

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/schema", s.handleSchema).Methods(http.MethodGet)
	api.HandleFunc("/simulations", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/simulations", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/simulations/{id}", s.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/simulations/{id}", s.handleDelete).Methods(http.MethodDelete)
	api.HandleFunc("/simulations/{id}/start", s.handleStart).Methods(http.MethodPost)
	api.HandleFunc("/simulations/{id}/stop", s.handleStop).Methods(http.MethodPost)
	api.HandleFunc("/simulations/{id}/bars", s.handleBars).Methods(http.MethodPost)
	api.HandleFunc("/simulations/{id}/ws", s.handleWebSocket)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on address; an empty address picks a free port.
func (s *Server) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	s.logger.Info("Server listening", zap.String("address", listener.Addr().String()))

	return nil
}

// Address returns the bound address once started.
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// Shutdown stops every simulation, disconnects websocket clients and
// drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.manager.StopAll()
	s.hub.Close()

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	schema, err := engine.ConfigSchema()
	if err != nil {
		s.writeError(w, err)

		return
	}

	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, schema)
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.List())
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidParameter, "failed to read body", err))

		return
	}

	config, err := engine.ParseConfig(body, ".json")
	if err != nil {
		s.writeError(w, err)

		return
	}

	id := uuid.NewString()

	sim, err := s.manager.Create(config, s.hub.Observer(id), simulation.WithID(id))
	if err != nil {
		s.writeError(w, err)

		return
	}

	if r.URL.Query().Get("start") == "true" {
		sim.Start()
	}

	writeJSON(w, http.StatusCreated, s.summary(sim))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sim, err := s.manager.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, sim.Result())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.manager.Remove(id); err != nil {
		s.writeError(w, err)

		return
	}

	s.hub.CloseSimulation(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.transition(w, mux.Vars(r)["id"], s.manager.Start)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.transition(w, mux.Vars(r)["id"], s.manager.Stop)
}

func (s *Server) transition(w http.ResponseWriter, id string, apply func(string) error) {
	if err := apply(id); err != nil {
		s.writeError(w, err)

		return
	}

	sim, err := s.manager.Get(id)
	if err != nil {
		s.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, s.summary(sim))
}

// handleBars accepts a JSON array of bars and processes them in order,
// stopping at the first failed step.
func (s *Server) handleBars(w http.ResponseWriter, r *http.Request) {
	sim, err := s.manager.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)

		return
	}

	var bars []types.Bar
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&bars); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid bars payload", err))

		return
	}

	if sim.Status() != simulation.StatusRunning {
		s.writeError(w, errors.Newf(errors.ErrCodeInvalidState, "simulation %s is %s", sim.ID(), sim.Status()))

		return
	}

	processed := 0

	for _, bar := range bars {
		if err := sim.Process(bar); err != nil {
			s.writeError(w, err)

			return
		}

		processed++
	}

	writeJSON(w, http.StatusOK, BarsResponse{Processed: processed, Result: sim.Result()})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := s.manager.Get(id); err != nil {
		s.writeError(w, err)

		return
	}

	s.hub.Serve(w, r, id)
}

func (s *Server) summary(sim *simulation.Simulation) simulation.Summary {
	for _, summary := range s.manager.List() {
		if summary.ID == sim.ID() {
			return summary
		}
	}

	return simulation.Summary{ID: sim.ID(), Status: sim.Status()}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Error(err))
	}

	writeJSON(w, status, ErrorResponse{Code: errors.GetCode(err), Message: err.Error()})
}

func statusFor(err error) int {
	switch code := errors.GetCode(err); {
	case code == errors.ErrCodeSimulationNotFound:
		return http.StatusNotFound
	case errors.IsConfigurationError(err), errors.IsUnknownVariantError(err), errors.IsEmptyDataError(err):
		return http.StatusBadRequest
	case errors.IsStateError(err):
		return http.StatusConflict
	case code == errors.ErrCodeStrategyRuntimeError, code == errors.ErrCodeRiskRuntimeError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
