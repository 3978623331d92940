// Package api exposes the read-only HTTP status surface for the engine.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Jss-on/latentspeed/internal/engine"
	"github.com/Jss-on/latentspeed/internal/position"
)

// Source provides the live views the endpoints render. The engine satisfies
// it directly.
type Source interface {
	StatsSnapshot() engine.Stats
	OpenPositions() []position.Position
}

// Server renders engine state over HTTP.
type Server struct {
	log zerolog.Logger
	src Source
}

// NewServer wires the status server around a stats source.
func NewServer(src Source, log zerolog.Logger) *Server {
	return &Server{log: log, src: src}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/positions", s.handlePositions).Methods(http.MethodGet)
	return r
}

// Serve starts the status listener on addr and returns the server for shutdown.
func (s *Server) Serve(addr string) *http.Server {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.src.StatsSnapshot())
}

type positionView struct {
	ClientID   string    `json:"cl_id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	EntryPrice float64   `json:"entry_price"`
	Size       float64   `json:"size"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	OpenedAt   time.Time `json:"opened_at"`
	State      string    `json:"state"`
}

func (s *Server) handlePositions(w http.ResponseWriter, _ *http.Request) {
	open := s.src.OpenPositions()
	views := make([]positionView, len(open))
	for i, p := range open {
		views[i] = positionView{
			ClientID:   p.ClientID,
			Symbol:     p.Symbol,
			Side:       string(p.Side),
			EntryPrice: p.EntryPrice,
			Size:       p.Size,
			StopLoss:   p.StopLoss,
			TakeProfit: p.TakeProfit,
			OpenedAt:   p.OpenedAt,
			State:      p.State.String(),
		}
	}
	s.writeJSON(w, views)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("failed to encode response")
	}
}
