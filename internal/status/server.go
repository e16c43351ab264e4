// Package status serves the local read-only connectivity endpoint. UI
// collaborators (SOS screen, job list) poll it instead of reaching into the
// connection manager.
package status

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/gowrishetty09/driverlink/internal/realtime"
)

// Snapshot is the JSON body of GET /status.
type Snapshot struct {
	State          string    `json:"state"`
	QueueDepth     int       `json:"queue_depth"`
	BufferedPoints int       `json:"buffered_points"`
	Subscriptions  []string  `json:"subscriptions"`
	Timestamp      time.Time `json:"timestamp"`
}

// Server exposes the connection manager's state over local HTTP.
type Server struct {
	manager    *realtime.Manager
	httpServer *http.Server
}

// New creates a status server bound to addr.
func New(addr string, manager *realtime.Manager) *Server {
	s := &Server{manager: manager}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealthz).Methods("GET")
	router.HandleFunc("/status", s.handleStatus).Methods("GET")

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start begins serving in the background.
func (s *Server) Start() {
	log.Info().Str("addr", s.httpServer.Addr).Msg("status server listening")
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("status server error")
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := Snapshot{
		State:          string(s.manager.State()),
		QueueDepth:     s.manager.QueueDepth(),
		BufferedPoints: s.manager.BufferedPoints(),
		Subscriptions:  s.manager.Subscriptions(),
		Timestamp:      time.Now().UTC(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		log.Warn().Err(err).Msg("failed to encode status response")
	}
}
