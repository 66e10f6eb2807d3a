// Package api serves the read-only observation surface over HTTP: status,
// agent views, lifecycle records, and a websocket record stream. The one
// mutating endpoint (speed) requires a bearer token.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/ferune/wildmere/internal/engine"
	"github.com/ferune/wildmere/internal/persistence"
)

// Server exposes a running simulation. All GET handlers read through the
// simulation's snapshot methods and never touch live state.
type Server struct {
	Sim      *engine.Sim
	Runner   *engine.Runner
	Store    *persistence.Store // nil = no history endpoints
	Port     int
	AdminKey string // bearer token for POST endpoints; empty = POST disabled

	upgrader websocket.Upgrader
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
	streamLimiter := NewRateLimiter(30, 60) // connections per IP per minute

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/agents", s.handleAgents)
	mux.HandleFunc("/api/v1/agent/", s.handleAgent)
	mux.HandleFunc("/api/v1/records", s.handleRecords)
	mux.HandleFunc("/api/v1/history", s.handleHistory)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/map", s.handleMap)
	mux.HandleFunc("/api/v1/stream", streamLimiter.Wrap(s.handleStream))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("api starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("api server error", "error", err)
		}
	}()
}

func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled", http.StatusForbidden)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.AdminKey {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	tick := s.Runner.Tick()
	st := s.Sim.Stats(tick)

	writeJSON(w, map[string]any{
		"name":       "Wildmere",
		"tick":       tick,
		"sim_time":   engine.SimTime(tick, uint64(s.Sim.Cfg.Tick.TicksPerHour), uint64(s.Sim.Cfg.Tick.TicksPerDay)),
		"speed":      s.Runner.Speed(),
		"running":    s.Runner.Running(),
		"agents":     st.Agents,
		"settlers":   st.Settlers,
		"animals":    st.Animals,
		"factions":   st.Factions,
		"births":     st.Births,
		"deaths":     st.Deaths,
		"departures": st.Departures,
	})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	species := r.URL.Query().Get("species")

	views := s.Sim.SnapshotAgents()
	if species != "" {
		filtered := views[:0]
		for _, v := range views {
			if v.Species == species {
				filtered = append(filtered, v)
			}
		}
		views = filtered
	}
	writeJSON(w, views)
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 5 {
		http.Error(w, "missing agent id", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseUint(parts[4], 10, 64)
	if err != nil {
		http.Error(w, "invalid agent id", http.StatusBadRequest)
		return
	}

	view, ok := s.Sim.SnapshotAgent(id)
	if !ok {
		http.Error(w, "agent not found", http.StatusNotFound)
		return
	}
	writeJSON(w, view)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	writeJSON(w, s.Sim.Records.Recent(limit))
}

// handleHistory serves persisted lifecycle records from the run database,
// reaching past the in-memory ring that /records covers.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "no run database", http.StatusNotFound)
		return
	}
	limit := 200
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 5000 {
			limit = n
		}
	}
	records, err := s.Store.RecentRecords(limit)
	if err != nil {
		slog.Error("history query failed", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, records)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Stats(s.Runner.Tick()))
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.SnapshotWorld())
}

// handleStream upgrades to a websocket and pushes lifecycle records as they
// happen. The connection closes when the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch, cancel := s.Sim.Records.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case rec, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(rec); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Runner.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}
	writeJSON(w, map[string]float64{"speed": s.Runner.Speed()})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("json encode failed", "error", err)
	}
}
