// Package demoapi is an in-memory stand-in for the maintenance API. It serves the
// endpoints the board consumes so the daemon can be tried locally and tested end to end.
package demoapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ankittk/osboard/pkg/models"
	"github.com/go-chi/chi/v5"
)

const conflictMessage = "OS ja alocada em outra equipe."

// Server holds the API state. The zero value is not usable; call New.
type Server struct {
	// Token is the accepted bearer token; empty accepts any non-empty token.
	Token string

	mu          sync.Mutex
	structure   []models.Structure
	subTeams    []models.SubTeamConfig
	holidays    []models.Holiday
	ids         []string
	orders      map[string]models.WorkOrder
	assignments map[string]models.Assignment
	configs     map[models.ConfigKey]models.SchedulerConfig
	configSaves int
}

// New returns an empty server.
func New(token string) *Server {
	return &Server{
		Token:       token,
		orders:      make(map[string]models.WorkOrder),
		assignments: make(map[string]models.Assignment),
		configs:     make(map[models.ConfigKey]models.SchedulerConfig),
	}
}

// AddStructure appends org rows.
func (s *Server) AddStructure(rows ...models.Structure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.structure = append(s.structure, rows...)
}

// AddSubTeams appends sub-team configs.
func (s *Server) AddSubTeams(rows ...models.SubTeamConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subTeams = append(s.subTeams, rows...)
}

// AddHolidays appends holidays.
func (s *Server) AddHolidays(rows ...models.Holiday) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holidays = append(s.holidays, rows...)
}

// PutOrder inserts or replaces a work order.
func (s *Server) PutOrder(o models.WorkOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; !ok {
		s.ids = append(s.ids, o.ID)
	}
	s.orders[o.ID] = o
}

// Order returns a stored work order.
func (s *Server) Order(id string) (models.WorkOrder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	return o, ok
}

// SetAssignment stores an assignment without the conflict check.
func (s *Server) SetAssignment(a models.Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[a.OrderID] = a
}

// Assignment returns the assignment of a work order.
func (s *Server) Assignment(id string) (models.Assignment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	return a, ok
}

// Config returns the saved config bag of key.
func (s *Server) Config(key models.ConfigKey) (models.SchedulerConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.configs[key]
	return c, ok
}

// ConfigSaves counts PATCH /os/scheduler-config calls.
func (s *Server) ConfigSaves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configSaves
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Group(func(r chi.Router) {
		r.Use(s.auth)
		r.Get("/estrutura", s.handleStructure)
		r.Get("/os", s.handleListOrders)
		r.Patch("/os", s.handlePatchOrder)
		r.Get("/os/scheduler-sub-team", s.handleSubTeams)
		r.Get("/os/scheduler-assignment", s.handleAssignments)
		r.Patch("/os/scheduler-assignment", s.handleAssign)
		r.Delete("/os/scheduler-assignment", s.handleUnassign)
		r.Get("/os/scheduler-holiday", s.handleHolidays)
		r.Get("/os/scheduler-config", s.handleGetConfig)
		r.Patch("/os/scheduler-config", s.handleSaveConfig)
	})
	return r
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" || (s.Token != "" && token != s.Token) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"estrutura": nonNil(s.structure)})
}

func (s *Server) handleSubTeams(w http.ResponseWriter, r *http.Request) {
	coord := r.URL.Query().Get("coordenacao")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.SubTeamConfig{}
	for _, c := range s.subTeams {
		if coord == "" || c.Coordination == coord {
			out = append(out, c)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"configs": out})
}

func (s *Server) handleHolidays(w http.ResponseWriter, r *http.Request) {
	team := r.URL.Query().Get("equipe_id")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Holiday{}
	for _, h := range s.holidays {
		if team == "" || h.TeamID == team {
			out = append(out, h)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"holidays": out})
}

func (s *Server) handleAssignments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Assignment{}
	for _, a := range s.assignments {
		if a.Coordination == q.Get("coordenacao") && a.TeamID == q.Get("equipe_id") {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	writeJSON(w, http.StatusOK, map[string]any{"assignments": out})
}

// handleAssign upserts an assignment. A work order held by another sub-team answers 409.
func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var a models.Assignment
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil || a.OrderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid assignment"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.assignments[a.OrderID]; ok && cur != a {
		writeJSON(w, http.StatusConflict, map[string]any{"error": conflictMessage})
		return
	}
	s.assignments[a.OrderID] = a
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleUnassign(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assignments, r.URL.Query().Get("os_id"))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleListOrders filters by status list and team label. ano/mes keep created orders
// and orders with any slot or realized date in that month.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	statuses := map[string]bool{}
	for _, st := range strings.Split(q.Get("status"), ",") {
		if st != "" {
			statuses[st] = true
		}
	}
	prefix := ""
	if q.Get("ano") != "" && q.Get("mes") != "" {
		prefix = q.Get("ano") + "-" + q.Get("mes")
	}
	team := q.Get("equipe")

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.WorkOrder{}
	for _, id := range s.ids {
		o := s.orders[id]
		if len(statuses) > 0 && !statuses[o.Status] {
			continue
		}
		if team != "" && o.Team != team {
			continue
		}
		if prefix != "" && o.Status != models.StatusCreated && !inMonth(o, prefix) {
			continue
		}
		out = append(out, o)
	}
	writeJSON(w, http.StatusOK, map[string]any{"os": out})
}

func inMonth(o models.WorkOrder, prefix string) bool {
	slots := o.Slots()
	for _, d := range append(slots[:], o.RealizedAt) {
		if d != nil && strings.HasPrefix(*d, prefix) {
			return true
		}
	}
	return false
}

func (s *Server) handlePatchOrder(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}
	var id string
	_ = json.Unmarshal(body["id"], &id)

	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "OS nao encontrada."})
		return
	}
	if raw, ok := body["os_status"]; ok {
		_ = json.Unmarshal(raw, &o.Status)
	}
	slots := []**string{&o.Programado1, &o.Programado2, &o.Programado3, &o.Programado4, &o.Programado5}
	for i, dst := range slots {
		raw, ok := body["os_programado"+strconv.Itoa(i+1)]
		if !ok {
			continue
		}
		var v *string
		_ = json.Unmarshal(raw, &v)
		*dst = v
	}
	s.orders[id] = o
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func configKey(r *http.Request) models.ConfigKey {
	q := r.URL.Query()
	return models.ConfigKey{Month: q.Get("mes"), Coordination: q.Get("coordenacao"), TeamID: q.Get("equipe_id"), SubTeam: q.Get("sub_equipe")}
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[configKey(r)]
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"config": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"config": cfg})
}

func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var body struct {
		models.ConfigKey
		Config models.SchedulerConfig `json:"config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || !body.ConfigKey.Complete() {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid config"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[body.ConfigKey] = body.Config
	s.configSaves++
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
