// Package fixture is an in-memory stand-in for the simulation API. It serves
// the same routes as the real service and lets tests inject failures.
package fixture

import (
	"encoding/json"
	"math"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"axview/entity"
	"axview/simstate"
	"axview/tilemap"
)

const (
	// MoveVelocity is the speed, in tiles per tick, a move order sets.
	MoveVelocity = 0.01
	startHP      = 10
)

// Options tune the router.
type Options struct {
	// RequestLog enables chi's request logger.
	RequestLog bool
	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string
	// OmitMap leaves the map out of /state so clients must query /map.
	OmitMap bool
}

// Server is safe for concurrent use.
type Server struct {
	mu     sync.Mutex
	m      *tilemap.Map
	cats   map[entity.Kind]map[string]entity.Fields
	hp     map[string]int
	tick   int
	paused bool

	fail    int
	garble  int
	omitMap bool

	router chi.Router
}

// New builds a server holding st. Without a map the server uses the
// built-in island.
func New(st *simstate.State, opts Options) *Server {
	s := &Server{m: tilemap.Default(), omitMap: opts.OmitMap}
	if st != nil {
		s.SetState(st)
	} else {
		s.SetState(&simstate.State{})
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	if opts.RequestLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/schema", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, simstate.Schema())
	})
	r.Get("/state", s.getState)
	r.Get("/map", s.getMap)
	r.Route("/unit", func(sub chi.Router) {
		sub.Post("/move", s.move)
		sub.Post("/facing", s.face)
		sub.Post("/damage", s.damage)
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetState replaces everything the server holds. Units start at full HP.
func (s *Server) SetState(st *simstate.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.Map != nil {
		s.m = st.Map
	}
	s.cats = make(map[entity.Kind]map[string]entity.Fields, len(st.Categories))
	s.hp = make(map[string]int)
	for k, recs := range st.Categories {
		cp := make(map[string]entity.Fields, len(recs))
		for id, f := range recs {
			cp[id] = f
			if k == entity.Units {
				s.hp[id] = startHP
			}
		}
		s.cats[k] = cp
	}
	s.tick, s.paused = st.Tick, st.Paused
}

// Fail makes the next n state or map queries answer 500.
func (s *Server) Fail(n int) {
	s.mu.Lock()
	s.fail = n
	s.mu.Unlock()
}

// Garble makes the next n state or map queries return a truncated body.
func (s *Server) Garble(n int) {
	s.mu.Lock()
	s.garble = n
	s.mu.Unlock()
}

// Unit returns a unit's current fields.
func (s *Server) Unit(id string) (entity.Fields, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.cats[entity.Units][id]
	return f, ok
}

// HP returns a unit's hit points.
func (s *Server) HP(id string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hp, ok := s.hp[id]
	return hp, ok
}

// TickCount is the number of ticks run so far.
func (s *Server) TickCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// Tick advances the simulation one step. Moving units advance along their
// facing unless the footprint at the next position leaves walkable ground,
// in which case they stop. Paused servers do nothing.
func (s *Server) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		return
	}
	s.tick++
	units := s.cats[entity.Units]
	for id, u := range units {
		if u.Velocity == 0 {
			continue
		}
		sin, cos := math.Sincos(u.Facing)
		nx, ny := u.X+cos*u.Velocity, u.Y+sin*u.Velocity
		if s.blocked(nx, ny, u.Size) {
			u.Velocity = 0
		} else {
			u.X, u.Y = nx, ny
		}
		units[id] = u
	}
}

func (s *Server) blocked(x, y, size float64) bool {
	for ty := int(math.Floor(y)); ty <= int(math.Floor(y+size)); ty++ {
		for tx := int(math.Floor(x)); tx <= int(math.Floor(x+size)); tx++ {
			switch c, _ := s.m.Tile(tx, ty); c {
			case tilemap.Land, tilemap.Dirt:
			default:
				return true
			}
		}
	}
	return false
}

// injected reports whether a failure was injected and has been written.
func (s *Server) injected(w http.ResponseWriter) bool {
	s.mu.Lock()
	fail, garble := s.fail > 0, s.garble > 0
	if fail {
		s.fail--
	} else if garble {
		s.garble--
	}
	s.mu.Unlock()
	switch {
	case fail:
		http.Error(w, "injected failure", http.StatusInternalServerError)
		return true
	case garble:
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"units":{"`))
		return true
	}
	return false
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	if s.injected(w) {
		return
	}
	s.mu.Lock()
	st := &simstate.State{
		Categories: s.cats,
		Tick:       s.tick,
		HasTick:    true,
		Paused:     s.paused,
		HasPaused:  true,
	}
	if !s.omitMap {
		st.Map = s.m
	}
	p := simstate.Encode(st)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) getMap(w http.ResponseWriter, r *http.Request) {
	if s.injected(w) {
		return
	}
	s.mu.Lock()
	p := simstate.Encode(&simstate.State{Map: s.m})
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, p)
}

type moveRequest struct {
	UnitID string  `json:"unit_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type facingRequest struct {
	UnitID string  `json:"unit_id"`
	Facing float64 `json:"facing"`
}

type damageRequest struct {
	UnitID   string `json:"unit_id"`
	TargetID string `json:"target_id"`
}

func (s *Server) move(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	s.mu.Lock()
	u, ok := s.cats[entity.Units][req.UnitID]
	if ok {
		u.Facing = math.Atan2(req.Y-u.Y, req.X-u.X)
		u.Velocity, u.HasVelocity = MoveVelocity, true
		s.cats[entity.Units][req.UnitID] = u
	}
	s.mu.Unlock()
	if !ok {
		errorJSON(w, http.StatusNotFound, "unit not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) face(w http.ResponseWriter, r *http.Request) {
	var req facingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	s.mu.Lock()
	u, ok := s.cats[entity.Units][req.UnitID]
	if ok {
		u.Facing = req.Facing
		s.cats[entity.Units][req.UnitID] = u
	}
	s.mu.Unlock()
	if !ok {
		errorJSON(w, http.StatusNotFound, "unit not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) damage(w http.ResponseWriter, r *http.Request) {
	var req damageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	s.mu.Lock()
	_, srcOK := s.hp[req.UnitID]
	_, dstOK := s.hp[req.TargetID]
	if srcOK && dstOK {
		s.hp[req.UnitID]++
		s.hp[req.TargetID] -= 2
	}
	s.mu.Unlock()
	switch {
	case !srcOK:
		errorJSON(w, http.StatusNotFound, "source unit not found")
	case !dstOK:
		errorJSON(w, http.StatusNotFound, "target unit not found")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}
