// Package poll keeps the client's world in step with the simulation by
// fetching snapshots on a fixed cadence and committing them atomically.
package poll

import (
	"errors"
	"sync"
	"time"

	"axview/entity"
	"axview/simstate"
	"axview/tilemap"
)

// ErrNoMap is returned by World.Commit when neither the candidate nor the
// world holds a map.
var ErrNoMap = errors.New("poll: no map")

// World is the committed client state: the current map plus the entity
// store. All access goes through its lock; readers take a View.
type World struct {
	mu      sync.RWMutex
	m       *tilemap.Map
	store   *entity.Store
	tick    int
	hasTick bool
	paused  bool
	version uint64
	updated time.Time
}

func NewWorld() *World {
	return &World{store: entity.NewStore()}
}

// Commit describes what one successful poll changed.
type Commit struct {
	Version    uint64
	MapChanged bool
	Diff       entity.Diff
	Kinds      []entity.Kind
}

// Commit applies a fully decoded candidate. The map is replaced when the
// candidate carries one; every category present is reconciled and absent
// categories are left alone.
func (w *World) Commit(st *simstate.State) (Commit, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if st.Map == nil && w.m == nil {
		return Commit{}, ErrNoMap
	}
	var c Commit
	if st.Map != nil {
		c.MapChanged = !st.Map.Equal(w.m)
		w.m = st.Map
	}
	for _, k := range entity.AllKinds {
		recs, ok := st.Categories[k]
		if !ok {
			continue
		}
		c.Diff.Add(w.store.Reconcile(k, recs))
		c.Kinds = append(c.Kinds, k)
	}
	if st.HasTick {
		w.tick, w.hasTick = st.Tick, true
	}
	if st.HasPaused {
		w.paused = st.Paused
	}
	w.version++
	w.updated = time.Now()
	c.Version = w.version
	return c, nil
}

// HasMap reports whether a map has been committed.
func (w *World) HasMap() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.m != nil
}

// Map returns the committed map, or nil before the first commit.
func (w *World) Map() *tilemap.Map {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.m
}

// Version counts successful commits.
func (w *World) Version() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.version
}

// View is a consistent copy of the world for one frame.
type View struct {
	Map     *tilemap.Map
	Records []entity.Record
	Counts  map[entity.Kind]int
	Tick    int
	HasTick bool
	Paused  bool
	Version uint64
	Updated time.Time
}

// View copies the committed state under the read lock. The map is shared
// since it is immutable.
func (w *World) View() View {
	w.mu.RLock()
	defer w.mu.RUnlock()

	v := View{
		Map:     w.m,
		Records: w.store.Records(),
		Counts:  make(map[entity.Kind]int, len(entity.AllKinds)),
		Tick:    w.tick,
		HasTick: w.hasTick,
		Paused:  w.paused,
		Version: w.version,
		Updated: w.updated,
	}
	for _, k := range w.store.Kinds() {
		v.Counts[k] = w.store.LenKind(k)
	}
	return v
}
