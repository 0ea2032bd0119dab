// Package entity keeps the client's renderable copy of server entities and
// reconciles it against each new snapshot.
package entity

import (
	"fmt"
	"math"
)

// Kind is the payload category a record arrived in. Ids are only unique
// within a kind.
type Kind uint8

const (
	Objects Kind = iota + 1
	Units
	Entities
	Projectiles
)

// AllKinds lists every category in draw order.
var AllKinds = []Kind{Objects, Projectiles, Entities, Units}

func (k Kind) String() string {
	switch k {
	case Objects:
		return "objects"
	case Units:
		return "units"
	case Entities:
		return "entities"
	case Projectiles:
		return "projectiles"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a payload key to its Kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range AllKinds {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Fields is everything the server says about one record. A poll replaces
// all of them at once.
type Fields struct {
	X, Y        float64
	Size        float64
	Facing      float64
	Velocity    float64
	HasVelocity bool
	Owner       int
	HasOwner    bool
	Tag         string
}

// Record is one entity as held by the Store.
type Record struct {
	ID   string
	Kind Kind
	Fields

	cache *Cache
}

// Cache returns the record's render cache. The pointer is stable for the
// lifetime of the id in the store.
func (r Record) Cache() *Cache { return r.cache }

// Cache holds data derived from a record for drawing. Only the render loop
// touches its contents.
type Cache struct {
	valid          bool
	facing, radius float64
	tri            [3][2]float64
}

// Triangle returns the vertices of an arrowhead of the given radius pointing
// along facing, relative to the record's center. Results are memoized until
// facing or radius change.
func (c *Cache) Triangle(facing, radius float64) [3][2]float64 {
	if c == nil {
		return triangle(facing, radius)
	}
	if !c.valid || c.facing != facing || c.radius != radius {
		c.tri = triangle(facing, radius)
		c.facing, c.radius, c.valid = facing, radius, true
	}
	return c.tri
}

func triangle(facing, radius float64) [3][2]float64 {
	base := [3][2]float64{
		{radius, 0},
		{-radius * 0.4, -radius * 0.6},
		{-radius * 0.4, radius * 0.6},
	}
	sin, cos := math.Sincos(math.Mod(facing, 2*math.Pi))
	var out [3][2]float64
	for i, p := range base {
		out[i] = [2]float64{p[0]*cos - p[1]*sin, p[0]*sin + p[1]*cos}
	}
	return out
}
