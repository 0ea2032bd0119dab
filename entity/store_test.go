package entity

import (
	"math"
	"reflect"
	"testing"
)

func unit(x, y, facing float64, owner int) Fields {
	return Fields{X: x, Y: y, Size: 1, Facing: facing, Owner: owner, HasOwner: true}
}

func TestReconcileScenario(t *testing.T) {
	s := NewStore()
	d := s.Reconcile(Units, map[string]Fields{"u1": unit(2, 2, 0, 1)})
	if d != (Diff{Added: 1}) {
		t.Fatalf("poll 1 diff = %+v", d)
	}
	d = s.Reconcile(Units, map[string]Fields{
		"u1": unit(3, 2, 0, 1),
		"u2": unit(5, 5, 1.57, 2),
	})
	if d != (Diff{Added: 1, Updated: 1}) {
		t.Fatalf("poll 2 diff = %+v", d)
	}
	if got := s.IDs(Units); !reflect.DeepEqual(got, []string{"u1", "u2"}) {
		t.Fatalf("ids = %v", got)
	}
	u1, _ := s.Get(Units, "u1")
	if u1.X != 3 {
		t.Fatalf("u1.x = %v, want 3", u1.X)
	}
	u2, _ := s.Get(Units, "u2")
	if math.Abs(u2.Facing-1.57) > 1e-9 {
		t.Fatalf("u2.facing = %v", u2.Facing)
	}
}

func TestReconcileSetDiff(t *testing.T) {
	s := NewStore()
	s.Reconcile(Units, map[string]Fields{
		"a": unit(1, 1, 0, 1),
		"b": unit(2, 2, 0, 1),
		"c": unit(3, 3, 0, 2),
	})
	before := map[string]*Cache{}
	for _, id := range s.IDs(Units) {
		r, _ := s.Get(Units, id)
		before[id] = r.Cache()
	}

	next := map[string]Fields{
		"b": {X: 9, Y: 8, Size: 0.5, Facing: 2, Tag: "warrior"},
		"c": unit(4, 4, 1, 2),
		"d": unit(7, 7, 0, 1),
	}
	d := s.Reconcile(Units, next)
	if d != (Diff{Added: 1, Updated: 2, Removed: 1}) {
		t.Fatalf("diff = %+v", d)
	}
	if got := s.IDs(Units); !reflect.DeepEqual(got, []string{"b", "c", "d"}) {
		t.Fatalf("ids = %v, want [b c d]", got)
	}
	for id, want := range next {
		r, ok := s.Get(Units, id)
		if !ok {
			t.Fatalf("%s missing", id)
		}
		if r.Fields != want {
			t.Errorf("%s fields = %+v, want %+v", id, r.Fields, want)
		}
		if r.ID != id || r.Kind != Units {
			t.Errorf("%s identity = %q/%v", id, r.ID, r.Kind)
		}
		if old, kept := before[id]; kept && r.Cache() != old {
			t.Errorf("%s lost its cache across update", id)
		}
		if r.Cache() == nil {
			t.Errorf("%s has no cache", id)
		}
	}
	// b had an owner before; the new payload has none and nothing stale
	// may survive.
	if b, _ := s.Get(Units, "b"); b.HasOwner || b.Owner != 0 {
		t.Fatalf("stale owner merged into b: %+v", b.Fields)
	}
	if _, ok := s.Get(Units, "a"); ok {
		t.Fatalf("a should have been removed")
	}
}

func TestReconcileKindsAreIndependent(t *testing.T) {
	s := NewStore()
	s.Reconcile(Objects, map[string]Fields{"1": {X: 1, Y: 1, Size: 1}})
	s.Reconcile(Units, map[string]Fields{"1": unit(5, 5, 0, 1)})
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}
	s.Reconcile(Units, map[string]Fields{})
	if s.LenKind(Objects) != 1 || s.LenKind(Units) != 0 {
		t.Fatalf("objects=%d units=%d", s.LenKind(Objects), s.LenKind(Units))
	}
	if got := s.Kinds(); !reflect.DeepEqual(got, []Kind{Objects, Units}) {
		t.Fatalf("kinds = %v", got)
	}
}

func TestRecordsAreCopies(t *testing.T) {
	s := NewStore()
	s.Reconcile(Entities, map[string]Fields{"123": {X: 1, Y: 2, Size: 1}})
	recs := s.Records()
	recs[0].X = 99
	if r, _ := s.Get(Entities, "123"); r.X != 1 {
		t.Fatalf("Records leaked internal record")
	}
}

func TestCacheTriangleMemoized(t *testing.T) {
	c := &Cache{}
	a := c.Triangle(0, 10)
	if a[0] != [2]float64{10, 0} {
		t.Fatalf("tip = %v, want (10,0)", a[0])
	}
	b := c.Triangle(math.Pi/2, 10)
	if math.Abs(b[0][0]) > 1e-9 || math.Abs(b[0][1]-10) > 1e-9 {
		t.Fatalf("rotated tip = %v, want (0,10)", b[0])
	}
	full := c.Triangle(math.Pi/2+2*math.Pi, 10)
	if math.Abs(full[0][0]-b[0][0]) > 1e-9 || math.Abs(full[0][1]-b[0][1]) > 1e-9 {
		t.Fatalf("facing not taken modulo a full turn: %v vs %v", full[0], b[0])
	}
	var nilCache *Cache
	if got := nilCache.Triangle(0, 10); got != a {
		t.Fatalf("nil cache triangle = %v", got)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range AllKinds {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v,%v", k.String(), got, ok)
		}
	}
	if _, ok := ParseKind("players"); ok {
		t.Fatalf("unexpected kind for players")
	}
}
