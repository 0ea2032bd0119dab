package fixture

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"axview/entity"
	"axview/simstate"
	"axview/tilemap"
)

func testState() *simstate.State {
	return &simstate.State{
		Map: tilemap.Default(),
		Categories: map[entity.Kind]map[string]entity.Fields{
			entity.Units: {
				"a": {X: 5, Y: 5, Size: 0.5, Owner: 1, HasOwner: true},
				"b": {X: 8, Y: 8, Size: 0.5, Owner: 2, HasOwner: true},
			},
			entity.Objects: {"t": {X: 6, Y: 6, Size: 1, Tag: "tree"}},
		},
	}
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestStateRoundTrip(t *testing.T) {
	s := New(testState(), Options{})
	rec := do(t, s, http.MethodGet, "/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	st, err := simstate.Decode(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("decode: %v\n%s", err, rec.Body.String())
	}
	if st.Map == nil || st.Map.Width() != 16 || len(st.Categories[entity.Units]) != 2 {
		t.Fatalf("state = %+v", st)
	}
	if got := st.Categories[entity.Objects]["t"].Tag; got != "tree" {
		t.Fatalf("object tag = %q", got)
	}
}

func TestOmitMap(t *testing.T) {
	s := New(testState(), Options{OmitMap: true})
	st, err := simstate.Decode(do(t, s, http.MethodGet, "/state", "").Body.Bytes())
	if err != nil || st.Map != nil {
		t.Fatalf("state map = %v, err %v", st, err)
	}
	mi, err := simstate.DecodeMapInfo(do(t, s, http.MethodGet, "/map", "").Body.Bytes())
	if err != nil || mi.Width != 16 {
		t.Fatalf("map info = %+v, %v", mi, err)
	}
}

func TestInjectedFailures(t *testing.T) {
	s := New(testState(), Options{})
	s.Fail(1)
	s.Garble(1)
	if rec := do(t, s, http.MethodGet, "/state", ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("first status %d, want 500", rec.Code)
	}
	rec := do(t, s, http.MethodGet, "/state", "")
	if _, err := simstate.Decode(rec.Body.Bytes()); err == nil {
		t.Fatalf("garbled body decoded: %s", rec.Body.String())
	}
	if rec := do(t, s, http.MethodGet, "/state", ""); rec.Code != http.StatusOK {
		t.Fatalf("third status %d, want 200", rec.Code)
	}
}

func TestMoveAndTick(t *testing.T) {
	s := New(testState(), Options{})
	if rec := do(t, s, http.MethodPost, "/unit/move", `{"unit_id":"a","x":9,"y":5}`); rec.Code != http.StatusNoContent {
		t.Fatalf("move status %d: %s", rec.Code, rec.Body.String())
	}
	u, _ := s.Unit("a")
	if u.Facing != 0 || u.Velocity != MoveVelocity {
		t.Fatalf("after move: %+v", u)
	}
	s.Tick()
	u, _ = s.Unit("a")
	if math.Abs(u.X-(5+MoveVelocity)) > 1e-9 || s.TickCount() != 1 {
		t.Fatalf("after tick: %+v tick %d", u, s.TickCount())
	}
}

func TestTickStopsAtWater(t *testing.T) {
	st := testState()
	st.Categories[entity.Units]["a"] = entity.Fields{X: 1.5, Y: 7.2, Size: 0.5, Facing: math.Pi, Velocity: 1, HasVelocity: true, HasOwner: true, Owner: 1}
	s := New(st, Options{})
	s.Tick()
	u, _ := s.Unit("a")
	if u.Velocity != 0 || u.X != 1.5 {
		t.Fatalf("unit walked into water: %+v", u)
	}
}

func TestCommandErrors(t *testing.T) {
	s := New(testState(), Options{})
	cases := []struct {
		path, body string
		code       int
	}{
		{"/unit/move", `{"unit_id":"zz","x":1,"y":1}`, http.StatusNotFound},
		{"/unit/move", `{"unit_id":`, http.StatusBadRequest},
		{"/unit/facing", `{"unit_id":"zz","facing":1}`, http.StatusNotFound},
		{"/unit/damage", `{"unit_id":"a","target_id":"zz"}`, http.StatusNotFound},
		{"/unit/damage", `nope`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := do(t, s, http.MethodPost, tc.path, tc.body)
		if rec.Code != tc.code {
			t.Errorf("%s %s = %d, want %d", tc.path, tc.body, rec.Code, tc.code)
		}
		var e apiError
		if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil || e.Error == "" {
			t.Errorf("%s: error body %q", tc.path, rec.Body.String())
		}
	}
}

func TestDamageLifesteal(t *testing.T) {
	s := New(testState(), Options{})
	if rec := do(t, s, http.MethodPost, "/unit/damage", `{"unit_id":"a","target_id":"b"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("status %d", rec.Code)
	}
	a, _ := s.HP("a")
	b, _ := s.HP("b")
	if a != startHP+1 || b != startHP-2 {
		t.Fatalf("hp a=%d b=%d", a, b)
	}
}

func TestHealthAndSchema(t *testing.T) {
	s := New(nil, Options{})
	if rec := do(t, s, http.MethodGet, "/health", ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("health = %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, s, http.MethodGet, "/schema", ""); !strings.Contains(rec.Body.String(), "axview simulation state") {
		t.Fatalf("schema = %s", rec.Body.String())
	}
}
