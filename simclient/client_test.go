package simclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"axview/entity"
	"axview/fixture"
	"axview/poll"
	"axview/simstate"
	"axview/tilemap"
)

func newFixture(t *testing.T, opts fixture.Options) (*fixture.Server, *Client) {
	t.Helper()
	fx := fixture.New(&simstate.State{
		Map: tilemap.Default(),
		Categories: map[entity.Kind]map[string]entity.Fields{
			entity.Units: {
				"u1": {X: 5, Y: 5, Size: 0.5, Owner: 1, HasOwner: true},
				"u2": {X: 9, Y: 9, Size: 0.5, Owner: 2, HasOwner: true},
			},
		},
	}, opts)
	srv := httptest.NewServer(fx)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/", WithTimeout(2*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	return fx, c
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, u := range []string{"localhost:8080", "ftp://x", "://"} {
		if _, err := New(u); err == nil {
			t.Errorf("New(%q) accepted", u)
		}
	}
}

func TestStateAndMapInfo(t *testing.T) {
	_, c := newFixture(t, fixture.Options{})
	ctx := context.Background()
	data, err := c.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	st, err := simstate.Decode(data)
	if err != nil || len(st.Categories[entity.Units]) != 2 {
		t.Fatalf("decoded %+v, %v", st, err)
	}
	mi, err := c.MapInfo(ctx)
	if err != nil || mi != (simstate.MapInfo{Width: 16, Height: 16}) {
		t.Fatalf("MapInfo = %+v, %v", mi, err)
	}
}

func TestCommands(t *testing.T) {
	fx, c := newFixture(t, fixture.Options{})
	ctx := context.Background()
	if err := c.Move(ctx, "u1", 5, 9); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if u, _ := fx.Unit("u1"); u.Velocity != fixture.MoveVelocity {
		t.Fatalf("unit not moving: %+v", u)
	}
	if err := c.Face(ctx, "u1", 1.25); err != nil {
		t.Fatalf("Face: %v", err)
	}
	if u, _ := fx.Unit("u1"); u.Facing != 1.25 {
		t.Fatalf("facing = %v", u.Facing)
	}
	if err := c.Damage(ctx, "u1", "u2"); err != nil {
		t.Fatalf("Damage: %v", err)
	}
	err := c.Move(ctx, "missing", 1, 1)
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("unknown unit err = %v, want ErrStatus", err)
	}
}

func TestStatusAndTransportErrors(t *testing.T) {
	fx, c := newFixture(t, fixture.Options{})
	fx.Fail(1)
	if _, err := c.State(context.Background()); !errors.Is(err, ErrStatus) {
		t.Fatalf("500 err = %v", err)
	}

	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()
	c2, _ := New(url)
	if _, err := c2.State(context.Background()); !errors.Is(err, poll.ErrTransport) {
		t.Fatalf("closed server err = %v", err)
	}
}

func TestPollerAgainstFixture(t *testing.T) {
	fx, c := newFixture(t, fixture.Options{OmitMap: true})
	w := poll.NewWorld()
	p := poll.New(c, w, time.Second)
	p.Logf = t.Logf
	ctx := context.Background()

	if _, err := p.Poll(ctx); err != nil {
		t.Fatalf("first poll: %v", err)
	}
	if !w.HasMap() || w.View().Counts[entity.Units] != 2 {
		t.Fatalf("world after first poll: %+v", w.View().Counts)
	}

	fx.Garble(1)
	if _, err := p.Poll(ctx); !errors.Is(err, simstate.ErrMalformed) {
		t.Fatalf("garbled poll err = %v", err)
	}
	fx.Fail(1)
	if _, err := p.Poll(ctx); !errors.Is(err, poll.ErrTransport) {
		t.Fatalf("failed poll err = %v", err)
	}
	if w.Version() != 1 {
		t.Fatalf("version = %d after failed polls, want 1", w.Version())
	}
	st := p.Stats()
	if st.OK != 1 || st.Malformed != 1 || st.TransportFailures != 1 {
		t.Fatalf("stats = %+v", st)
	}
}
