package main

import (
	"strings"
	"testing"
	"time"

	"axview/entity"
	"axview/poll"
	"axview/simstate"
	"axview/tilemap"
	"axview/viewport"
)

func committedView(t *testing.T) poll.View {
	t.Helper()
	w := poll.NewWorld()
	st := &simstate.State{
		Map: tilemap.Default(),
		Categories: map[entity.Kind]map[string]entity.Fields{
			entity.Units: {
				"a": {X: 1, Y: 1, Size: 1, Owner: 1, HasOwner: true},
				"b": {X: 2, Y: 2, Size: 1, Owner: 2, HasOwner: true},
			},
			entity.Objects: {},
		},
		Tick:      1234,
		HasTick:   true,
		Paused:    true,
		HasPaused: true,
	}
	if _, err := w.Commit(st); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return w.View()
}

func TestHUDLines(t *testing.T) {
	v := committedView(t)
	vp, err := viewport.New(viewport.DefaultConfig(), 16, 16)
	if err != nil {
		t.Fatalf("viewport: %v", err)
	}
	st := poll.Stats{OK: 3, TransportFailures: 1, Bytes: 2000, LastErr: "poll: boom"}
	got := strings.Join(hudLines(v, st, vp, v.Updated.Add(200*time.Millisecond)), "\n")
	for _, want := range []string{
		"Map 16x16",
		"tick 1,234",
		"(paused)",
		"Objects 0",
		"Units 2",
		"Zoom 1.00x",
		"ago",
		"Polls 3 ok, 1 failed, 0 malformed, 0 skipped",
		"recv 2.0 kB",
		"Last error: poll: boom",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("HUD missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Projectiles") {
		t.Errorf("HUD lists a category never received:\n%s", got)
	}
}

func TestHUDLinesStale(t *testing.T) {
	v := committedView(t)
	got := strings.Join(hudLines(v, poll.Stats{}, nil, v.Updated.Add(10*time.Second)), "\n")
	if !strings.Contains(got, "Stale") {
		t.Fatalf("expected stale notice:\n%s", got)
	}
	if strings.Contains(got, "Zoom") {
		t.Fatalf("zoom line without a viewport:\n%s", got)
	}
}

func TestHUDLinesNoMap(t *testing.T) {
	got := strings.Join(hudLines(poll.View{}, poll.Stats{}, nil, time.Now()), "\n")
	if !strings.Contains(got, "No map yet") || !strings.Contains(got, "Waiting for first snapshot") {
		t.Fatalf("unexpected HUD:\n%s", got)
	}
}

func TestPresenceText(t *testing.T) {
	state, details := presenceText(committedView(t))
	if state != "2 units, paused" || details != "Watching a 16x16 map" {
		t.Fatalf("presence = %q / %q", state, details)
	}
	if _, details := presenceText(poll.View{}); details != "Waiting for a simulation" {
		t.Fatalf("presence without map = %q", details)
	}
}

func TestSplashLines(t *testing.T) {
	cfg := sessionConfig{Source: sourceHTTP, ServerURL: "http://sim:8080"}
	lines := splashLines(cfg, poll.Stats{TransportFailures: 2, LastErr: "poll: refused"})
	got := strings.Join(lines, "\n")
	for _, want := range []string{"Waiting for http://sim:8080", "2 failed attempts", "poll: refused"} {
		if !strings.Contains(got, want) {
			t.Errorf("splash missing %q:\n%s", want, got)
		}
	}
	if lines := splashLines(sessionConfig{Source: sourceFile, File: "run.json"}, poll.Stats{}); lines[1] != "Loading run.json" {
		t.Errorf("file splash = %#v", lines)
	}
}
