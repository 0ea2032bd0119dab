package main

import (
	"testing"

	"axview/entity"
	"axview/viewport"
)

func TestClipRange(t *testing.T) {
	cases := []struct {
		name string
		in   viewport.Range
		want viewport.Range
		ok   bool
	}{
		{"inside", viewport.Range{X0: 2, Y0: 3, X1: 5, Y1: 6}, viewport.Range{X0: 2, Y0: 3, X1: 5, Y1: 6}, true},
		{"overhang", viewport.Range{X0: -1, Y0: -1, X1: 20, Y1: 20}, viewport.Range{X0: 0, Y0: 0, X1: 10, Y1: 8}, true},
		{"left of map", viewport.Range{X0: -5, Y0: 0, X1: 0, Y1: 4}, viewport.Range{X0: 0, Y0: 0, X1: 0, Y1: 4}, false},
		{"below map", viewport.Range{X0: 0, Y0: 8, X1: 4, Y1: 12}, viewport.Range{X0: 0, Y0: 8, X1: 4, Y1: 8}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := clipRange(c.in, 10, 8)
			if ok != c.ok || (ok && got != c.want) {
				t.Fatalf("clipRange(%+v) = %+v, %v; want %+v, %v", c.in, got, ok, c.want, c.ok)
			}
		})
	}
}

func TestGridVisible(t *testing.T) {
	if gridVisible(true, 16, 24) {
		t.Fatalf("grid shown below threshold")
	}
	if !gridVisible(true, 24, 24) {
		t.Fatalf("grid hidden at threshold")
	}
	if gridVisible(false, 64, 24) {
		t.Fatalf("grid shown while disabled")
	}
}

func TestRecordRadius(t *testing.T) {
	unit := entity.Record{Kind: entity.Units, Fields: entity.Fields{Size: 1}}
	if r := recordRadius(unit, 32); r != 16 {
		t.Fatalf("unit radius = %v, want 16", r)
	}
	shot := entity.Record{Kind: entity.Projectiles, Fields: entity.Fields{Size: 1}}
	if r := recordRadius(shot, 32); r != 8 {
		t.Fatalf("projectile radius = %v, want 8", r)
	}
	tiny := entity.Record{Kind: entity.Objects, Fields: entity.Fields{Size: 0.01}}
	if r := recordRadius(tiny, 8); r != minRecordRadius {
		t.Fatalf("tiny radius = %v, want %v", r, minRecordRadius)
	}
}

func TestRecordColor(t *testing.T) {
	p := darkPalette
	cases := []struct {
		rec  entity.Record
		want string
	}{
		{entity.Record{Kind: entity.Units, Fields: entity.Fields{Owner: 1, HasOwner: true}}, "faction1"},
		{entity.Record{Kind: entity.Units, Fields: entity.Fields{Owner: 2, HasOwner: true}}, "faction2"},
		{entity.Record{Kind: entity.Units, Fields: entity.Fields{Owner: 7, HasOwner: true}}, "neutral"},
		{entity.Record{Kind: entity.Units}, "neutral"},
		{entity.Record{Kind: entity.Objects, Fields: entity.Fields{Tag: "tree"}}, "tree"},
		{entity.Record{Kind: entity.Objects, Fields: entity.Fields{Tag: "rock"}}, "object"},
		{entity.Record{Kind: entity.Projectiles}, "projectile"},
		{entity.Record{Kind: entity.Entities}, "entity"},
	}
	named := map[string]any{
		"faction1":   p.factions[0],
		"faction2":   p.factions[1],
		"neutral":    p.neutral,
		"tree":       p.tree,
		"object":     p.object,
		"projectile": p.projectile,
		"entity":     p.entity,
	}
	for _, c := range cases {
		if got := recordColor(c.rec, p); got != named[c.want] {
			t.Errorf("recordColor(%v %+v) = %v, want %s", c.rec.Kind, c.rec.Fields, got, c.want)
		}
	}
}

func TestPanStep(t *testing.T) {
	dx, dy := panStep(panKeys{right: true, up: true}, 12, 60)
	if dx != 0.2 || dy != -0.2 {
		t.Fatalf("panStep = %v, %v; want 0.2, -0.2", dx, dy)
	}
	if dx, dy := panStep(panKeys{left: true, right: true}, 12, 60); dx != 0 || dy != 0 {
		t.Fatalf("opposite keys moved: %v, %v", dx, dy)
	}
	if dx, dy := panStep(panKeys{left: true}, 12, 0); dx != 0 || dy != 0 {
		t.Fatalf("zero tps moved: %v, %v", dx, dy)
	}
}
