package main

import (
	"testing"

	"axview/entity"
	"axview/tilemap"
)

func TestInitialStateSynthetic(t *testing.T) {
	st, err := initialState("", 4, 15, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Categories[entity.Entities]) != 15 || len(st.Categories[entity.Units]) != 4 {
		t.Fatalf("categories = %d entities, %d units", len(st.Categories[entity.Entities]), len(st.Categories[entity.Units]))
	}
	owners := map[int]int{}
	for id, u := range st.Categories[entity.Units] {
		if !u.HasOwner {
			t.Fatalf("unit %s has no owner", id)
		}
		if c, _ := st.Map.Tile(int(u.X), int(u.Y)); c != tilemap.Land {
			t.Fatalf("unit %s on %v", id, c)
		}
		owners[u.Owner]++
	}
	if owners[1] != 2 || owners[2] != 2 {
		t.Fatalf("owners = %v", owners)
	}
}

func TestInitialStateMissingFile(t *testing.T) {
	if _, err := initialState("does-not-exist.json", 0, 0, 1); err == nil {
		t.Fatalf("expected error")
	}
}
