package main

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"axview/entity"
	"axview/tilemap"
	"axview/viewport"
)

const (
	minimapSize   = 120
	minimapMargin = 10
	minimapDot    = 1.5
)

// minimapRect is where the minimap sits on screen. The map is fitted inside
// a minimapSize square keeping its aspect ratio.
type minimapRect struct {
	X, Y, W, H float64
	scale      float64 // pixels per tile
}

// placeMinimap anchors the minimap at the bottom right of a screenW x
// screenH screen for a mapW x mapH map.
func placeMinimap(screenW, screenH, mapW, mapH int) minimapRect {
	scale := float64(minimapSize) / float64(max(mapW, mapH, 1))
	w, h := float64(mapW)*scale, float64(mapH)*scale
	return minimapRect{
		X:     float64(screenW) - minimapMargin - w,
		Y:     float64(screenH) - minimapMargin - h,
		W:     w,
		H:     h,
		scale: scale,
	}
}

func (r minimapRect) contains(sx, sy float64) bool {
	return sx >= r.X && sx < r.X+r.W && sy >= r.Y && sy < r.Y+r.H
}

// toTile converts a point on the minimap to tile coordinates.
func (r minimapRect) toTile(sx, sy float64) (float64, float64) {
	return (sx - r.X) / r.scale, (sy - r.Y) / r.scale
}

func (r minimapRect) toMinimap(tx, ty float64) (float64, float64) {
	return r.X + tx*r.scale, r.Y + ty*r.scale
}

// viewBox is the part of the minimap the main view shows, cut to the
// minimap's bounds.
func (r minimapRect) viewBox(vp *viewport.Viewport) (x, y, w, h float64) {
	sw, sh := vp.ScreenSize()
	tx0, ty0 := vp.ScreenToTile(0, 0)
	tx1, ty1 := vp.ScreenToTile(float64(sw), float64(sh))
	x0, y0 := r.toMinimap(tx0, ty0)
	x1, y1 := r.toMinimap(tx1, ty1)
	x0, y0 = max(x0, r.X), max(y0, r.Y)
	x1, y1 = min(x1, r.X+r.W), min(y1, r.Y+r.H)
	return x0, y0, max(x1-x0, 0), max(y1-y0, 0)
}

// minimapColor picks the dot color for a record. Projectiles and entities
// are left off the minimap.
func minimapColor(rec entity.Record, p palette) (color.RGBA, bool) {
	switch rec.Kind {
	case entity.Units, entity.Objects:
		return recordColor(rec, p), true
	}
	return color.RGBA{}, false
}

// drawMinimap shows the whole map with objects, units in owner colors and
// the current view outlined.
func drawMinimap(screen *ebiten.Image, m *tilemap.Map, recs []entity.Record, vp *viewport.Viewport, p palette) {
	sw, sh := vp.ScreenSize()
	r := placeMinimap(sw, sh, m.Width(), m.Height())

	vector.DrawFilledRect(screen, float32(r.X-2), float32(r.Y-2), float32(r.W+4), float32(r.H+4), p.hudBack, false)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(r.scale, r.scale)
	op.GeoM.Translate(r.X, r.Y)
	op.Filter = ebiten.FilterNearest
	screen.DrawImage(terrain.image(m, p), op)

	for _, rec := range recs {
		col, ok := minimapColor(rec, p)
		if !ok {
			continue
		}
		x, y := r.toMinimap(rec.X, rec.Y)
		if !r.contains(x, y) {
			continue
		}
		vector.DrawFilledCircle(screen, float32(x), float32(y), minimapDot, col, false)
	}

	x, y, w, h := r.viewBox(vp)
	if w > 0 && h > 0 {
		vector.StrokeRect(screen, float32(x), float32(y), float32(w), float32(h), 1, p.text, false)
	}
}
