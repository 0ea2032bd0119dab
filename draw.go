package main

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"axview/entity"
	"axview/tilemap"
	"axview/viewport"
)

const (
	minRecordRadius = 2
	projectileScale = 0.5
	facingLineScale = 1.5
	facingLineWidth = 2
	gridLineWidth   = 1
)

var whiteSubImage *ebiten.Image

func solidSource() *ebiten.Image {
	if whiteSubImage == nil {
		white := ebiten.NewImage(3, 3)
		white.Fill(color.White)
		whiteSubImage = white.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	}
	return whiteSubImage
}

// clipRange limits r to the tiles that exist in a w x h map. ok is false
// when nothing of the map is inside r.
func clipRange(r viewport.Range, w, h int) (viewport.Range, bool) {
	c := viewport.Range{
		X0: max(r.X0, 0),
		Y0: max(r.Y0, 0),
		X1: min(r.X1, w),
		Y1: min(r.Y1, h),
	}
	return c, c.X0 < c.X1 && c.Y0 < c.Y1
}

// gridVisible reports whether grid lines are worth drawing at tileSize.
func gridVisible(show bool, tileSize, minTileSize float64) bool {
	return show && tileSize >= minTileSize
}

// drawMap draws the part of the map inside the visible tile window. Tiles
// outside the map are left as background.
func drawMap(screen *ebiten.Image, m *tilemap.Map, vp *viewport.Viewport, p palette, grid bool) {
	r, ok := clipRange(vp.VisibleRange(), m.Width(), m.Height())
	if !ok {
		return
	}
	layer := terrain.image(m, p)
	sub := layer.SubImage(image.Rect(r.X0, r.Y0, r.X1, r.Y1)).(*ebiten.Image)

	sx, sy := vp.TileToScreen(float64(r.X0), float64(r.Y0))
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(vp.TileSize, vp.TileSize)
	op.GeoM.Translate(sx, sy)
	op.Filter = ebiten.FilterNearest
	screen.DrawImage(sub, op)

	if !grid {
		return
	}
	x0, y0 := float32(sx), float32(sy)
	ex, ey := vp.TileToScreen(float64(r.X1), float64(r.Y1))
	x1, y1 := float32(ex), float32(ey)
	for x := r.X0; x <= r.X1; x++ {
		lx, _ := vp.TileToScreen(float64(x), 0)
		vector.StrokeLine(screen, float32(lx), y0, float32(lx), y1, gridLineWidth, p.grid, false)
	}
	for y := r.Y0; y <= r.Y1; y++ {
		_, ly := vp.TileToScreen(0, float64(y))
		vector.StrokeLine(screen, x0, float32(ly), x1, float32(ly), gridLineWidth, p.grid, false)
	}
}

// recordRadius is the on-screen radius of a record in pixels.
func recordRadius(rec entity.Record, tileSize float64) float64 {
	r := rec.Size * tileSize / 2
	if rec.Kind == entity.Projectiles {
		r *= projectileScale
	}
	return math.Max(r, minRecordRadius)
}

func recordColor(rec entity.Record, p palette) color.RGBA {
	switch rec.Kind {
	case entity.Units:
		return p.ownerColor(rec.Owner)
	case entity.Projectiles:
		return p.projectile
	case entity.Entities:
		return p.entity
	}
	if rec.Tag == "tree" {
		return p.tree
	}
	return p.object
}

// drawRecords draws every record that touches the screen. recs must be in
// back-to-front order.
func drawRecords(screen *ebiten.Image, recs []entity.Record, vp *viewport.Viewport, p palette) int {
	drawn := 0
	for _, rec := range recs {
		if drawRecord(screen, rec, vp, p) {
			drawn++
		}
	}
	return drawn
}

// drawRecord renders one record at its position under vp and reports
// whether it was on screen.
func drawRecord(screen *ebiten.Image, rec entity.Record, vp *viewport.Viewport, p palette) bool {
	sx, sy := vp.TileToScreen(rec.X, rec.Y)
	r := recordRadius(rec, vp.TileSize)
	reach := r
	if rec.Kind == entity.Units {
		reach = r * facingLineScale
	}
	if !vp.OnScreen(sx, sy, reach) {
		return false
	}
	col := recordColor(rec, p)

	switch rec.Kind {
	case entity.Units:
		vector.DrawFilledCircle(screen, float32(sx), float32(sy), float32(r), col, true)
		dy, dx := math.Sincos(rec.Facing)
		vector.StrokeLine(screen, float32(sx), float32(sy),
			float32(sx+dx*r*facingLineScale), float32(sy+dy*r*facingLineScale),
			facingLineWidth, p.facing, true)
	case entity.Entities:
		tri := rec.Cache().Triangle(rec.Facing, r)
		fillTriangle(screen, sx, sy, tri, col)
	default:
		vector.DrawFilledCircle(screen, float32(sx), float32(sy), float32(r), col, true)
	}
	return true
}

func fillTriangle(screen *ebiten.Image, cx, cy float64, tri [3][2]float64, col color.RGBA) {
	var path vector.Path
	path.MoveTo(float32(cx+tri[0][0]), float32(cy+tri[0][1]))
	path.LineTo(float32(cx+tri[1][0]), float32(cy+tri[1][1]))
	path.LineTo(float32(cx+tri[2][0]), float32(cy+tri[2][1]))
	path.Close()

	vertices, indices := path.AppendVerticesAndIndicesForFilling(nil, nil)
	for i := range vertices {
		vertices[i].SrcX = 1
		vertices[i].SrcY = 1
		vertices[i].ColorR = float32(col.R) / 255
		vertices[i].ColorG = float32(col.G) / 255
		vertices[i].ColorB = float32(col.B) / 255
		vertices[i].ColorA = float32(col.A) / 255
	}
	op := &ebiten.DrawTrianglesOptions{FillRule: ebiten.FillRuleNonZero, AntiAlias: true}
	screen.DrawTriangles(vertices, indices, solidSource(), op)
}
