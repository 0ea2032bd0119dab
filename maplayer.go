package main

import (
	"github.com/hajimehoshi/ebiten/v2"

	"axview/tilemap"
)

// mapLayer caches the terrain as an image with one pixel per tile. It is
// rebuilt only when the map content or the palette changes.
type mapLayer struct {
	fp      [32]byte
	palette string
	img     *ebiten.Image
}

var terrain mapLayer

// tilePixels returns the RGBA bytes of m with one pixel per tile.
func tilePixels(m *tilemap.Map, p palette) []byte {
	w, h := m.Width(), m.Height()
	pix := make([]byte, 4*w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c, _ := m.Tile(x, y)
			col := p.tileColor(c)
			i := 4 * (y*w + x)
			pix[i], pix[i+1], pix[i+2], pix[i+3] = col.R, col.G, col.B, col.A
		}
	}
	return pix
}

func (l *mapLayer) image(m *tilemap.Map, p palette) *ebiten.Image {
	fp := m.Fingerprint()
	if l.img != nil && l.fp == fp && l.palette == p.name {
		return l.img
	}
	if l.img != nil {
		l.img.Deallocate()
	}
	img := ebiten.NewImage(m.Width(), m.Height())
	img.WritePixels(tilePixels(m, p))
	l.img, l.fp, l.palette = img, fp, p.name
	logDebug("map layer rebuilt %dx%d", m.Width(), m.Height())
	return img
}

func (l *mapLayer) reset() {
	if l.img != nil {
		l.img.Deallocate()
	}
	*l = mapLayer{}
}
