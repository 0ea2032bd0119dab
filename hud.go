package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/hajimehoshi/ebiten/v2"
	text "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"axview/entity"
	"axview/poll"
	"axview/viewport"
)

// staleAfter is how long without a good poll before the HUD calls the view
// stale.
const staleAfter = 3 * time.Second

var (
	shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")
	titleCaser    = cases.Title(language.AmericanEnglish)

	hudMu    sync.Mutex
	hudCache []string
)

func shortDuration(d time.Duration) string {
	if d < time.Millisecond {
		return "0s"
	}
	return durafmt.Parse(d).LimitFirstN(2).Format(shortUnits)
}

// hudLines describes the current view. It reads only its arguments so it
// can be rebuilt off the render path.
func hudLines(v poll.View, st poll.Stats, vp *viewport.Viewport, now time.Time) []string {
	var lines []string
	if v.Map == nil {
		lines = append(lines, "No map yet")
	} else {
		head := fmt.Sprintf("Map %dx%d", v.Map.Width(), v.Map.Height())
		if v.HasTick {
			head += "  tick " + humanize.Comma(int64(v.Tick))
		}
		if v.Paused {
			head += "  (paused)"
		}
		lines = append(lines, head)
	}

	var counts []string
	for _, k := range entity.AllKinds {
		n, ok := v.Counts[k]
		if !ok {
			continue
		}
		counts = append(counts, fmt.Sprintf("%s %s", titleCaser.String(k.String()), humanize.Comma(int64(n))))
	}
	if len(counts) > 0 {
		lines = append(lines, strings.Join(counts, "  "))
	}

	if vp != nil {
		lines = append(lines, fmt.Sprintf("Zoom %.2fx  tile %.0fpx  focus %.1f,%.1f",
			vp.Zoom(), vp.TileSize, vp.FocusX, vp.FocusY))
	}

	switch {
	case v.Updated.IsZero():
		lines = append(lines, "Waiting for first snapshot")
	case now.Sub(v.Updated) > staleAfter:
		lines = append(lines, "Stale: no update for "+shortDuration(now.Sub(v.Updated)))
	default:
		lines = append(lines, "Updated "+shortDuration(now.Sub(v.Updated))+" ago")
	}

	lines = append(lines, fmt.Sprintf("Polls %s ok, %s failed, %s malformed, %s skipped  recv %s",
		humanize.Comma(int64(st.OK)), humanize.Comma(int64(st.TransportFailures)),
		humanize.Comma(int64(st.Malformed)), humanize.Comma(int64(st.Skipped)),
		humanize.Bytes(uint64(st.Bytes))))
	if st.LastErr != "" {
		lines = append(lines, "Last error: "+st.LastErr)
	}
	return lines
}

func setHUD(lines []string) {
	hudMu.Lock()
	hudCache = lines
	hudMu.Unlock()
}

func currentHUD() []string {
	hudMu.Lock()
	defer hudMu.Unlock()
	return hudCache
}

const (
	hudPad     = 6
	hudSpacing = 2
	hudMaxW    = 420
)

// drawHUD renders lines in a translucent box at the top left.
func drawHUD(screen *ebiten.Image, lines []string, p palette) {
	if len(lines) == 0 {
		return
	}
	var wrapped []string
	for _, l := range lines {
		wrapped = append(wrapped, wrapText(l, hudFace, hudMaxW)...)
	}
	lineH := hudFontSize + hudSpacing
	w := 0.0
	for _, l := range wrapped {
		if lw, _ := text.Measure(l, hudFace, 0); lw > w {
			w = lw
		}
	}
	h := float64(len(wrapped)*lineH) + 2*hudPad
	vector.DrawFilledRect(screen, 0, 0, float32(w+2*hudPad), float32(h), p.hudBack, false)

	for i, l := range wrapped {
		op := &text.DrawOptions{}
		op.GeoM.Translate(hudPad, float64(hudPad+i*lineH))
		op.ColorScale.ScaleWithColor(p.text)
		text.Draw(screen, l, hudFace, op)
	}
}

// drawMessages stacks the live transient messages above the bottom edge.
func drawMessages(screen *ebiten.Image, p palette) {
	msgs := getMessages()
	if len(msgs) == 0 {
		return
	}
	sh := screen.Bounds().Dy()
	lineH := hudFontSize + hudSpacing
	y := sh - hudPad - len(msgs)*lineH
	for _, m := range msgs {
		w, _ := text.Measure(m, hudFace, 0)
		vector.DrawFilledRect(screen, hudPad-2, float32(y-1), float32(w+4), float32(lineH), p.hudBack, false)
		op := &text.DrawOptions{}
		op.GeoM.Translate(hudPad, float64(y))
		op.ColorScale.ScaleWithColor(p.text)
		text.Draw(screen, m, hudFace, op)
		y += lineH
	}
}
