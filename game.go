package main

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.org/x/time/rate"

	"axview/poll"
	"axview/tilemap"
	"axview/viewport"
)

// wheelZoomInterval limits wheel zoom to one step per interval; trackpads
// report many small wheel events per gesture.
const wheelZoomInterval = 60 * time.Millisecond

// playback controls a recorded source.
type playback interface {
	Rewind()
	TogglePause() bool
	Step()
}

// Game is the viewer window. The viewport belongs to the render goroutine;
// the poll goroutine only ever touches the world.
type Game struct {
	ctx    context.Context
	cfg    sessionConfig
	world  *poll.World
	poller *poll.Poller
	// playback is set when the source is a recording.
	playback playback

	vp      *viewport.Viewport
	lastMap *tilemap.Map
	camera  atomic.Pointer[viewport.Viewport]

	zoomLimiter *rate.Limiter
	dragging    bool
	dragX       int
	dragY       int
}

func newGame(ctx context.Context, cfg sessionConfig, w *poll.World, p *poll.Poller) *Game {
	return &Game{
		ctx:         ctx,
		cfg:         cfg,
		world:       w,
		poller:      p,
		zoomLimiter: rate.NewLimiter(rate.Every(wheelZoomInterval), 1),
	}
}

// syncMap creates the viewport for the first map and recenters it when the
// map's dimensions change.
func (g *Game) syncMap(m *tilemap.Map) error {
	if m == g.lastMap {
		return nil
	}
	if g.vp == nil {
		vp, err := viewport.New(g.cfg.View, m.Width(), m.Height())
		if err != nil {
			return err
		}
		g.vp = vp
		logDebug("viewport created for %dx%d map", m.Width(), m.Height())
	} else if !m.SameGeometry(g.lastMap) {
		g.vp.Center(m.Width(), m.Height())
		addMessage("Map changed size, view recentered")
	}
	g.lastMap = m
	return nil
}

// cameraSnapshot is the latest viewport as seen by the render goroutine,
// safe to read from other goroutines.
func (g *Game) cameraSnapshot() *viewport.Viewport {
	return g.camera.Load()
}

func (g *Game) Update() error {
	select {
	case <-g.ctx.Done():
		return ebiten.Termination
	default:
	}

	g.handleToggles()
	g.handlePlayback()

	m := g.world.Map()
	if m == nil {
		maybeSaveSettings()
		return nil
	}
	if err := g.syncMap(m); err != nil {
		logError("viewport: %v", err)
		return err
	}

	g.handleCamera(m)
	g.vp.ClampToMap(m.Width(), m.Height())

	snap := *g.vp
	g.camera.Store(&snap)

	maybeSaveSettings()
	return nil
}

func (g *Game) handleToggles() {
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		gs.ShowGrid = !gs.ShowGrid
		markSettingsDirty()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		gs.ShowHUD = !gs.ShowHUD
		markSettingsDirty()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		gs.ShowMinimap = !gs.ShowMinimap
		markSettingsDirty()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyT) {
		if theme.name == darkPalette.name {
			theme = lightPalette
		} else {
			theme = darkPalette
		}
		gs.Theme = theme.name
		markSettingsDirty()
		clearCaches()
	}
}

// handlePlayback covers forced refresh and, for recordings, pause and
// single stepping.
func (g *Game) handlePlayback() {
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.refresh(true)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		if g.playback == nil {
			addMessage("Pause needs a recording (-file)")
		} else if g.playback.TogglePause() {
			addMessage("Playback paused")
		} else {
			addMessage("Playback resumed")
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) && g.playback != nil {
		g.playback.Step()
		g.refresh(false)
	}
}

func (g *Game) handleCamera(m *tilemap.Map) {
	if dx, dy := panStep(pressedPanKeys(), g.cfg.PanSpeed, float64(ebiten.TPS())); dx != 0 || dy != 0 {
		g.vp.Pan(dx, dy)
	}

	if _, wy := ebiten.Wheel(); wy != 0 && g.zoomLimiter.Allow() {
		mx, my := ebiten.CursorPosition()
		g.vp.ZoomAt(float64(mx), float64(my), wy > 0)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyKPAdd) {
		g.vp.ZoomIn()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract) {
		g.vp.ZoomOut()
	}

	mx, my := ebiten.CursorPosition()
	mini := placeMinimap(g.cfg.View.ScreenWidth, g.cfg.View.ScreenHeight, m.Width(), m.Height())
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && gs.ShowMinimap && mini.contains(float64(mx), float64(my)):
		g.vp.CenterOn(mini.toTile(float64(mx), float64(my)))
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		g.dragging, g.dragX, g.dragY = true, mx, my
	case g.dragging && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		g.vp.Drag(float64(mx-g.dragX), float64(my-g.dragY))
		g.dragX, g.dragY = mx, my
	default:
		g.dragging = false
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyHome) {
		g.vp.Center(m.Width(), m.Height())
	}
}

type panKeys struct {
	left, right, up, down bool
}

func pressedPanKeys() panKeys {
	return panKeys{
		left:  ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft),
		right: ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight),
		up:    ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp),
		down:  ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown),
	}
}

// panStep converts held keys into a per-tick focus delta in tiles, given a
// speed in tiles per second.
func panStep(k panKeys, speed, tps float64) (dx, dy float64) {
	if tps <= 0 {
		return 0, 0
	}
	step := speed / tps
	if k.left {
		dx -= step
	}
	if k.right {
		dx += step
	}
	if k.up {
		dy -= step
	}
	if k.down {
		dy += step
	}
	return dx, dy
}

// refresh runs a poll right away without blocking the frame. With rewind a
// recording restarts from its first frame.
func (g *Game) refresh(rewind bool) {
	go func() {
		if rewind && g.playback != nil {
			g.playback.Rewind()
		}
		c, err := g.poller.Poll(g.ctx)
		switch {
		case errors.Is(err, poll.ErrBusy):
			addMessage("Refresh already in progress")
		case err == nil && rewind:
			addMessage("Refreshed")
			logDebug("forced refresh: %s", describeCommit(c))
		}
	}()
}

func (g *Game) Draw(screen *ebiten.Image) {
	p := theme
	screen.Fill(p.background)

	v := g.world.View()
	if v.Map == nil || g.vp == nil {
		drawSplash(screen, g.cfg, g.poller.Stats(), p)
		drawMessages(screen, p)
		return
	}
	drawMap(screen, v.Map, g.vp, p, gridVisible(gs.ShowGrid, g.vp.TileSize, g.cfg.GridMinTileSize))
	drawRecords(screen, v.Records, g.vp, p)
	if gs.ShowMinimap {
		drawMinimap(screen, v.Map, v.Records, g.vp, p)
	}
	if gs.ShowHUD {
		drawHUD(screen, currentHUD(), p)
	}
	drawMessages(screen, p)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.cfg.View.ScreenWidth, g.cfg.View.ScreenHeight
}

func runGame(g *Game) {
	ebiten.SetWindowTitle("axview")
	ebiten.SetWindowSize(g.cfg.View.ScreenWidth, g.cfg.View.ScreenHeight)
	ebiten.SetTPS(g.cfg.FPS)

	op := &ebiten.RunGameOptions{ScreenTransparent: false}
	if err := ebiten.RunGameWithOptions(g, op); err != nil {
		logError("ebiten: %v", err)
	}
	saveSettings()
}
