package main

import (
	"context"
	"time"
)

// presenceEvery is how many HUD refreshes pass between presence updates.
const presenceEvery = 15

// startBackground refreshes the HUD once per second and keeps the Discord
// presence current, off the render goroutine.
func startBackground(ctx context.Context, g *Game) {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for n := 0; ; n++ {
			var now time.Time
			select {
			case <-ctx.Done():
				return
			case now = <-ticker.C:
			}
			v := g.world.View()
			setHUD(hudLines(v, g.poller.Stats(), g.cameraSnapshot(), now))
			if n%presenceEvery == 0 {
				updateDiscordPresence(v)
			}
		}
	}()
}
