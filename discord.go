package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	client "github.com/hugolgst/rich-go/client"

	"axview/entity"
	"axview/poll"
)

const discordAppEnv = "AXVIEW_DISCORD_APP"

var (
	discordActive atomic.Bool
	discordMu     sync.Mutex
	discordStart  time.Time
	discordLast   string
)

func initDiscordRPC(ctx context.Context, appID string) {
	if appID == "" {
		logDebug("discord presence enabled but %s is not set", discordAppEnv)
		return
	}
	if err := client.Login(appID); err != nil {
		logError("discord rpc login: %v", err)
		return
	}
	discordMu.Lock()
	discordStart = time.Now()
	discordLast = ""
	discordMu.Unlock()
	discordActive.Store(true)
	go func() {
		<-ctx.Done()
		discordActive.Store(false)
		client.Logout()
	}()
}

// presenceText summarizes a view for the presence card.
func presenceText(v poll.View) (state, details string) {
	if v.Map == nil {
		return "axview", "Waiting for a simulation"
	}
	details = fmt.Sprintf("Watching a %dx%d map", v.Map.Width(), v.Map.Height())
	state = fmt.Sprintf("%d units", v.Counts[entity.Units])
	if v.Paused {
		state += ", paused"
	}
	return state, details
}

func updateDiscordPresence(v poll.View) {
	if !discordActive.Load() {
		return
	}
	state, details := presenceText(v)
	discordMu.Lock()
	defer discordMu.Unlock()
	if state+"\n"+details == discordLast {
		return
	}
	start := discordStart
	if err := client.SetActivity(client.Activity{
		State:   state,
		Details: details,
		Timestamps: &client.Timestamps{
			Start: &start,
		},
	}); err != nil {
		logError("discord rpc activity: %v", err)
		return
	}
	discordLast = state + "\n" + details
}
