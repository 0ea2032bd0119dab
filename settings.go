package main

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"

	"axview/viewport"
)

type Settings struct {
	ServerURL       string  `json:"serverURL"`
	StatePath       string  `json:"statePath"`
	MapPath         string  `json:"mapPath"`
	PollIntervalMS  int     `json:"pollIntervalMS"`
	TileSize        float64 `json:"tileSize"`
	MinTileSize     float64 `json:"minTileSize"`
	MaxTileSize     float64 `json:"maxTileSize"`
	ZoomFactor      float64 `json:"zoomFactor"`
	PanSpeed        float64 `json:"panSpeed"`
	GridMinTileSize float64 `json:"gridMinTileSize"`
	ShowGrid        bool    `json:"showGrid"`
	ShowHUD         bool    `json:"showHUD"`
	ShowMinimap     bool    `json:"showMinimap"`
	Theme           string  `json:"theme"`
	DiscordPresence bool    `json:"discordPresence"`
	ScreenWidth     int     `json:"screenWidth"`
	ScreenHeight    int     `json:"screenHeight"`
	FPS             int     `json:"fps"`
}

var gsdef = Settings{
	ServerURL:       "http://localhost:8080",
	StatePath:       "/state",
	MapPath:         "/map",
	PollIntervalMS:  200,
	TileSize:        viewport.DefaultTileSize,
	MinTileSize:     viewport.DefaultMinTileSize,
	MaxTileSize:     viewport.DefaultMaxTileSize,
	ZoomFactor:      viewport.DefaultZoomFactor,
	PanSpeed:        12,
	GridMinTileSize: 24,
	ShowGrid:        true,
	ShowHUD:         true,
	ShowMinimap:     true,
	ScreenWidth:     800,
	ScreenHeight:    600,
	FPS:             60,
}

var (
	gs Settings = gsdef

	settingsDirty   bool
	settingsDirtyAt time.Time
)

const settingsSaveDelay = 5 * time.Second

func settingsPath() string { return filepath.Join(baseDir, "settings.json") }

// loadSettings reads settings.json over the defaults. Zero values in the
// file fall back to the default for that field.
func loadSettings() bool {
	gs = gsdef
	data, err := os.ReadFile(settingsPath())
	if err != nil {
		return false
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		log.Printf("load settings: %v", err)
		return false
	}
	gs = mergeSettings(s, gsdef)
	return true
}

func mergeSettings(s, def Settings) Settings {
	if s.ServerURL == "" {
		s.ServerURL = def.ServerURL
	}
	if s.StatePath == "" {
		s.StatePath = def.StatePath
	}
	if s.MapPath == "" {
		s.MapPath = def.MapPath
	}
	if s.PollIntervalMS == 0 {
		s.PollIntervalMS = def.PollIntervalMS
	}
	if s.TileSize == 0 {
		s.TileSize = def.TileSize
	}
	if s.MinTileSize == 0 {
		s.MinTileSize = def.MinTileSize
	}
	if s.MaxTileSize == 0 {
		s.MaxTileSize = def.MaxTileSize
	}
	if s.ZoomFactor == 0 {
		s.ZoomFactor = def.ZoomFactor
	}
	if s.PanSpeed == 0 {
		s.PanSpeed = def.PanSpeed
	}
	if s.GridMinTileSize == 0 {
		s.GridMinTileSize = def.GridMinTileSize
	}
	if s.ScreenWidth == 0 {
		s.ScreenWidth = def.ScreenWidth
	}
	if s.ScreenHeight == 0 {
		s.ScreenHeight = def.ScreenHeight
	}
	if s.FPS == 0 {
		s.FPS = def.FPS
	}
	return s
}

// markSettingsDirty schedules a save; toggles are written at most once per
// settingsSaveDelay.
func markSettingsDirty() {
	if !settingsDirty {
		settingsDirtyAt = time.Now()
	}
	settingsDirty = true
}

func maybeSaveSettings() {
	if settingsDirty && time.Since(settingsDirtyAt) >= settingsSaveDelay {
		saveSettings()
	}
}

func saveSettings() {
	settingsDirty = false
	data, err := json.MarshalIndent(gs, "", "  ")
	if err != nil {
		log.Printf("save settings: %v", err)
		return
	}
	if err := os.WriteFile(settingsPath(), data, 0644); err != nil {
		log.Printf("save settings: %v", err)
	}
}
