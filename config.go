package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"axview/viewport"
)

var errConfig = errors.New("invalid configuration")

type sourceKind int

const (
	sourceHTTP sourceKind = iota
	sourceFile
	sourceDemo
)

func (s sourceKind) String() string {
	switch s {
	case sourceFile:
		return "file"
	case sourceDemo:
		return "demo"
	}
	return "http"
}

// flagValues holds the command line; set records which flags were given.
type flagValues struct {
	server    string
	statePath string
	mapPath   string
	file      string
	interval  time.Duration
	demo      bool
	seed      int64
	set       map[string]bool
}

// sessionConfig is fixed for the life of the process.
type sessionConfig struct {
	Source    sourceKind
	ServerURL string
	StatePath string
	MapPath   string
	File      string
	Seed      int64
	Interval  time.Duration

	View            viewport.Config
	PanSpeed        float64
	GridMinTileSize float64
	FPS             int
}

// buildSessionConfig resolves each setting from, in order, the flags the
// user gave, the environment and the settings file.
func buildSessionConfig(fv flagValues, getenv func(string) string, s Settings) (sessionConfig, error) {
	pick := func(flagName, flagVal, envKey, setting string) string {
		if fv.set[flagName] {
			return flagVal
		}
		if v := getenv(envKey); v != "" {
			return v
		}
		return setting
	}

	cfg := sessionConfig{
		ServerURL:       pick("server", fv.server, "AXVIEW_SERVER", s.ServerURL),
		StatePath:       pick("state-path", fv.statePath, "AXVIEW_STATE_PATH", s.StatePath),
		MapPath:         pick("map-path", fv.mapPath, "AXVIEW_MAP_PATH", s.MapPath),
		File:            pick("file", fv.file, "AXVIEW_FILE", ""),
		Seed:            fv.seed,
		Interval:        time.Duration(s.PollIntervalMS) * time.Millisecond,
		PanSpeed:        s.PanSpeed,
		GridMinTileSize: s.GridMinTileSize,
		FPS:             s.FPS,
		View: viewport.Config{
			ScreenWidth:  s.ScreenWidth,
			ScreenHeight: s.ScreenHeight,
			TileSize:     s.TileSize,
			MinTileSize:  s.MinTileSize,
			MaxTileSize:  s.MaxTileSize,
			ZoomFactor:   s.ZoomFactor,
		},
	}
	if v := getenv("AXVIEW_POLL_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: AXVIEW_POLL_MS=%q: %v", errConfig, v, err)
		}
		cfg.Interval = time.Duration(ms) * time.Millisecond
	}
	if fv.set["interval"] {
		cfg.Interval = fv.interval
	}

	switch {
	case fv.demo && cfg.File != "":
		return cfg, fmt.Errorf("%w: -demo and -file are exclusive", errConfig)
	case fv.demo:
		cfg.Source = sourceDemo
	case cfg.File != "":
		cfg.Source = sourceFile
	}

	if cfg.Interval <= 0 {
		return cfg, fmt.Errorf("%w: poll interval %v must be positive", errConfig, cfg.Interval)
	}
	if cfg.PanSpeed <= 0 {
		return cfg, fmt.Errorf("%w: pan speed %v must be positive", errConfig, cfg.PanSpeed)
	}
	if cfg.FPS <= 0 {
		return cfg, fmt.Errorf("%w: fps %d must be positive", errConfig, cfg.FPS)
	}
	if err := cfg.View.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
