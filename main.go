package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sqweek/dialog"

	"axview/poll"
	"axview/simclient"
	"axview/simstate"
	"axview/tilemap"
)

const (
	// demoEntities is how many synthetic entities the demo world holds.
	demoEntities = 15
	// demoTurn is how far, in radians, demo entities turn per poll.
	demoTurn = 0.1
)

var baseDir string

func main() {
	var fv flagValues
	flag.StringVar(&fv.server, "server", gsdef.ServerURL, "simulation base URL")
	flag.StringVar(&fv.statePath, "state-path", gsdef.StatePath, "path of the state query")
	flag.StringVar(&fv.mapPath, "map-path", gsdef.MapPath, "path of the map-only query")
	flag.StringVar(&fv.file, "file", "", "play a simulation file instead of polling a server")
	flag.DurationVar(&fv.interval, "interval", time.Duration(gsdef.PollIntervalMS)*time.Millisecond, "delay between polls")
	flag.BoolVar(&fv.demo, "demo", false, "show random entities on the built-in map")
	flag.Int64Var(&fv.seed, "seed", time.Now().UnixNano(), "random seed for -demo")
	debugLog := flag.Bool("debug", false, "verbose/debug logging")
	flag.Parse()
	fv.set = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { fv.set[f.Name] = true })

	baseDir = os.Getenv("PWD")
	if baseDir == "" {
		var err error
		if baseDir, err = os.Getwd(); err != nil {
			log.Fatalf("get working directory: %v", err)
		}
	}
	if err := godotenv.Load(filepath.Join(baseDir, ".env")); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	loadSettings()
	setupLogging(*debugLog)
	defer func() {
		if r := recover(); r != nil {
			logError("panic: %v\n%s", r, debug.Stack())
		}
	}()

	cfg, err := buildSessionConfig(fv, os.Getenv, gs)
	if err != nil {
		fatalConfig(err)
	}
	fetcher, pb, err := newFetcher(cfg)
	if err != nil {
		fatalConfig(err)
	}
	theme = pickPalette(gs.Theme)
	initFont()

	world := poll.NewWorld()
	poller := poll.New(fetcher, world, cfg.Interval)
	poller.Logf = logError
	poller.OnCommit = logCommit

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	loadStats(cfg.ServerURL)
	go saveStatsLoop(ctx, poller)
	go func() {
		if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
			logError("poll loop: %v", err)
		}
	}()
	if gs.DiscordPresence {
		initDiscordRPC(ctx, os.Getenv(discordAppEnv))
	}

	g := newGame(ctx, cfg, world, poller)
	g.playback = pb
	startBackground(ctx, g)
	logDebug("source %v, polling every %v", cfg.Source, cfg.Interval)
	addMessage("Starting...")

	// The window must own the main goroutine.
	runGame(g)
	cancel()
	saveStats(poller.Stats())
}

// fatalConfig reports a startup error in a dialog and exits.
func fatalConfig(err error) {
	silent = true
	logError("configuration: %v", err)
	dialog.Message("%v", err).Title("axview").Error()
	os.Exit(2)
}

// newFetcher builds the snapshot source for the session. The playback is
// non-nil only for recordings.
func newFetcher(cfg sessionConfig) (poll.Fetcher, playback, error) {
	switch cfg.Source {
	case sourceFile:
		ff := poll.NewFileFetcher(cfg.File)
		return ff, ff, nil
	case sourceDemo:
		return demoFetcher(cfg.Seed), nil, nil
	}
	c, err := simclient.New(cfg.ServerURL, simclient.WithPaths(cfg.StatePath, cfg.MapPath))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", errConfig, err)
	}
	return c, nil, nil
}

// demoFetcher serves the built-in map with one set of scattered entities
// that turn a little on every poll.
func demoFetcher(seed int64) poll.FetcherFunc {
	rng := rand.New(rand.NewSource(seed))
	st := simstate.SyntheticState(tilemap.Default(), demoEntities, rng)
	var mu sync.Mutex
	return func(ctx context.Context) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mu.Lock()
		defer mu.Unlock()
		for k, recs := range st.Categories {
			for id, f := range recs {
				f.Facing = math.Mod(f.Facing+demoTurn, 2*math.Pi)
				st.Categories[k][id] = f
			}
		}
		return json.Marshal(simstate.Encode(st))
	}
}
