// Command simfixture serves an in-memory simulation with the same HTTP API
// as the real service, for running the viewer and bot without it.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"axview/entity"
	"axview/fixture"
	"axview/simstate"
	"axview/tilemap"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("simfixture: .env: %v", err)
	}

	addr := flag.String("addr", getEnv("SIMFIXTURE_ADDR", ":8080"), "listen address")
	file := flag.String("file", os.Getenv("SIMFIXTURE_FILE"), "sim file or state payload to serve (synthetic world when empty)")
	tick := flag.Duration("tick", 50*time.Millisecond, "simulation step interval (0 disables stepping)")
	units := flag.Int("units", envInt("SIMFIXTURE_UNITS", 6), "synthetic units")
	entities := flag.Int("entities", envInt("SIMFIXTURE_ENTITIES", 15), "synthetic entities")
	seed := flag.Int64("seed", time.Now().UnixNano(), "synthetic world seed")
	omitMap := flag.Bool("omit-map", false, "leave the map out of /state")
	quiet := flag.Bool("quiet", false, "disable the request log")
	flag.Parse()

	st, err := initialState(*file, *units, *entities, *seed)
	if err != nil {
		log.Fatalf("simfixture: %v", err)
	}
	fx := fixture.New(st, fixture.Options{RequestLog: !*quiet, OmitMap: *omitMap})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *tick > 0 {
		go func() {
			t := time.NewTicker(*tick)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					fx.Tick()
				}
			}
		}()
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      fx,
		ReadTimeout:  parseDuration(getEnv("SIMFIXTURE_READ_TIMEOUT", "15s"), 15*time.Second),
		WriteTimeout: parseDuration(getEnv("SIMFIXTURE_WRITE_TIMEOUT", "15s"), 15*time.Second),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("simfixture: serving on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("ListenAndServe:", err)
	}
}

// initialState loads the first frame of a file, or builds a random world on
// the built-in island.
func initialState(path string, units, entities int, seed int64) (*simstate.State, error) {
	if path != "" {
		f, err := simstate.LoadFile(path)
		if err != nil {
			return nil, err
		}
		return f.Frame(0), nil
	}
	rng := rand.New(rand.NewSource(seed))
	st := simstate.SyntheticState(tilemap.Default(), entities, rng)
	st.Categories[entity.Units] = syntheticUnits(st.Map, units, rng)
	st.HasTick = true
	return st, nil
}

func syntheticUnits(m *tilemap.Map, n int, rng *rand.Rand) map[string]entity.Fields {
	out := make(map[string]entity.Fields, n)
	i := 0
	for id, f := range simstate.Synthetic(m, n, rng) {
		f.Size = 0.5
		f.Owner, f.HasOwner = 1+i%2, true
		f.Tag = ""
		out[id] = f
		i++
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}
