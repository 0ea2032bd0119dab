// Command axbot drives a running simulation with random orders: every round
// it sends each unit toward a random point on the map and, now and then,
// has it strike another unit.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hako/durafmt"
	"github.com/joho/godotenv"

	"axview/simclient"
)

var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("axbot: .env: %v", err)
	}

	server := flag.String("server", getEnv("AXVIEW_SERVER", "http://localhost:8080"), "simulation base URL")
	interval := flag.Duration("interval", 2*time.Second, "delay between rounds")
	rounds := flag.Int("rounds", 0, "stop after this many rounds (0 runs until interrupted)")
	damage := flag.Float64("damage", envFloat("AXBOT_DAMAGE", 0.1), "per-unit chance of a damage order each round")
	workers := flag.Int("concurrency", 4, "orders in flight at once")
	perSec := flag.Float64("rate", 20, "orders per second")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	client, err := simclient.New(*server)
	if err != nil {
		log.Fatalf("axbot: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := newBot(client, botConfig{
		DamageChance: *damage,
		Concurrency:  *workers,
		Rate:         *perSec,
		Rand:         rand.New(rand.NewSource(*seed)),
	})
	if err := b.init(ctx); err != nil {
		log.Fatalf("axbot: read map: %v", err)
	}
	log.Printf("axbot: map %dx%d at %s", b.mapW, b.mapH, client.BaseURL())

	start := time.Now()
	var total roundStats
	for n := 1; *rounds == 0 || n <= *rounds; n++ {
		rs, err := b.round(ctx)
		total.add(rs)
		if ctx.Err() != nil {
			break
		}
		if err != nil {
			log.Printf("axbot: round %d: %v", n, err)
		} else {
			log.Printf("axbot: round %d: %d units, %d moves, %d strikes, %d rejected", n, rs.Units, rs.Moves, rs.Strikes, rs.Rejected)
		}
		select {
		case <-ctx.Done():
		case <-time.After(*interval):
		}
		if ctx.Err() != nil {
			break
		}
	}
	up := durafmt.Parse(time.Since(start).Round(time.Second)).LimitFirstN(2).Format(shortUnits)
	log.Printf("axbot: stopped after %s: %d moves, %d strikes, %d rejected", up, total.Moves, total.Strikes, total.Rejected)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return def
}
