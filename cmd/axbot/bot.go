package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sort"
	"sync"

	"github.com/remeh/sizedwaitgroup"
	"golang.org/x/time/rate"

	"axview/entity"
	"axview/simclient"
	"axview/simstate"
)

type simAPI interface {
	State(ctx context.Context) ([]byte, error)
	MapInfo(ctx context.Context) (simstate.MapInfo, error)
	Move(ctx context.Context, unitID string, x, y float64) error
	Damage(ctx context.Context, unitID, targetID string) error
}

type botConfig struct {
	DamageChance float64
	Concurrency  int
	Rate         float64
	Rand         *rand.Rand
}

type bot struct {
	api     simAPI
	cfg     botConfig
	limiter *rate.Limiter

	mapW, mapH int
}

type roundStats struct {
	Units, Moves, Strikes, Rejected, Failed int
}

func (r *roundStats) add(o roundStats) {
	r.Units += o.Units
	r.Moves += o.Moves
	r.Strikes += o.Strikes
	r.Rejected += o.Rejected
	r.Failed += o.Failed
}

func newBot(api simAPI, cfg botConfig) *bot {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	lim := rate.Inf
	if cfg.Rate > 0 {
		lim = rate.Limit(cfg.Rate)
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(1))
	}
	return &bot{api: api, cfg: cfg, limiter: rate.NewLimiter(lim, cfg.Concurrency)}
}

// init reads the map size that random targets are drawn from.
func (b *bot) init(ctx context.Context) error {
	mi, err := b.api.MapInfo(ctx)
	if err != nil {
		return err
	}
	b.mapW, b.mapH = mi.Width, mi.Height
	return nil
}

type order struct {
	unit, target string
	x, y         float64
	strike       bool
}

// plan draws this round's orders. Units are visited in id order so a seeded
// bot is repeatable.
func (b *bot) plan(units map[string]entity.Fields) []order {
	ids := make([]string, 0, len(units))
	for id := range units {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	rng := b.cfg.Rand
	var out []order
	for i, id := range ids {
		out = append(out, order{
			unit: id,
			x:    rng.Float64() * float64(b.mapW),
			y:    rng.Float64() * float64(b.mapH),
		})
		if len(ids) > 1 && rng.Float64() < b.cfg.DamageChance {
			j := rng.Intn(len(ids) - 1)
			if j >= i {
				j++
			}
			out = append(out, order{unit: id, target: ids[j], strike: true})
		}
	}
	return out
}

// round fetches the state once and sends every planned order.
func (b *bot) round(ctx context.Context) (roundStats, error) {
	var rs roundStats
	data, err := b.api.State(ctx)
	if err != nil {
		return rs, err
	}
	st, err := simstate.Decode(data)
	if err != nil {
		return rs, err
	}
	units := st.Categories[entity.Units]
	rs.Units = len(units)

	var mu sync.Mutex
	wg := sizedwaitgroup.New(b.cfg.Concurrency)
	for _, o := range b.plan(units) {
		if err := b.limiter.Wait(ctx); err != nil {
			break
		}
		wg.Add()
		go func(o order) {
			defer wg.Done()
			var err error
			if o.strike {
				err = b.api.Damage(ctx, o.unit, o.target)
			} else {
				err = b.api.Move(ctx, o.unit, o.x, o.y)
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && o.strike:
				rs.Strikes++
			case err == nil:
				rs.Moves++
			case errors.Is(err, simclient.ErrStatus):
				rs.Rejected++
				log.Printf("axbot: %s rejected: %v", o.unit, err)
			default:
				rs.Failed++
				log.Printf("axbot: %s: %v", o.unit, err)
			}
		}(o)
	}
	wg.Wait()
	return rs, ctx.Err()
}
