package poll

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"axview/simstate"
)

var (
	// ErrTransport wraps failures to obtain a response at all.
	ErrTransport = errors.New("poll: transport failure")
	// ErrBusy is returned by Poll while another cycle is in flight.
	ErrBusy = errors.New("poll: cycle in flight")
)

// Fetcher returns the raw body of one state query.
type Fetcher interface {
	FetchState(ctx context.Context) ([]byte, error)
}

// MapFetcher is implemented by fetchers that can also serve the map alone.
type MapFetcher interface {
	FetchMap(ctx context.Context) ([]byte, error)
}

// StateFetcher is implemented by sources that already hold decoded
// snapshots, such as recordings. The poller prefers it over FetchState. n is
// the number of bytes read to produce st.
type StateFetcher interface {
	FetchDecoded(ctx context.Context) (st *simstate.State, n int, err error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) ([]byte, error)

func (f FetcherFunc) FetchState(ctx context.Context) ([]byte, error) { return f(ctx) }

// Stats summarizes poll outcomes since the poller was created.
type Stats struct {
	OK                int           `json:"ok"`
	TransportFailures int           `json:"transportFailures"`
	Malformed         int           `json:"malformed"`
	Skipped           int           `json:"skipped"`
	Bytes             int64         `json:"bytes"`
	LastOK            time.Time     `json:"lastOK"`
	LastErr           string        `json:"lastErr,omitempty"`
	LastDuration      time.Duration `json:"lastDuration"`
}

// Poller fetches, decodes and commits snapshots. Cycles never overlap: Run
// schedules the next one only after the previous one finished, and Poll
// refuses to start while another is running.
type Poller struct {
	fetch    Fetcher
	world    *World
	interval time.Duration

	// OnCommit, if set, is called after every successful commit.
	OnCommit func(Commit)
	// Logf receives failure reports. Defaults to log.Printf.
	Logf func(format string, args ...any)

	inflight atomic.Bool

	mu    sync.Mutex
	stats Stats
}

func New(f Fetcher, w *World, interval time.Duration) *Poller {
	return &Poller{fetch: f, world: w, interval: interval, Logf: log.Printf}
}

// Interval is the delay between the end of one cycle and the start of the
// next.
func (p *Poller) Interval() time.Duration { return p.interval }

// Run polls immediately and then every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		if _, err := p.Poll(ctx); errors.Is(err, ErrBusy) {
			p.mu.Lock()
			p.stats.Skipped++
			p.mu.Unlock()
		}
		timer.Reset(p.interval)
	}
}

// Poll runs one cycle now. On any failure the world is left untouched.
func (p *Poller) Poll(ctx context.Context) (Commit, error) {
	if !p.inflight.CompareAndSwap(false, true) {
		return Commit{}, ErrBusy
	}
	defer p.inflight.Store(false)

	start := time.Now()
	c, n, err := p.cycle(ctx)
	if ctx.Err() != nil && err != nil {
		return Commit{}, ctx.Err()
	}

	p.mu.Lock()
	p.stats.LastDuration = time.Since(start)
	p.stats.Bytes += int64(n)
	switch {
	case err == nil:
		p.stats.OK++
		p.stats.LastOK = time.Now()
		p.stats.LastErr = ""
	case errors.Is(err, simstate.ErrMalformed):
		p.stats.Malformed++
	default:
		p.stats.TransportFailures++
	}
	repeat := err != nil && err.Error() == p.stats.LastErr
	if err != nil {
		p.stats.LastErr = err.Error()
	}
	p.mu.Unlock()

	if err != nil {
		if !repeat && p.Logf != nil {
			p.Logf("poll: %v", err)
		}
		return Commit{}, err
	}
	if p.OnCommit != nil {
		p.OnCommit(c)
	}
	return c, nil
}

func (p *Poller) cycle(ctx context.Context) (Commit, int, error) {
	st, n, err := p.fetchState(ctx)
	if err != nil {
		return Commit{}, n, err
	}
	if st.Map == nil && !p.world.HasMap() {
		mf, ok := p.fetch.(MapFetcher)
		if !ok {
			return Commit{}, n, &simstate.MalformedError{Path: "map", Reason: "missing and none committed"}
		}
		mdata, err := mf.FetchMap(ctx)
		if err != nil {
			return Commit{}, n, classify(err)
		}
		n += len(mdata)
		ms, err := simstate.Decode(mdata)
		if err != nil {
			return Commit{}, n, err
		}
		if ms.Map == nil {
			return Commit{}, n, &simstate.MalformedError{Path: "map", Reason: "map query returned no map"}
		}
		st.Map = ms.Map
	}
	c, err := p.world.Commit(st)
	if err != nil {
		return Commit{}, n, &simstate.MalformedError{Path: "map", Reason: err.Error()}
	}
	return c, n, nil
}

func (p *Poller) fetchState(ctx context.Context) (*simstate.State, int, error) {
	if sf, ok := p.fetch.(StateFetcher); ok {
		st, n, err := sf.FetchDecoded(ctx)
		if err != nil {
			return nil, n, classify(err)
		}
		return st, n, nil
	}
	data, err := p.fetch.FetchState(ctx)
	if err != nil {
		return nil, 0, classify(err)
	}
	st, err := simstate.Decode(data)
	return st, len(data), err
}

func classify(err error) error {
	if errors.Is(err, simstate.ErrMalformed) || errors.Is(err, ErrTransport) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// Stats returns a copy of the counters.
func (p *Poller) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
