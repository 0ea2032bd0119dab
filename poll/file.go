package poll

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"axview/simstate"
)

// FileFetcher serves snapshots from a recording on disk. The parsed
// recording is kept until the file's modification time or size changes, so
// edits show up on the next cycle. Successive fetches step through the
// frames unless playback is paused.
type FileFetcher struct {
	Path string

	mu     sync.Mutex
	frame  int
	served bool
	paused bool
	step   bool

	rec  *simstate.File
	mod  time.Time
	size int64
}

func NewFileFetcher(path string) *FileFetcher {
	return &FileFetcher{Path: path}
}

// load returns the recording and how many bytes were read for it; zero
// when the cached parse is still current. Called with mu held.
func (f *FileFetcher) load() (*simstate.File, int, error) {
	fi, err := os.Stat(f.Path)
	if err != nil {
		f.rec = nil
		return nil, 0, err
	}
	if f.rec != nil && fi.ModTime().Equal(f.mod) && fi.Size() == f.size {
		return f.rec, 0, nil
	}
	rec, err := simstate.LoadFile(f.Path)
	if err != nil {
		f.rec = nil
		return nil, int(fi.Size()), err
	}
	f.rec, f.mod, f.size = rec, fi.ModTime(), fi.Size()
	return rec, int(fi.Size()), nil
}

// next picks the frame to serve. While paused the last frame is served
// again unless a step was requested. Called with mu held.
func (f *FileFetcher) next() int {
	if f.paused && f.served && !f.step {
		return f.frame - 1
	}
	f.step, f.served = false, true
	i := f.frame
	f.frame++
	return i
}

// FetchDecoded serves the next frame without a JSON round trip. The
// returned state is a copy; its category maps are shared and read-only.
func (f *FileFetcher) FetchDecoded(ctx context.Context) (*simstate.State, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, n, err := f.load()
	if err != nil {
		return nil, n, err
	}
	st := *rec.Frame(f.next())
	st.Paused = st.Paused || f.paused
	st.HasPaused = true
	return &st, n, nil
}

// FetchState serves the next frame as a state payload.
func (f *FileFetcher) FetchState(ctx context.Context) ([]byte, error) {
	st, _, err := f.FetchDecoded(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(simstate.Encode(st))
}

// Rewind restarts playback at the first frame.
func (f *FileFetcher) Rewind() {
	f.mu.Lock()
	f.frame, f.served, f.step = 0, false, false
	f.mu.Unlock()
}

// TogglePause pauses or resumes playback and reports whether it is now
// paused.
func (f *FileFetcher) TogglePause() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = !f.paused
	f.step = false
	return f.paused
}

func (f *FileFetcher) Paused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

// Step advances a paused playback by one frame on the next fetch. It does
// nothing while playing.
func (f *FileFetcher) Step() {
	f.mu.Lock()
	if f.paused {
		f.step = true
	}
	f.mu.Unlock()
}

// Frame is the index of the next frame to serve.
func (f *FileFetcher) Frame() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frame
}

var _ StateFetcher = (*FileFetcher)(nil)
