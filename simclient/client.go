// Package simclient talks to the simulation's HTTP API.
package simclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"axview/poll"
	"axview/simstate"
)

// ErrStatus reports a response with an unexpected HTTP status.
var ErrStatus = errors.New("simclient: unexpected status")

const (
	DefaultStatePath = "/state"
	DefaultMapPath   = "/map"
	DefaultTimeout   = 5 * time.Second

	// maxBody caps how much of a response is read.
	maxBody = 64 << 20
)

// Client is safe for concurrent use.
type Client struct {
	base      *url.URL
	statePath string
	mapPath   string
	http      *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client, including its timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithPaths overrides the state and map query paths. Empty values keep the
// defaults.
func WithPaths(statePath, mapPath string) Option {
	return func(c *Client) {
		if statePath != "" {
			c.statePath = statePath
		}
		if mapPath != "" {
			c.mapPath = mapPath
		}
	}
}

// New returns a client for the server at baseURL, e.g.
// "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("simclient: base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("simclient: base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base:      u,
		statePath: DefaultStatePath,
		mapPath:   DefaultMapPath,
		http:      &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// BaseURL is the server address the client was built with.
func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) endpoint(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.base.String() + path
}

// State returns the raw body of the state query.
func (c *Client) State(ctx context.Context) ([]byte, error) {
	return c.get(ctx, c.statePath)
}

// Map returns the raw body of the map-only query.
func (c *Client) Map(ctx context.Context) ([]byte, error) {
	return c.get(ctx, c.mapPath)
}

func (c *Client) FetchState(ctx context.Context) ([]byte, error) { return c.State(ctx) }
func (c *Client) FetchMap(ctx context.Context) ([]byte, error)   { return c.Map(ctx) }

// MapInfo asks the map query for the map dimensions.
func (c *Client) MapInfo(ctx context.Context) (simstate.MapInfo, error) {
	data, err := c.Map(ctx)
	if err != nil {
		return simstate.MapInfo{}, err
	}
	return simstate.DecodeMapInfo(data)
}

type moveRequest struct {
	UnitID string  `json:"unit_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type damageRequest struct {
	UnitID   string `json:"unit_id"`
	TargetID string `json:"target_id"`
}

type facingRequest struct {
	UnitID string  `json:"unit_id"`
	Facing float64 `json:"facing"`
}

// Move orders a unit toward a world position.
func (c *Client) Move(ctx context.Context, unitID string, x, y float64) error {
	return c.command(ctx, "/unit/move", moveRequest{UnitID: unitID, X: x, Y: y})
}

// Damage has one unit strike another.
func (c *Client) Damage(ctx context.Context, unitID, targetID string) error {
	return c.command(ctx, "/unit/damage", damageRequest{UnitID: unitID, TargetID: targetID})
}

// Face turns a unit to the given heading in radians.
func (c *Client) Face(ctx context.Context, unitID string, facing float64) error {
	return c.command(ctx, "/unit/facing", facingRequest{UnitID: unitID, Facing: facing})
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", poll.ErrTransport, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", poll.ErrTransport, path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(http.MethodGet, path, resp.StatusCode, body)
	}
	return body, nil
}

// command posts a JSON body and expects 204 No Content.
func (c *Client) command(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", poll.ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return statusError(http.MethodPost, path, resp.StatusCode, msg)
	}
	return nil
}

func statusError(method, path string, code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return fmt.Errorf("%w: %s %s: %d %s: %q", ErrStatus, method, path, code, http.StatusText(code), msg)
}

var (
	_ poll.Fetcher    = (*Client)(nil)
	_ poll.MapFetcher = (*Client)(nil)
)
