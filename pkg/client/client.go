// Package client talks to the routing backend's REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"map_console/pkg/model"
)

// maxBodyBytes caps how much of a response is read. Graph snapshots for a
// district are a few MB at most.
const maxBodyBytes = 64 << 20

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string // backend "error" field, if any
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Status)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

// Client is a backend API client. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Nodes fetches GET /api/nodes.
func (c *Client) Nodes(ctx context.Context) ([]model.Node, error) {
	var out []model.Node
	err := c.do(ctx, http.MethodGet, "/api/nodes", nil, &out)
	return out, err
}

// Edges fetches GET /api/edges.
func (c *Client) Edges(ctx context.Context) ([]model.Edge, error) {
	var out []model.Edge
	err := c.do(ctx, http.MethodGet, "/api/edges", nil, &out)
	return out, err
}

// Constraints fetches GET /api/constraints.
func (c *Client) Constraints(ctx context.Context) ([]model.Constraint, error) {
	var out []model.Constraint
	err := c.do(ctx, http.MethodGet, "/api/constraints", nil, &out)
	return out, err
}

// Snapshot fetches nodes, edges and constraints. Any failure discards the
// partial result.
func (c *Client) Snapshot(ctx context.Context) (model.Snapshot, error) {
	nodes, err := c.Nodes(ctx)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("load nodes: %w", err)
	}
	edges, err := c.Edges(ctx)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("load edges: %w", err)
	}
	constraints, err := c.Constraints(ctx)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("load constraints: %w", err)
	}
	return model.Snapshot{Nodes: nodes, Edges: edges, Constraints: constraints}, nil
}

// EdgesInPolygon posts a polygon of [lat, lon] vertices.
func (c *Client) EdgesInPolygon(ctx context.Context, polygon [][2]float64) ([]model.Edge, error) {
	var out model.EdgesResponse
	err := c.do(ctx, http.MethodPost, "/api/edges-in-polygon", model.PolygonRequest{Polygon: polygon}, &out)
	return out.Edges, err
}

// EdgesInCircle posts a circle with radius in meters.
func (c *Client) EdgesInCircle(ctx context.Context, lat, lon, radius float64) ([]model.Edge, error) {
	var out model.EdgesResponse
	req := model.CircleRequest{CenterLat: lat, CenterLon: lon, Radius: radius}
	err := c.do(ctx, http.MethodPost, "/api/edges-in-circle", req, &out)
	return out.Edges, err
}

// AddConstraints posts one constraint for several edges.
func (c *Client) AddConstraints(ctx context.Context, req model.AddConstraintsRequest) error {
	return c.do(ctx, http.MethodPost, "/api/add-constraints", req, nil)
}

// RemoveConstraint deletes the constraint bound to edgeID.
func (c *Client) RemoveConstraint(ctx context.Context, edgeID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/remove-constraint/%d", edgeID), nil, nil)
}

// ClearConstraints deletes every constraint.
func (c *Client) ClearConstraints(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/clear-constraints", nil, nil)
}

// ReloadGraph asks the backend to re-read its graph data.
func (c *Client) ReloadGraph(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/reload-graph", nil, nil)
}

// FindPath asks for a path between two coordinates. A missing path is a
// StatusError with status 404.
func (c *Client) FindPath(ctx context.Context, req model.FindPathRequest) (*model.PathResult, error) {
	var out model.PathResult
	if err := c.do(ctx, http.MethodPost, "/api/find-path", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindNearest returns the graph node closest to a coordinate.
func (c *Client) FindNearest(ctx context.Context, lat, lon float64) (model.NearestResponse, error) {
	var out model.NearestResponse
	err := c.do(ctx, http.MethodPost, "/api/find-nearest", model.NearestRequest{Latitude: lat, Longitude: lon}, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	c.logger.Debug("backend request", "method", method, "path", path,
		"status", resp.StatusCode, "elapsed", time.Since(start).Round(time.Microsecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Method: method, Path: path, Status: resp.StatusCode}
		var errResp model.ErrorResponse
		if json.Unmarshal(data, &errResp) == nil {
			se.Message = errResp.Error
		}
		return se
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}
