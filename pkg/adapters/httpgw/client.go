// Package httpgw provides an HTTP implementation of ports.GraphGateway
// speaking the graph service's JSON envelope protocol.
package httpgw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/easelab/easel/pkg/domain"
)

const defaultTimeout = 30 * time.Second

// Client talks to a remote graph service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New creates a new Client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// envelope is the uniform response wrapper of the graph service.
type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data,omitempty"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
}

// do performs one request and decodes the response envelope into out.
// A nil out skips payload decoding. Failures reported by the service,
// and transport failures, both come back as *domain.RemoteError so the
// sync layer can classify them uniformly.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Status 0 marks a request that never completed.
		return &domain.RemoteError{Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.RemoteError{Status: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err)}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return &domain.RemoteError{Status: resp.StatusCode, Message: fmt.Sprintf("malformed response: %v", err)}
	}

	if resp.StatusCode >= http.StatusBadRequest || env.Status == "error" {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &domain.RemoteError{Status: resp.StatusCode, Code: env.Code, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &domain.RemoteError{Status: resp.StatusCode, Message: fmt.Sprintf("decode payload: %v", err)}
		}
	}

	return nil
}

// ListGraphs returns the listing entries of all stored graphs.
func (c *Client) ListGraphs(ctx context.Context) ([]domain.GraphInfo, error) {
	var infos []domain.GraphInfo
	if err := c.do(ctx, http.MethodGet, "/api/graphs", nil, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// FetchGraph retrieves the full snapshot of a graph.
func (c *Client) FetchGraph(ctx context.Context, graphID string) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/graphs/"+url.PathEscape(graphID), nil, &snap); err != nil {
		return nil, err
	}
	snap.Normalize()
	return &snap, nil
}

// CreateGraph stores a new graph and returns its assigned id. The
// snapshot may carry nodes and edges; the service persists them with
// the graph record.
func (c *Client) CreateGraph(ctx context.Context, snap *domain.Snapshot) (string, error) {
	var created domain.Snapshot
	if err := c.do(ctx, http.MethodPost, "/api/graphs", snap, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// UpdateGraph updates a graph's name and description.
func (c *Client) UpdateGraph(ctx context.Context, graphID string, meta domain.GraphMeta) error {
	return c.do(ctx, http.MethodPut, "/api/graphs/"+url.PathEscape(graphID), meta, nil)
}

// DeleteGraph removes a graph and everything in it.
func (c *Client) DeleteGraph(ctx context.Context, graphID string) error {
	return c.do(ctx, http.MethodDelete, "/api/graphs/"+url.PathEscape(graphID), nil, nil)
}

// CreateNode adds a node to a graph.
func (c *Client) CreateNode(ctx context.Context, graphID string, n domain.Node) error {
	return c.do(ctx, http.MethodPost, "/api/graphs/"+url.PathEscape(graphID)+"/nodes", n, nil)
}

// UpdateNode replaces a node's configuration. Nodes are addressed by
// id alone; the service resolves the owning graph.
func (c *Client) UpdateNode(ctx context.Context, n domain.Node) error {
	return c.do(ctx, http.MethodPut, "/api/nodes/"+url.PathEscape(n.ID), n, nil)
}

// DeleteNode removes a node. The service cascades edge deletion.
func (c *Client) DeleteNode(ctx context.Context, nodeID string) error {
	return c.do(ctx, http.MethodDelete, "/api/nodes/"+url.PathEscape(nodeID), nil, nil)
}

// CreateEdge connects two nodes. Creating an edge that already exists
// for the same ordered pair succeeds and leaves the existing edge in
// place.
func (c *Client) CreateEdge(ctx context.Context, graphID string, e domain.Edge) error {
	body := struct {
		Source string          `json:"source"`
		Target string          `json:"target"`
		Type   domain.EdgeType `json:"type,omitempty"`
	}{e.Source, e.Target, e.Type}
	return c.do(ctx, http.MethodPost, "/api/edges", body, nil)
}

// DeleteEdge removes an edge by id.
func (c *Client) DeleteEdge(ctx context.Context, edgeID string) error {
	return c.do(ctx, http.MethodDelete, "/api/edges/"+url.PathEscape(edgeID), nil, nil)
}
