package ecm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Config configures the client.
type Config struct {
	// NC is the NATS connection.
	NC *nats.Conn

	// SubjectPrefix is the prefix of the daemon's request subjects.
	// Defaults to "ecm".
	SubjectPrefix string

	// Timeout for requests. Defaults to 5s.
	Timeout time.Duration
}

// Client talks to an echo-memory daemon over NATS request-reply.
type Client struct {
	nc      *nats.Conn
	prefix  string
	timeout time.Duration
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.NC == nil {
		return nil, fmt.Errorf("ecm: NC (NATS connection) is required")
	}
	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "ecm"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Client{nc: cfg.NC, prefix: prefix, timeout: timeout}, nil
}

// Add records a new echo.
func (c *Client) Add(ctx context.Context, p AddParams) (*Echo, error) {
	var echo Echo
	if err := c.request(ctx, c.prefix+".echo.add", p, &echo); err != nil {
		return nil, err
	}
	return &echo, nil
}

// Get fetches an echo without strengthening it.
func (c *Client) Get(ctx context.Context, id string) (*Echo, error) {
	var echo Echo
	if err := c.request(ctx, c.prefix+".echo.get", map[string]string{"id": id}, &echo); err != nil {
		return nil, err
	}
	return &echo, nil
}

// Retrieve fetches an echo as a meaningful recall: the server bumps its
// resonance and weight before replying.
func (c *Client) Retrieve(ctx context.Context, id string) (*Echo, error) {
	var echo Echo
	if err := c.request(ctx, c.prefix+".echo.retrieve", map[string]string{"id": id}, &echo); err != nil {
		return nil, err
	}
	return &echo, nil
}

// Delete removes an echo. Deleting an absent id is not an error.
func (c *Client) Delete(ctx context.Context, id string) error {
	var resp struct {
		Deleted bool `json:"deleted"`
	}
	return c.request(ctx, c.prefix+".echo.delete", map[string]string{"id": id}, &resp)
}

// Search scans for echoes ranked by significance.
func (c *Client) Search(ctx context.Context, p SearchParams) ([]*Echo, error) {
	var resp struct {
		Echoes []*Echo `json:"echoes"`
	}
	if err := c.request(ctx, c.prefix+".search", p, &resp); err != nil {
		return nil, err
	}
	return resp.Echoes, nil
}

// Crystallize reports the top k echoes across all layers. With wisdomOnly
// set the report is restricted to wisdom-bearing types.
func (c *Client) Crystallize(ctx context.Context, k int, wisdomOnly bool) ([]*Echo, error) {
	req := map[string]interface{}{"k": k, "wisdom_only": wisdomOnly}
	var resp struct {
		Echoes []*Echo `json:"echoes"`
	}
	if err := c.request(ctx, c.prefix+".crystallize", req, &resp); err != nil {
		return nil, err
	}
	return resp.Echoes, nil
}

// Health fetches the content-quality report.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.request(ctx, c.prefix+".health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Snapshot forces an immediate snapshot cycle and returns the result.
func (c *Client) Snapshot(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	if err := c.request(ctx, c.prefix+".snapshot", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) request(ctx context.Context, subject string, req, resp interface{}) error {
	var payload []byte
	if req != nil {
		var err error
		payload, err = json.Marshal(req)
		if err != nil {
			return fmt.Errorf("ecm: encoding request: %w", err)
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.nc.RequestWithContext(reqCtx, subject, payload)
	if err != nil {
		return fmt.Errorf("ecm: request %s: %w", subject, err)
	}
	if err := decodeError(msg.Data); err != nil {
		return err
	}
	if err := json.Unmarshal(msg.Data, resp); err != nil {
		return fmt.Errorf("ecm: decoding reply from %s: %w", subject, err)
	}
	return nil
}
