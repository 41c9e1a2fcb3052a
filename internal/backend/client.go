package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pulseview/pulseview/internal/models"
)

const (
	apiPrefix = "/api/v1"

	// DefaultTimeout bounds every HTTP call issued by the client.
	DefaultTimeout = 10 * time.Second
)

// Backend is the surface the UI consumes. *Client talks to a real
// Pulseband backend; *MockBackend produces simulated data. The variant
// is chosen explicitly at construction, never by branching at call sites.
type Backend interface {
	// CheckHealth probes backend liveness. It returns nil on any
	// failure and never returns an error; nil means "treat as offline".
	CheckHealth(ctx context.Context) *models.SystemStatus

	// Connect registers a device with the backend. One-shot, no retry.
	Connect(ctx context.Context, req models.ConnectionRequest) (*models.ConnectionResponse, error)

	// FetchStream fetches the latest processed-signal snapshot.
	FetchStream(ctx context.Context) (*models.StreamData, error)

	// FetchPrediction fetches the current LIA state prediction.
	FetchPrediction(ctx context.Context) (*models.PredictionResponse, error)

	// CreateSession opens a new backend session.
	CreateSession(ctx context.Context, req models.SessionRequest) (*models.SessionResponse, error)

	// GetSession looks up a session by id.
	GetSession(ctx context.Context, id string) (*models.SessionResponse, error)

	// ProcessingLogs fetches up to limit recent pipeline log entries.
	ProcessingLogs(ctx context.Context, limit int) (*models.ProcessingLogList, error)

	// LayerDemo fetches the layer-demonstration payload. Shape is
	// unspecified by the backend, so it is returned as a generic map.
	LayerDemo(ctx context.Context) (map[string]any, error)
}

// Config configures a Client.
type Config struct {
	// BaseURL is the backend root, e.g. "http://127.0.0.1:8000".
	// Resolved once at startup (see DefaultBaseURL) and never changed.
	BaseURL string

	// Timeout bounds each request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the transport. Defaults to a plain client;
	// per-request deadlines come from context, not the client itself.
	HTTPClient *http.Client

	Logger *slog.Logger
}

func (cfg *Config) Validate() error {
	if cfg.BaseURL == "" {
		return errors.New("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return fmt.Errorf("base URL is invalid: %w", err)
	}
	if cfg.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

// Client is an HTTP client for the Pulseband backend API. All calls are
// stateless with respect to each other: no session token is carried at
// the transport layer and nothing is cached between calls.
type Client struct {
	baseURL string
	timeout time.Duration
	hc      *http.Client
	log     *slog.Logger
}

// New creates a backend client from cfg.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("backend: invalid config: %w", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		timeout: cfg.Timeout,
		hc:      cfg.HTTPClient,
		log:     cfg.Logger,
	}, nil
}

// BaseURL returns the resolved backend root this client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// do issues one request with the client timeout enforced through the
// context deadline, so cancellation aborts the in-flight request and
// the transport owns timer cleanup. Non-2xx responses become a
// *StatusError; the body is decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend: encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, rd)
	if err != nil {
		return fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused; body content is not
		// assumed to be JSON on error paths.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: decode response: %w", err)
	}
	return nil
}

// CheckHealth implements the liveness probe. All failures (network,
// timeout, non-2xx, malformed body) are swallowed and logged at debug
// level; the caller decides whether nil means "offline".
func (c *Client) CheckHealth(ctx context.Context) *models.SystemStatus {
	var status models.SystemStatus
	if err := c.do(ctx, http.MethodGet, "/health", nil, &status); err != nil {
		c.log.Debug("health probe failed", "error", err)
		return nil
	}
	return &status
}

func (c *Client) Connect(ctx context.Context, req models.ConnectionRequest) (*models.ConnectionResponse, error) {
	var out models.ConnectionResponse
	if err := c.do(ctx, http.MethodPost, "/connect", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FetchStream(ctx context.Context) (*models.StreamData, error) {
	var out models.StreamData
	if err := c.do(ctx, http.MethodGet, "/stream", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FetchPrediction(ctx context.Context) (*models.PredictionResponse, error) {
	var out models.PredictionResponse
	if err := c.do(ctx, http.MethodGet, "/predict", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateSession(ctx context.Context, req models.SessionRequest) (*models.SessionResponse, error) {
	var out models.SessionResponse
	if err := c.do(ctx, http.MethodPost, "/sessions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSession(ctx context.Context, id string) (*models.SessionResponse, error) {
	var out models.SessionResponse
	if err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ProcessingLogs(ctx context.Context, limit int) (*models.ProcessingLogList, error) {
	path := "/logs/processing"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out models.ProcessingLogList
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LayerDemo(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/demo/layers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
