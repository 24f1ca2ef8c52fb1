package embedding

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
	"strings"
	"time"
)

// Flavors of the embeddings HTTP API.
const (
	FlavorAzure  = "azure"
	FlavorOpenAI = "openai"
)

// DefaultOpenAIEndpoint is used when an openai flavored client has no endpoint.
const DefaultOpenAIEndpoint = "https://api.openai.com/v1"

// Config configures a Client.
type Config struct {
	Flavor     string        // azure (default) or openai
	Endpoint   string        // azure resource URL or OpenAI-compatible base URL
	APIKey     string
	APIVersion string        // azure only
	Deployment string        // azure deployment name
	Model      string        // openai model name
	Dimensions int           // requested and expected vector length; 0 skips the check
	MaxRetries int           // extra attempts after a 429, a 5xx or a transport error
	Timeout    time.Duration // per attempt
	Backoff    time.Duration // first retry delay, doubled each attempt
}

// StatusError is a non-2xx reply from the embeddings API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// ErrDimension is returned when the API replies with a vector of the wrong length.
var ErrDimension = errors.New("embedding: unexpected vector dimension")

// Client calls an Azure OpenAI or OpenAI-compatible embeddings endpoint.
type Client struct {
	cfg        Config
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Provider = (*Client)(nil)

// NewClient validates cfg and returns a Client.
//
// SECURITY: the endpoint is used as-is. Use HTTPS outside of tests so the
// API key and query text are not sent in plain text.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Flavor == "" {
		cfg.Flavor = FlavorAzure
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	endpoint, err := requestURL(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		cfg:        cfg,
		url:        endpoint,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

func requestURL(cfg Config) (string, error) {
	switch cfg.Flavor {
	case FlavorAzure:
		if cfg.Endpoint == "" || cfg.Deployment == "" {
			return "", errors.New("embedding: azure needs an endpoint and a deployment")
		}
		u := strings.TrimRight(cfg.Endpoint, "/") + "/openai/deployments/" + url.PathEscape(cfg.Deployment) + "/embeddings"
		if cfg.APIVersion != "" {
			u += "?api-version=" + url.QueryEscape(cfg.APIVersion)
		}
		return u, nil
	case FlavorOpenAI:
		if cfg.Model == "" {
			return "", errors.New("embedding: openai needs a model")
		}
		base := cfg.Endpoint
		if base == "" {
			base = DefaultOpenAIEndpoint
		}
		return strings.TrimRight(base, "/") + "/embeddings", nil
	}
	return "", fmt.Errorf("embedding: unknown flavor %q", cfg.Flavor)
}

type embedRequest struct {
	Input      string `json:"input"`
	Model      string `json:"model,omitempty"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding of text, retrying rate limits and server
// errors up to MaxRetries times.
func (c *Client) Embed(ctx context.Context, text string) (Vector, error) {
	req := embedRequest{Input: text, Dimensions: c.cfg.Dimensions}
	if c.cfg.Flavor == FlavorOpenAI {
		req.Model = c.cfg.Model
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	delay := c.cfg.Backoff
	for attempt := 0; ; attempt++ {
		vec, err := c.embedOnce(ctx, body)
		if err == nil {
			return vec, nil
		}
		if attempt >= c.cfg.MaxRetries || !retryable(err) || ctx.Err() != nil {
			return nil, fmt.Errorf("embedding: %w", err)
		}
		c.logger.WarnContext(ctx, "embedding request failed, retrying",
			"attempt", attempt+1, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("embedding: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	return !errors.Is(err, ErrDimension) && !errors.Is(err, errDecode)
}

var errDecode = errors.New("malformed response")

// postJSON sends one POST request and returns the body of a 2xx reply.
func (c *Client) postJSON(ctx context.Context, reqBody []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		if c.cfg.Flavor == FlavorAzure {
			req.Header.Set("api-key", c.cfg.APIKey)
		} else {
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 512)}
	}
	return body, nil
}

func (c *Client) embedOnce(ctx context.Context, reqBody []byte) (Vector, error) {
	body, err := c.postJSON(ctx, reqBody)
	if err != nil {
		return nil, err
	}

	var resp embedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", errDecode, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: no embedding in reply", errDecode)
	}

	vec := Vector(resp.Data[0].Embedding)
	if c.cfg.Dimensions > 0 && len(vec) != c.cfg.Dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(vec), c.cfg.Dimensions)
	}
	return vec, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
