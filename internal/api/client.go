// Package api is the JSON-over-HTTPS client for the clinic gateway. Every
// response arrives in a {success, message, data, meta?} envelope; every
// failure is normalized to *Error before it reaches callers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// TokenFunc supplies the current bearer token, empty for guests.
type TokenFunc func() string

// Client talks to the clinic API gateway.
type Client struct {
	mu      sync.RWMutex
	baseURL string

	httpClient     *http.Client
	tokenFn        TokenFunc
	onUnauthorized func()
	logger         zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client for the given base URL.
func NewClient(baseURL string, tokenFn TokenFunc, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		tokenFn:    tokenFn,
		logger:     logger,
	}
}

// SetBaseURL switches the gateway at runtime (user-overridable endpoint).
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// BaseURL returns the gateway currently in use.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// OnUnauthorized registers the hook fired on any 401 response.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// UseRedisCache enables caching of selected GET endpoints. Keys carry the
// full parameter tuple so a response for superseded parameters can never be
// served for the current ones.
func (c *Client) UseRedisCache(rdb *redis.Client, ttl time.Duration) {
	c.redis = rdb
	c.cacheTTL = ttl
}

// Meta is the pagination block of list responses.
type Meta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	Total       int `json:"total"`
}

// HasMore reports whether further pages exist.
func (m *Meta) HasMore() bool {
	return m != nil && m.CurrentPage < m.LastPage
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    *Meta           `json:"meta,omitempty"`
}

// get performs a GET with a single automatic retry on retryable failures.
// When cacheKey is non-empty and a redis cache is configured, the decoded
// payload and its pagination meta are served from and written back to the
// cache, so a cache hit is indistinguishable from a fresh read.
func (c *Client) get(ctx context.Context, path string, query url.Values, cacheKey string, out any) (*Meta, error) {
	if cacheKey != "" {
		if meta, ok := c.readCache(ctx, cacheKey, out); ok {
			return meta, nil
		}
	}

	var meta *Meta
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		meta, lastErr = c.roundTrip(ctx, http.MethodGet, path, query, nil, out)
		if lastErr == nil {
			if cacheKey != "" {
				c.writeCache(ctx, cacheKey, out, meta)
			}
			return meta, nil
		}
		apiErr, ok := AsError(lastErr)
		if !ok || !apiErr.Retryable() {
			break
		}
	}
	return nil, lastErr
}

// send performs a mutation. Mutations are never retried automatically.
func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	_, err := c.roundTrip(ctx, method, path, nil, body, out)
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body, out any) (*Meta, error) {
	endpoint := c.BaseURL() + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokenFn(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return nil, normalizeTransport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, normalizeTransport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := normalizeStatus(resp.StatusCode, raw)
		if apiErr.Kind == KindAuth && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, apiErr
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &Error{Kind: KindServer, Status: resp.StatusCode, Message: "malformed response", cause: err}
	}
	if !env.Success {
		return nil, &Error{Kind: KindServer, Status: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, &Error{Kind: KindServer, Status: resp.StatusCode, Message: "malformed response data", cause: err}
		}
	}
	return env.Meta, nil
}

// cacheEntry is the stored shape of a cached read: the decoded payload
// together with its pagination meta.
type cacheEntry struct {
	Data json.RawMessage `json:"data"`
	Meta *Meta           `json:"meta,omitempty"`
}

func (c *Client) readCache(ctx context.Context, key string, out any) (*Meta, bool) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return nil, false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}
	var entry cacheEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, false
	}
	if out != nil && len(entry.Data) > 0 {
		if err := json.Unmarshal(entry.Data, out); err != nil {
			return nil, false
		}
	}
	return entry.Meta, true
}

func (c *Client) writeCache(ctx context.Context, key string, val any, meta *Meta) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(val)
	if err != nil {
		return
	}
	data, err := json.Marshal(cacheEntry{Data: payload, Meta: meta})
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.cacheTTL).Err(); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache write failed")
	}
}
