// Package progressapi implements the client for the remote Progress Service,
// the authoritative but slow/unreliable record the engine reconciles
// against. Every failure here is survivable: the synchronizer logs it and
// waits for its next tick, so the client focuses on not making a struggling
// backend worse - rate limiting, bounded retries, and a circuit breaker.
package progressapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/impranzal/brainBuddy-sub000/internal/domain/shared"
	"github.com/impranzal/brainBuddy-sub000/pkg/circuitbreaker"
	"github.com/impranzal/brainBuddy-sub000/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the Progress Service client.
type ClientConfig struct {
	// BaseURL is the Progress Service base URL.
	BaseURL string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// RateLimiterConfig for client-side request budgeting.
	RateLimiterConfig RateLimiterConfig

	// CircuitBreakerConfig for fault tolerance.
	CircuitBreakerConfig circuitbreaker.Config

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:              baseURL,
		Timeout:              15 * time.Second,
		RateLimiterConfig:    DefaultRateLimiterConfig(),
		CircuitBreakerConfig: circuitbreaker.DefaultConfig("progress-service"),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client talks to the Progress Service. All calls require a bearer
// credential; a missing or rejected credential maps to
// shared.ErrServiceUnavailable rather than a hard error, per the engine's
// degradation contract.
type Client struct {
	config         ClientConfig
	httpClient     *http.Client
	logger         *slog.Logger
	rateLimiter    *RateLimiter
	circuitBreaker *circuitbreaker.CircuitBreaker
	retrier        *retry.Retrier
}

// NewClient creates a new Progress Service client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &Client{
		config:         config,
		httpClient:     &http.Client{Timeout: config.Timeout},
		logger:         config.Logger,
		rateLimiter:    NewRateLimiter(config.RateLimiterConfig),
		circuitBreaker: circuitbreaker.New(config.CircuitBreakerConfig),
		retrier:        retry.ProgressAPIRetrier(),
	}
}

// GetProgress fetches the remote authoritative progress record.
func (c *Client) GetProgress(ctx context.Context, token string) (ProgressDTO, error) {
	var response APIResponse[ProgressDTO]
	if err := c.doRequest(ctx, token, http.MethodGet, "/api/v1/progress", nil, &response); err != nil {
		return ProgressDTO{}, fmt.Errorf("get progress: %w", err)
	}
	if !response.Success {
		return ProgressDTO{}, shared.WrapError("sync", "GetProgress",
			shared.ErrExternalService, "api error", fmt.Errorf("%s", response.Error))
	}
	return response.Data, nil
}

// PutXP pushes the local xp value.
func (c *Client) PutXP(ctx context.Context, token string, xp int) error {
	if err := c.doRequest(ctx, token, http.MethodPut, "/api/v1/progress/xp", xpUpdateDTO{XP: xp}, nil); err != nil {
		return fmt.Errorf("put xp: %w", err)
	}
	return nil
}

// PutStreak pushes the local streak value.
func (c *Client) PutStreak(ctx context.Context, token string, streakDays int) error {
	if err := c.doRequest(ctx, token, http.MethodPut, "/api/v1/progress/streak", streakUpdateDTO{StreakDays: streakDays}, nil); err != nil {
		return fmt.Errorf("put streak: %w", err)
	}
	return nil
}

// PutLevel pushes the locally derived level. Advisory only: the remote never
// overrides what the engine recomputes from XP.
func (c *Client) PutLevel(ctx context.Context, token string, level int) error {
	if err := c.doRequest(ctx, token, http.MethodPut, "/api/v1/progress/level", levelUpdateDTO{Level: level}, nil); err != nil {
		return fmt.Errorf("put level: %w", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSPORT
// ══════════════════════════════════════════════════════════════════════════════

// doRequest runs one API call through the rate limiter, circuit breaker, and
// retrier, decoding the response into out when out is non-nil.
func (c *Client) doRequest(ctx context.Context, token, method, path string, body, out interface{}) error {
	if token == "" {
		return shared.NewDomainError("sync", "doRequest",
			shared.ErrServiceUnavailable, "no session credential")
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	return c.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.execute(ctx, token, method, path, body, out)
		})
	})
}

func (c *Client) execute(ctx context.Context, token, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return retry.Permanent(fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.Retryable(fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return retry.Retryable(fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// Credential rejection is "service unavailable" for the engine,
		// never a hard error.
		return retry.Permanent(shared.WrapError("sync", "execute",
			shared.ErrServiceUnavailable, "credential rejected", shared.ErrUnauthorized))
	case resp.StatusCode == http.StatusTooManyRequests:
		return retry.Retryable(shared.NewDomainError("sync", "execute",
			shared.ErrRateLimited, "rate limited by progress service"))
	case resp.StatusCode >= 500:
		return retry.Retryable(fmt.Errorf("server error %d: %s", resp.StatusCode, truncate(respBody)))
	case resp.StatusCode >= 400:
		return retry.Permanent(fmt.Errorf("request failed %d: %s", resp.StatusCode, truncate(respBody)))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return retry.Permanent(fmt.Errorf("parse response: %w", err))
		}
	}
	return nil
}

func truncate(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
