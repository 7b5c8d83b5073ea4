// Package upstream wraps the external assessment API and the static
// sentiment documents behind typed accessors with a staleness-window cache.
// All score computation happens upstream; this layer only fetches, decodes
// and caches.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/ndiaye/readiness-dashboard/internal/models"
)

type Client struct {
	registry   *Registry
	httpClient *http.Client
	cache      *Cache
}

func NewClient(registry *Registry) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		registry: registry,
		httpClient: &http.Client{
			Timeout:   time.Duration(registry.Fetch.TimeoutSeconds) * time.Second,
			Transport: transport,
		},
		cache: NewCache(time.Duration(registry.Fetch.CacheTTLMinutes) * time.Minute),
	}
}

// Invalidate drops the cached copy of a named resource.
func (c *Client) Invalidate(key string) {
	c.cache.Invalidate(key)
}

// InvalidateParticipant drops every cached resource of one stakeholder.
func (c *Client) InvalidateParticipant(name string) {
	c.cache.InvalidatePrefix("participant:" + name + ":")
}

// Typed accessors. Each one resolves the endpoint from the registry, honors
// the staleness window, and decodes into the explicit shape.

func (c *Client) Sectors(ctx context.Context) ([]string, error) {
	var sectors []string
	if err := c.getJSON(ctx, "sectors", "sectors", nil, &sectors); err != nil {
		return nil, err
	}
	return sectors, nil
}

func (c *Client) Participants(ctx context.Context) ([]models.Stakeholder, error) {
	var participants []models.Stakeholder
	if err := c.getJSON(ctx, "participants", "participants", nil, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}

func (c *Client) Dashboard(ctx context.Context) (*models.DashboardSummary, error) {
	var summary models.DashboardSummary
	if err := c.getJSON(ctx, "dashboard", "dashboard", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) ParticipantPlan(ctx context.Context, name string) (*models.ParticipantPlan, error) {
	var plan models.ParticipantPlan
	key := "participant:" + name + ":plan"
	if err := c.getJSON(ctx, "participant_plan", key, map[string]string{"name": name}, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (c *Client) ParticipantPresence(ctx context.Context, name string) (*models.ParticipantPresence, error) {
	var presence models.ParticipantPresence
	key := "participant:" + name + ":presence"
	if err := c.getJSON(ctx, "participant_presence", key, map[string]string{"name": name}, &presence); err != nil {
		return nil, err
	}
	return &presence, nil
}

func (c *Client) ParticipantJustifications(ctx context.Context, name string) ([]models.Justification, error) {
	var justifications []models.Justification
	key := "participant:" + name + ":justifications"
	if err := c.getJSON(ctx, "participant_justifications", key, map[string]string{"name": name}, &justifications); err != nil {
		return nil, err
	}
	return justifications, nil
}

func (c *Client) ParticipantOpportunities(ctx context.Context, name string) ([]models.OpportunityItem, error) {
	var opportunities []models.OpportunityItem
	key := "participant:" + name + ":opportunities"
	if err := c.getJSON(ctx, "participant_opportunities", key, map[string]string{"name": name}, &opportunities); err != nil {
		return nil, err
	}
	return opportunities, nil
}

// SentimentRecords fetches one static sentiment document, keyed by review
// source (e.g. "local", "ito") and country code.
func (c *Client) SentimentRecords(ctx context.Context, source, country string) ([]models.SentimentRecord, error) {
	var records []models.SentimentRecord
	key := "sentiment:" + source + ":" + country
	params := map[string]string{"source": source, "country": country}
	if err := c.getJSON(ctx, "sentiment", key, params, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// getJSON fetches an endpoint through the cache and decodes the body into
// out. 404 maps to ErrNotFound; transport failures and other non-2xx become
// a *NetworkError. Responses fetched under an already-canceled context are
// never written to the cache.
func (c *Client) getJSON(ctx context.Context, endpoint, cacheKey string, params map[string]string, out any) error {
	if raw, ok := c.cache.Get(cacheKey); ok {
		return decodeJSON(raw, cacheKey, out)
	}

	fullURL, err := c.registry.URL(endpoint, params)
	if err != nil {
		return err
	}

	raw, err := c.fetch(ctx, fullURL)
	if err != nil {
		return err
	}

	if ctx.Err() == nil {
		c.cache.Set(cacheKey, raw)
	}
	return decodeJSON(raw, cacheKey, out)
}

func decodeJSON(raw []byte, key string, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// fetch performs the GET with retries and exponential backoff on transient
// failures (timeouts, 429, 5xx).
func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.registry.Fetch.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 0.5s, 1s, 2s + jitter
			backoff := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
			jitter := time.Duration(rand.Intn(100)) * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff + jitter):
			}
		}

		req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if shouldRetry(err, 0) {
				continue
			}
			return nil, &NetworkError{URL: fullURL, Err: err}
		}

		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return nil, fmt.Errorf("%s: %w", fullURL, ErrNotFound)
		}

		if resp.StatusCode == http.StatusOK {
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, &NetworkError{URL: fullURL, Err: err}
			}
			return body, nil
		}

		resp.Body.Close()
		if shouldRetry(nil, resp.StatusCode) {
			lastErr = fmt.Errorf("status code %d", resp.StatusCode)
			continue
		}
		return nil, &NetworkError{URL: fullURL, Status: resp.StatusCode}
	}

	return nil, &NetworkError{URL: fullURL, Err: fmt.Errorf("max retries exceeded: %w", lastErr)}
}

// shouldRetry determines if an error or status code should trigger a retry.
func shouldRetry(err error, statusCode int) bool {
	if err != nil {
		if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
			return true
		}
		return false
	}

	retryStatusCodes := map[int]bool{
		429: true, // Too Many Requests
		500: true, // Internal Server Error
		502: true, // Bad Gateway
		503: true, // Service Unavailable
		504: true, // Gateway Timeout
	}
	return retryStatusCodes[statusCode]
}
