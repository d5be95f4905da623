// Package client is the HTTP half of the sync loop: it speaks the fokusd
// JSON API and satisfies the sync.Remote contract.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fokuslabs/fokus/internal/focus"
	"github.com/fokuslabs/fokus/internal/store"
)

// ErrUnauthorized mirrors the server's hard auth failure.
var ErrUnauthorized = errors.New("unauthorized")

const requestTimeout = 10 * time.Second

// Client calls a fokusd server. The zero value is not usable; use New.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New builds a client for the server at baseURL. An empty token is fine;
// the server then maps requests to its demo identity.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

type snapshotResponse struct {
	State     focus.State `json:"state"`
	Watermark time.Time   `json:"watermark"`
}

type syncResponse struct {
	Watermark time.Time `json:"watermark"`
}

// FetchState pulls the server snapshot plus its watermark.
func (c *Client) FetchState(ctx context.Context) (focus.State, time.Time, error) {
	var resp snapshotResponse
	if err := c.do(ctx, http.MethodGet, "/api/focus/state", nil, &resp); err != nil {
		return focus.State{}, time.Time{}, err
	}
	return resp.State, resp.Watermark, nil
}

// PushState uploads the full local state.
func (c *Client) PushState(ctx context.Context, state focus.State) error {
	var resp syncResponse
	return c.do(ctx, http.MethodPost, "/api/focus/sync", state, &resp)
}

// PanicRequest is one press of the panic button.
type PanicRequest struct {
	CategoryID   string `json:"categoryId,omitempty"`
	BlockID      string `json:"blockId,omitempty"`
	Urge         *int   `json:"urge,omitempty"`
	Emotion      string `json:"emotion,omitempty"`
	ChosenAction string `json:"chosenAction,omitempty"`
}

// LogPanic records a panic event on the server.
func (c *Client) LogPanic(ctx context.Context, req PanicRequest) error {
	return c.do(ctx, http.MethodPost, "/api/panic", req, nil)
}

// CheckinResponse pairs today's log with the derived recommendation.
type CheckinResponse struct {
	Log            *store.DailyLog      `json:"log"`
	Recommendation store.Recommendation `json:"recommendation"`
}

// TodayCheckin fetches today's check-in, nil Log when none exists yet.
func (c *Client) TodayCheckin(ctx context.Context) (CheckinResponse, error) {
	var resp CheckinResponse
	err := c.do(ctx, http.MethodGet, "/api/checkin/today", nil, &resp)
	return resp, err
}

// SaveCheckin upserts today's check-in and returns the saved log plus the
// recommendation for the rest of the day.
func (c *Client) SaveCheckin(ctx context.Context, log store.DailyLog) (CheckinResponse, error) {
	var resp CheckinResponse
	err := c.do(ctx, http.MethodPost, "/api/checkin/today", log, &resp)
	return resp, err
}

// Stats fetches the dashboard aggregates for the trailing window.
func (c *Client) Stats(ctx context.Context, days int) (store.DashboardStats, error) {
	var stats store.DashboardStats
	path := fmt.Sprintf("/api/stats?days=%d", days)
	err := c.do(ctx, http.MethodGet, path, nil, &stats)
	return stats, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
