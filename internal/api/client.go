// internal/api/client.go

// Package api wraps the TapSwap mission endpoints. Every call returns the
// updated account snapshot on success; failures are logged with truncated
// response context and surfaced as typed errors so callers can tell a
// transient fault from a rejected answer.
package api

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

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/prognt/TapSwapBot/internal/model"
)

// ErrInvalidAnswer reports that the server rejected a submitted answer.
// This is a business rejection, not a transient fault: the stored answer
// needs operator correction, and no backoff is applied.
var ErrInvalidAnswer = errors.New("invalid answer")

// RequestError is returned for transport failures, non-2xx responses, and
// undecodable bodies.
type RequestError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s returned status %d", e.Op, e.Status)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// bodyTruncateLen caps how much response body lands in the logs.
const bodyTruncateLen = 128

// defaultBackoff is the pause after a transient failure; successive runs of
// the driver pick the call up again, there is no in-call retry.
const defaultBackoff = 3 * time.Second

// Client handles communication with the TapSwap API.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	log        zerolog.Logger
	backoff    time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// New creates a new API client.
func New(baseURL string, log zerolog.Logger) *Client {
	backoff := viper.GetDuration("delays.backoff")
	if backoff == 0 {
		backoff = defaultBackoff
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
		backoff:    backoff,
		sleep:      sleepContext,
	}
}

// SetAuthToken sets the bearer token attached to every request.
func (c *Client) SetAuthToken(token string) {
	c.authToken = token
}

// Login bootstraps the session: it exchanges the Telegram webview init data
// for the initial account snapshot.
func (c *Client) Login(ctx context.Context, initData string) (*model.AccountData, error) {
	body := struct {
		InitData string `json:"init_data"`
	}{InitData: initData}

	status, raw, err := c.post(ctx, "/api/account/login", body)
	if err != nil {
		return c.fail(ctx, "login", 0, nil, err)
	}
	if status < 200 || status > 299 {
		return c.fail(ctx, "login", status, raw, nil)
	}
	return c.decode(ctx, "login", status, raw)
}

// JoinMission joins the mission for the current account.
func (c *Client) JoinMission(ctx context.Context, missionID string) (*model.AccountData, error) {
	body := struct {
		ID string `json:"id"`
	}{ID: missionID}

	status, raw, err := c.post(ctx, "/api/missions/join_mission", body)
	if err != nil {
		return c.fail(ctx, "join_mission", 0, nil, err)
	}
	if status < 200 || status > 299 {
		return c.fail(ctx, "join_mission", status, raw, nil)
	}
	return c.decode(ctx, "join_mission", status, raw)
}

// FinishMissionItem starts or verifies one mission item. An empty userInput
// registers a start; a non-empty one submits the answer for verification.
func (c *Client) FinishMissionItem(ctx context.Context, missionID string, itemIndex int, userInput string) (*model.AccountData, error) {
	body := struct {
		ID        string `json:"id"`
		ItemIndex int    `json:"itemIndex"`
		UserInput string `json:"user_input,omitempty"`
	}{ID: missionID, ItemIndex: itemIndex, UserInput: userInput}

	status, raw, err := c.post(ctx, "/api/missions/finish_mission_item", body)
	if err != nil {
		return c.fail(ctx, "finish_mission_item", 0, nil, err)
	}

	if status == http.StatusBadRequest {
		var rejection struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &rejection) == nil && rejection.Message == "invalid_answer" {
			c.log.Warn().
				Str("mission", missionID).
				Int("item", itemIndex).
				Str("answer", userInput).
				Msg("Wrong answer for mission item")
			return nil, ErrInvalidAnswer
		}
	}

	if status < 200 || status > 299 {
		return c.fail(ctx, "finish_mission_item", status, raw, nil)
	}
	return c.decode(ctx, "finish_mission_item", status, raw)
}

// FinishMission submits the final completion call for a mission whose items
// have all verified.
func (c *Client) FinishMission(ctx context.Context, missionID string) (*model.AccountData, error) {
	body := struct {
		ID string `json:"id"`
	}{ID: missionID}

	status, raw, err := c.post(ctx, "/api/missions/finish_mission", body)
	if err != nil {
		return c.fail(ctx, "finish_mission", 0, nil, err)
	}
	if status < 200 || status > 299 {
		return c.fail(ctx, "finish_mission", status, raw, nil)
	}
	return c.decode(ctx, "finish_mission", status, raw)
}

// post issues one JSON POST and returns the status and raw body. Transport
// errors are returned as-is; status handling is up to the caller.
func (c *Client) post(ctx context.Context, path string, body any) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response body: %w", err)
	}
	return resp.StatusCode, raw, nil
}

// decode parses a successful response into an account snapshot.
func (c *Client) decode(ctx context.Context, op string, status int, raw []byte) (*model.AccountData, error) {
	var data model.AccountData
	if err := json.Unmarshal(raw, &data); err != nil {
		return c.fail(ctx, op, status, raw, err)
	}
	return &data, nil
}

// fail logs the failure with truncated body context, applies the transient
// backoff, and returns the typed error. The nil snapshot tells callers no
// progress was possible on this call.
func (c *Client) fail(ctx context.Context, op string, status int, raw []byte, err error) (*model.AccountData, error) {
	truncated := truncate(string(raw), bodyTruncateLen)
	c.log.Error().
		Str("op", op).
		Int("status", status).
		Str("body", truncated).
		Err(err).
		Msg("API request failed")

	_ = c.sleep(ctx, c.backoff)

	return nil, &RequestError{Op: op, Status: status, Body: truncated, Err: err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// sleepContext pauses for d or until ctx is canceled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
