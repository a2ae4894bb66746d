// Package runner drives a running defcon server over HTTP for integration tests.
package runner

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/defcon/internal/handlers"
	"github.com/jwebster45206/defcon/internal/services/events"
	"github.com/jwebster45206/defcon/pkg/game"
)

// Client wraps the command surface of one server.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
	Logger  func(format string, args ...any)
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Logger:  func(string, ...any) {},
	}
}

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Body)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		buf = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	c.Logger("%s %s -> %d", method, path, resp.StatusCode)
	if resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: string(data)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) CreateGame(ctx context.Context, req handlers.CreateGameRequest) (game.Snapshot, error) {
	var snap game.Snapshot
	err := c.do(ctx, http.MethodPost, "/v1/games", req, &snap)
	return snap, err
}

func (c *Client) Game(ctx context.Context, id uuid.UUID) (game.Snapshot, error) {
	var snap game.Snapshot
	err := c.do(ctx, http.MethodGet, "/v1/games/"+id.String(), nil, &snap)
	return snap, err
}

func (c *Client) Join(ctx context.Context, id uuid.UUID, playerID string) (game.PlayerView, error) {
	var view game.PlayerView
	err := c.do(ctx, http.MethodPost, "/v1/games/"+id.String()+"/players", handlers.JoinRequest{PlayerID: playerID}, &view)
	return view, err
}

func (c *Client) Leave(ctx context.Context, id uuid.UUID, playerID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/games/"+id.String()+"/players/"+playerID, nil, nil)
}

func (c *Client) Start(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/v1/games/"+id.String()+"/start", nil, nil)
}

func (c *Client) Stop(ctx context.Context, id uuid.UUID) (game.Snapshot, error) {
	var snap game.Snapshot
	err := c.do(ctx, http.MethodPost, "/v1/games/"+id.String()+"/stop", nil, &snap)
	return snap, err
}

func (c *Client) Choose(ctx context.Context, id uuid.UUID, playerID, promptID, label string) (string, error) {
	var accepted handlers.ChoiceAccepted
	body := handlers.ChoiceRequest{PromptID: promptID, Label: label}
	err := c.do(ctx, http.MethodPost, "/v1/games/"+id.String()+"/players/"+playerID+"/choices", body, &accepted)
	return accepted.RequestID, err
}

// Stream opens the player's event stream. Events are sent on the returned
// channel until ctx is done or the server closes the stream.
func (c *Client) Stream(ctx context.Context, id uuid.UUID, playerID string) (<-chan events.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/games/"+id.String()+"/players/"+playerID+"/events", nil)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	// The shared client's timeout would cut the stream.
	resp, err := (&http.Client{Transport: c.HTTP.Transport}).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	out := make(chan events.Event, 16)
	go func() {
		defer close(out)
		defer func() {
			_ = resp.Body.Close()
		}()
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			data, ok := strings.CutPrefix(scanner.Text(), "data: ")
			if !ok {
				continue
			}
			e, err := events.Decode(data)
			if err != nil || e.Type == "" {
				continue
			}
			select {
			case out <- *e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Next waits for the first event of the given type.
func Next(ctx context.Context, stream <-chan events.Event, typ events.EventType) (events.Event, error) {
	for {
		select {
		case e, ok := <-stream:
			if !ok {
				return events.Event{}, fmt.Errorf("stream closed before %s", typ)
			}
			if e.Type == typ {
				return e, nil
			}
		case <-ctx.Done():
			return events.Event{}, fmt.Errorf("waiting for %s: %w", typ, ctx.Err())
		}
	}
}
