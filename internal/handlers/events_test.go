package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jwebster45206/defcon/internal/services/events"
	"github.com/jwebster45206/defcon/pkg/game"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sseEvent struct {
	name string
	data string
}

func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.name != "" {
				return ev
			}
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEventsHandler_StreamsPlayerMessages(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	b := events.NewBroadcaster(rdb, testLogger())

	mux := http.NewServeMux()
	NewEventsHandler(b, testLogger()).Register(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	gameID := uuid.New()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/games/"+gameID.String()+"/players/1001/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	assert.Equal(t, "connected", readEvent(t, r).name)

	require.NoError(t, b.Send(ctx, gameID, "1001", game.Message{Kind: game.MessageEvent, Body: "Quiet night."}))
	ev := readEvent(t, r)
	assert.Equal(t, string(events.EventTypePlayerMessage), ev.name)
	var got events.Event
	require.NoError(t, json.Unmarshal([]byte(ev.data), &got))
	require.NotNil(t, got.Message)
	assert.Equal(t, "Quiet night.", got.Message.Body)

	require.NoError(t, b.PublishGameStatus(ctx, game.Snapshot{ID: gameID, Status: "ended"}))
	assert.Equal(t, string(events.EventTypeGameStatus), readEvent(t, r).name)
}

func TestEventsHandler_BadGameID(t *testing.T) {
	mux := http.NewServeMux()
	NewEventsHandler(nil, testLogger()).Register(mux)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/games/nope/players/1/events", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
