package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/defcon/pkg/actor"
	"github.com/jwebster45206/defcon/pkg/content"
	"github.com/jwebster45206/defcon/pkg/game"
	queuePkg "github.com/jwebster45206/defcon/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingQueue struct {
	mu   sync.Mutex
	reqs []*queuePkg.Request
	err  error
}

func (q *recordingQueue) Enqueue(ctx context.Context, req *queuePkg.Request) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.reqs = append(q.reqs, req)
	return nil
}

type recordingStatus struct {
	mu    sync.Mutex
	snaps []game.Snapshot
}

func (s *recordingStatus) PublishGameStatus(ctx context.Context, snap game.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
	return nil
}

type fixture struct {
	mux     *http.ServeMux
	manager *game.Manager
	queue   *recordingQueue
	status  *recordingStatus
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	a, err := actor.New("Chief of Staff", "", content.ForAll(content.NewTemplate("All quiet in {nation_name}.")))
	require.NoError(t, err)
	reg, err := actor.NewRegistry(a)
	require.NoError(t, err)

	m := game.NewManager(reg, game.NewMockDelivery(), testLogger(), game.WithUnits(time.Second, time.Millisecond))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = m.Shutdown(ctx)
	})

	f := &fixture{
		mux:     http.NewServeMux(),
		manager: m,
		queue:   &recordingQueue{},
		status:  &recordingStatus{},
	}
	NewGameHandler(m, f.queue, f.status, testLogger()).Register(f.mux)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body == nil {
		req.ContentLength = 0
	}
	rr := httptest.NewRecorder()
	f.mux.ServeHTTP(rr, req)
	return rr
}

func (f *fixture) create(t *testing.T) game.Snapshot {
	t.Helper()
	rr := f.do(t, http.MethodPost, "/v1/games", CreateGameRequest{Duration: ptr(13.0)})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	return snap
}

func ptr[T any](v T) *T { return &v }

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error
}

func TestCreateAndRead(t *testing.T) {
	f := newFixture(t)
	snap := f.create(t)
	assert.Equal(t, "created", snap.Status)
	assert.Equal(t, 1, snap.Stage)
	assert.Equal(t, 13.0, snap.Duration)

	rr := f.do(t, http.MethodGet, "/v1/games/"+snap.ID.String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	rr = f.do(t, http.MethodPost, "/v1/games", nil)
	assert.Equal(t, http.StatusCreated, rr.Code, "body is optional")
}

func TestCreate_Rejects(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/games", strings.NewReader("{nope"))
	rr := httptest.NewRecorder()
	f.mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodPost, "/v1/games", CreateGameRequest{Duration: ptr(-1.0)})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRead_NotFoundAndBadID(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/v1/games/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(t, http.MethodGet, "/v1/games/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid game ID format", decodeError(t, rr))
}

func TestJoinAndLeave(t *testing.T) {
	f := newFixture(t)
	snap := f.create(t)
	base := "/v1/games/" + snap.ID.String()

	rr := f.do(t, http.MethodPost, base+"/players", JoinRequest{PlayerID: "1001"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var view game.PlayerView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "1001", view.ID)
	assert.NotEmpty(t, view.State.NationName)

	rr = f.do(t, http.MethodPost, base+"/players", JoinRequest{PlayerID: "1001"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = f.do(t, http.MethodPost, base+"/players", JoinRequest{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodDelete, base+"/players/1001", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.do(t, http.MethodDelete, base+"/players/1001", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStartStop(t *testing.T) {
	f := newFixture(t)
	snap := f.create(t)
	base := "/v1/games/" + snap.ID.String()

	rr := f.do(t, http.MethodPost, base+"/start", nil)
	assert.Equal(t, http.StatusConflict, rr.Code, "no players yet")

	f.do(t, http.MethodPost, base+"/players", JoinRequest{PlayerID: "1001"})

	rr = f.do(t, http.MethodPost, base+"/start", nil)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	rr = f.do(t, http.MethodPost, base+"/start", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = f.do(t, http.MethodPost, base+"/stop", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var stopped game.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stopped))
	assert.Equal(t, "ended", stopped.Status)

	f.status.mu.Lock()
	defer f.status.mu.Unlock()
	require.Len(t, f.status.snaps, 2)
	assert.Equal(t, "ended", f.status.snaps[1].Status)
}

func TestChoice_Enqueued(t *testing.T) {
	f := newFixture(t)
	snap := f.create(t)
	base := "/v1/games/" + snap.ID.String()
	f.do(t, http.MethodPost, base+"/players", JoinRequest{PlayerID: "1001"})

	rr := f.do(t, http.MethodPost, base+"/players/1001/choices", ChoiceRequest{PromptID: "p-1", Label: "Deploy"})
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	var accepted ChoiceAccepted
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &accepted))

	require.Len(t, f.queue.reqs, 1)
	got := f.queue.reqs[0]
	assert.Equal(t, accepted.RequestID, got.RequestID)
	assert.Equal(t, snap.ID, got.GameID)
	assert.Equal(t, "1001", got.PlayerID)
	assert.Equal(t, "p-1", got.PromptID)
	assert.Equal(t, "Deploy", got.Label)
}

func TestChoice_Rejects(t *testing.T) {
	f := newFixture(t)
	snap := f.create(t)
	base := "/v1/games/" + snap.ID.String()
	f.do(t, http.MethodPost, base+"/players", JoinRequest{PlayerID: "1001"})

	rr := f.do(t, http.MethodPost, base+"/players/9999/choices", ChoiceRequest{PromptID: "p", Label: "x"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(t, http.MethodPost, base+"/players/1001/choices", ChoiceRequest{PromptID: "p"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeError(t, rr), "label")

	f.queue.err = errors.New("redis down")
	rr = f.do(t, http.MethodPost, base+"/players/1001/choices", ChoiceRequest{PromptID: "p", Label: "x"})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.NotContains(t, rr.Body.String(), "redis")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(game.ErrGameNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(game.ErrPlayerExists))
	assert.Equal(t, http.StatusConflict, statusFor(game.ErrGameEnded))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}
