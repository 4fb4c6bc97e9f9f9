package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/raceboard/go/internal/racewindow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

type staticSource []racewindow.Entry

func (s staticSource) Snapshot() []racewindow.Entry { return s }

type activationFunc func(ctx context.Context, a racewindow.Activation) (racewindow.Navigation, error)

func (f activationFunc) Activate(ctx context.Context, a racewindow.Activation) (racewindow.Navigation, error) {
	return f(ctx, a)
}

func entry(id, remaining string) racewindow.Entry {
	return racewindow.Entry{ID: id, Name: "Race " + id, Time: "2026-10-18T12:05:00Z", Remaining: remaining}
}

func newTestGateway(t *testing.T, source BoardSource, activations racewindow.ActivationHandler) (*Service, *httptest.Server) {
	t.Helper()
	svc := NewService(Config{
		ConnectionConfig: DefaultConnectionConfig(),
		Clock:            clockwork.NewFakeClockAt(baseTime),
	}, source, activations)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = svc.Start(ctx)
	}()

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)

	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return svc, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/board"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) BoardEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var event BoardEvent
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func windowOf(t *testing.T, event BoardEvent) []racewindow.Entry {
	t.Helper()
	var payload WindowPayload
	require.NoError(t, json.Unmarshal(event.Data, &payload))
	return payload.Entries
}

func TestConnectSendsCurrentWindow(t *testing.T) {
	_, srv := newTestGateway(t, staticSource{entry("a", "00:05:00")}, nil)

	conn := dial(t, srv)
	event := readEvent(t, conn)

	assert.Equal(t, EventTypeWindowRendered, event.Type)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, baseTime, event.Timestamp.UTC())
	entries := windowOf(t, event)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].ID)
}

// renderingSource renders a new window from inside its first Snapshot,
// the way the engine can render while a client is connecting.
type renderingSource struct {
	svc     *Service
	entries []racewindow.Entry

	mu   sync.Mutex
	seen []int
}

func (s *renderingSource) Snapshot() []racewindow.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, s.svc.connectionManager.ConnectionCount())
	if len(s.seen) == 1 {
		s.svc.Render(s.entries)
	}
	return s.entries
}

func TestConnectSnapshotsAfterRegistration(t *testing.T) {
	svc, srv := newTestGateway(t, nil, nil)
	source := &renderingSource{svc: svc, entries: []racewindow.Entry{entry("b", "00:06:00")}}
	svc.SetSource(source)

	conn := dial(t, srv)

	// both the render and the initial snapshot reach the new client
	for i := 0; i < 2; i++ {
		event := readEvent(t, conn)
		assert.Equal(t, EventTypeWindowRendered, event.Type)
		entries := windowOf(t, event)
		require.Len(t, entries, 1)
		assert.Equal(t, "b", entries[0].ID)
	}

	source.mu.Lock()
	defer source.mu.Unlock()
	assert.Equal(t, []int{1}, source.seen, "snapshot must be taken once the connection is registered")
}

func TestRenderAndRefreshAreBroadcast(t *testing.T) {
	svc, srv := newTestGateway(t, nil, nil)

	conn := dial(t, srv)
	initial := readEvent(t, conn)
	assert.Empty(t, windowOf(t, initial))

	svc.Render([]racewindow.Entry{entry("a", "00:05:00"), entry("b", "00:06:00")})
	rendered := readEvent(t, conn)
	assert.Equal(t, EventTypeWindowRendered, rendered.Type)
	assert.Len(t, windowOf(t, rendered), 2)

	svc.Refresh([]racewindow.Entry{entry("a", "00:04:59"), entry("b", "00:05:59")})
	tick := readEvent(t, conn)
	assert.Equal(t, EventTypeCountdownTick, tick.Type)
	assert.Equal(t, "00:04:59", windowOf(t, tick)[0].Remaining)
}

func TestActivateRepliesWithNavigation(t *testing.T) {
	activations := activationFunc(func(_ context.Context, a racewindow.Activation) (racewindow.Navigation, error) {
		if a.ID != "a" {
			return racewindow.Navigation{}, errors.New("unknown race: " + a.ID)
		}
		return racewindow.Navigation{ID: a.ID, Path: racewindow.NavigationPath(a.ID)}, nil
	})
	_, srv := newTestGateway(t, nil, activations)

	conn := dial(t, srv)
	readEvent(t, conn)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: ClientMessageActivate, ID: "a"}))
	event := readEvent(t, conn)
	require.Equal(t, EventTypeNavigate, event.Type)

	var nav racewindow.Navigation
	require.NoError(t, json.Unmarshal(event.Data, &nav))
	assert.Equal(t, "/races2/a", nav.Path)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: ClientMessageActivate, ID: "zzz"}))
	event = readEvent(t, conn)
	require.Equal(t, EventTypeError, event.Type)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(event.Data, &payload))
	assert.Contains(t, payload.Message, "zzz")
}

func TestUnknownClientMessageIsAnError(t *testing.T) {
	_, srv := newTestGateway(t, nil, nil)

	conn := dial(t, srv)
	readEvent(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe"}`)))
	assert.Equal(t, EventTypeError, readEvent(t, conn).Type)
}

func TestBoardSnapshotEndpoint(t *testing.T) {
	_, srv := newTestGateway(t, staticSource{entry("a", "00:05:00")}, nil)

	resp, err := http.Get(srv.URL + "/api/board")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body BoardResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "00:05:00", body.Entries[0].Remaining)
	assert.Equal(t, baseTime, body.GeneratedAt.UTC())
}
