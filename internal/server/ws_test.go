package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelforge/go-middleware/internal/bus"
	"github.com/sentinelforge/go-middleware/internal/orchestrator"
)

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/cognitive"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) bus.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev bus.Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestWS_InitialStateFrame(t *testing.T) {
	s, _ := newTestServer(t, nil)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	conn := dialWS(t, srv)
	ev := readEvent(t, conn)
	assert.Equal(t, "cognitive.state", ev.Type)
	assert.Equal(t, orchestrator.TopicCognitive, ev.Topic)
}

func TestWS_StreamsBusEvents(t *testing.T) {
	s, events := newTestServer(t, nil)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	conn := dialWS(t, srv)
	readEvent(t, conn) // initial state frame

	// The subscription is live once the state frame arrived.
	delivered := events.Publish(bus.Event{
		Type:  orchestrator.EventZoneClassified,
		Topic: orchestrator.TopicCognitive,
		Data:  map[string]string{"input_zone": "active"},
	})
	require.Positive(t, delivered)

	ev := readEvent(t, conn)
	assert.Equal(t, orchestrator.EventZoneClassified, ev.Type)
}

func TestWS_ChatProducesFrames(t *testing.T) {
	s, _ := newTestServer(t, nil)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	conn := dialWS(t, srv)
	readEvent(t, conn)

	w := doJSON(t, s.Router(), "POST", "/chat", map[string]string{"message": "start the process"})
	require.Equal(t, 200, w.Code)

	types := map[string]bool{}
	for i := 0; i < 2; i++ {
		ev := readEvent(t, conn)
		types[ev.Type] = true
	}
	assert.True(t, types[orchestrator.EventZoneClassified], "zone event missing: %v", types)
	assert.True(t, types[orchestrator.EventSymbolicMatch], "symbolic event missing: %v", types)
}

func TestWS_UnsubscribeOnClose(t *testing.T) {
	s, events := newTestServer(t, nil)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	conn := dialWS(t, srv)
	readEvent(t, conn)
	require.Equal(t, 3, events.SubscriberCount())

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for events.SubscriberCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Zero(t, events.SubscriberCount())
}
