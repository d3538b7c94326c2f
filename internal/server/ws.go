package server

// #region imports
import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/sentinelforge/go-middleware/internal/bus"
	"github.com/sentinelforge/go-middleware/internal/orchestrator"
)

// #endregion

// #region constants

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Per-topic event buffer for one connection.
	wsBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// #endregion

// #region handler

// handleCognitiveWS streams cognitive, symbolic and glyph events to one
// WebSocket peer. The first frame is a state snapshot so late joiners start
// from the current metrics.
func (s *Server) handleCognitiveWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warnw("ws upgrade failed", "err", err)
		return
	}

	cognitive := s.events.Subscribe(orchestrator.TopicCognitive, wsBuffer)
	symbolic := s.events.Subscribe(orchestrator.TopicSymbolic, wsBuffer)
	glyphs := s.events.Subscribe(orchestrator.TopicGlyph, wsBuffer)

	done := make(chan struct{})
	go s.readLoop(conn, done)
	go s.writeLoop(conn, done, cognitive, symbolic, glyphs)
}

// readLoop drains the peer (pongs, close frames) and signals the writer.
func (s *Server) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop pushes the initial state frame, then fans bus events to the peer
// until it disconnects.
func (s *Server) writeLoop(conn *websocket.Conn, done chan struct{}, subs ...*bus.Subscription) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		for _, sub := range subs {
			s.events.Unsubscribe(sub)
		}
		conn.Close()
	}()

	state := bus.Event{
		Type:  "cognitive.state",
		Topic: orchestrator.TopicCognitive,
		Data:  s.orch.Metrics(),
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(state); err != nil {
		return
	}

	send := func(ev bus.Event) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(ev) == nil
	}

	for {
		select {
		case ev := <-subs[0].Events():
			if !send(ev) {
				return
			}
		case ev := <-subs[1].Events():
			if !send(ev) {
				return
			}
		case ev := <-subs[2].Events():
			if !send(ev) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// #endregion
