package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"quizgame-service/internal/app"
	"quizgame-service/internal/domain"
)

// Close codes sent when a connection is rejected.
const (
	closeGameNotFound = 4000
	closeGameFull     = 4001
)

const sendBufferSize = 16

type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// wsConn adapts a websocket connection to app.Conn. A buffered channel
// drained by a single writer goroutine keeps Deliver non-blocking and keeps
// all writes on one goroutine.
type wsConn struct {
	conn   *websocket.Conn
	failed atomic.Bool

	mu     sync.Mutex
	send   chan any
	closed bool
}

var errConnClosed = errors.New("connection closed")

func newWSConn(conn *websocket.Conn) *wsConn {
	c := &wsConn{conn: conn, send: make(chan any, sendBufferSize)}
	go c.writeLoop()
	return c
}

func (c *wsConn) writeLoop() {
	for msg := range c.send {
		if c.failed.Load() {
			continue
		}
		if err := c.conn.WriteJSON(msg); err != nil {
			log.Debug().Err(err).Msg("ws write error")
			c.failed.Store(true)
		}
	}
}

func (c *wsConn) Deliver(msg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errConnClosed
	}
	select {
	case c.send <- msg:
		return nil
	default:
		// Slow client; drop rather than block the broadcast. The next
		// phase broadcast supersedes this message anyway.
		return errors.New("send buffer full")
	}
}

func (c *wsConn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && !c.failed.Load()
}

func (c *wsConn) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
	_ = c.conn.Close()
}

// playerMessage is the union of inbound player payloads.
type playerMessage struct {
	Type        string `json:"type"`
	PlayerName  string `json:"playerName"`
	AvatarURL   string `json:"avatarUrl"`
	AnswerIndex int    `json:"answerIndex"`
	TimeLeft    int    `json:"timeLeft"`
}

type hostMessage struct {
	Type string `json:"type"`
}

// ServePlayerWS handles GET /ws/player/{gameID}.
func (h *WSHandler) ServePlayerWS(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("gameID")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("ws upgrade failed")
		return
	}
	wc := newWSConn(conn)

	playerID, err := h.service.PlayerConnect(gameID, wc)
	if err != nil {
		rejectConn(conn, err)
		wc.close()
		return
	}
	defer func() {
		h.service.PlayerDisconnect(gameID, playerID)
		wc.close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg playerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// Malformed frames are dropped; the connection stays open so a
			// buggy client cannot take itself (or the session) down.
			continue
		}
		switch msg.Type {
		case "join_game":
			h.service.PlayerJoin(gameID, playerID, msg.PlayerName, msg.AvatarURL)
		case "submit_answer":
			h.service.PlayerAnswer(gameID, playerID, msg.AnswerIndex, msg.TimeLeft)
		}
	}
}

// ServeHostWS handles GET /ws/host/{gameID}.
func (h *WSHandler) ServeHostWS(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("gameID")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("ws upgrade failed")
		return
	}
	wc := newWSConn(conn)

	if err := h.service.HostConnect(gameID, wc); err != nil {
		rejectConn(conn, err)
		wc.close()
		return
	}
	defer func() {
		h.service.HostDisconnect(gameID, wc)
		wc.close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg hostMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		h.service.HostCommand(gameID, msg.Type)
	}
}

func rejectConn(conn *websocket.Conn, err error) {
	code := closeGameNotFound
	reason := "game not found"
	if errors.Is(err, domain.ErrGameFull) {
		code = closeGameFull
		reason = "game is full"
	}
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	_ = conn.Close()
}
