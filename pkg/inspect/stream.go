package inspect

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/reconciler/pkg/fiber"
	"github.com/vango-dev/reconciler/pkg/host/memhost"
	"github.com/vango-dev/reconciler/pkg/vdom"
)

const writeTimeout = 5 * time.Second

// Event is one message on the commit stream.
type Event struct {
	Commit fiber.CommitInfo `json:"commit"`
	Ops    []vdom.Patch     `json:"ops"`
	Digest string           `json:"digest"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// stream fans commits out to WebSocket clients. Commit listeners run on
// the render goroutine, so broadcast never blocks: a client whose buffer
// is full misses the event.
type stream struct {
	s        *Server
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	lastOps []vdom.Patch
	closed  bool

	unsubHost   func()
	unsubCommit func()
}

func newStream(s *Server) *stream {
	st := &stream{
		s:       s,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if len(s.origins) > 0 {
		st.upgrader.CheckOrigin = st.checkOrigin
	}
	st.unsubHost = s.host.Subscribe(func(c memhost.Commit) {
		st.mu.Lock()
		st.lastOps = c.Ops
		st.mu.Unlock()
	})
	st.unsubCommit = s.root.OnCommit(st.broadcast)
	return st
}

func (st *stream) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == r.Host {
		return true
	}
	for _, allowed := range st.s.origins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (st *stream) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := st.upgrader.Upgrade(w, r, nil)
	if err != nil {
		st.s.logger.Debug("stream upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, st.s.buffer)}
	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		_ = conn.Close()
		return
	}
	st.clients[c] = struct{}{}
	st.mu.Unlock()
	st.s.logger.Debug("stream client connected", "remote", r.RemoteAddr)

	go st.writeLoop(c)

	// Inbound messages are ignored; reading detects the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	st.remove(c)
}

func (st *stream) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			st.remove(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
}

// remove unregisters c and closes its send channel. Channels are only
// closed and sent to under st.mu.
func (st *stream) remove(c *client) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.clients[c]; ok {
		delete(st.clients, c)
		close(c.send)
	}
}

func (st *stream) broadcast(info fiber.CommitInfo) {
	digest := digestString(st.s.host.Digest())

	st.mu.Lock()
	defer st.mu.Unlock()
	ev := Event{Commit: info, Ops: st.lastOps, Digest: digest}
	st.lastOps = nil
	if len(st.clients) == 0 {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		st.s.logger.Warn("encode commit event", "error", err)
		return
	}
	for c := range st.clients {
		select {
		case c.send <- data:
		default:
			st.s.logger.Warn("stream client too slow, event dropped", "seq", info.Seq)
		}
	}
}

func (st *stream) count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.clients)
}

func (st *stream) close() {
	st.unsubCommit()
	st.unsubHost()

	st.mu.Lock()
	defer st.mu.Unlock()
	st.closed = true
	for c := range st.clients {
		delete(st.clients, c)
		close(c.send)
	}
}
