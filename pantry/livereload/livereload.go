// pantry/livereload/livereload.go

// Package livereload tells open browser pages to reload after a rebuild.
// Pages get a small script (Inject) that opens a WebSocket to Path; Reload
// sends every connected page the "reload" message.
package livereload

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// Path is the WebSocket endpoint the injected script connects to.
const Path = "/_livereload"

// Message is what Reload sends.
const Message = "reload"

const writeTimeout = 5 * time.Second

// Script reconnects after the server restarts and reloads on Message.
const Script = `<script>(function(){` +
	`var u=(location.protocol==="https:"?"wss://":"ws://")+location.host+"` + Path + `";` +
	`function c(){var s=new WebSocket(u);` +
	`s.onmessage=function(e){if(e.data==="` + Message + `")location.reload()};` +
	`s.onclose=function(){setTimeout(c,1000)}}c()})();</script>`

// Hub tracks connected pages.
type Hub struct {
	logger *zap.Logger

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{logger: logger, conns: map[*websocket.Conn]struct{}{}}
}

// ServeHTTP upgrades the request and holds the connection until the page
// goes away or the hub closes. Only same-origin pages are accepted.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Debug("livereload upgrade failed", zap.Error(err))
		return
	}
	if !h.add(c) {
		c.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.remove(c)

	// Pages never send anything; CloseRead handles pings and the close frame.
	ctx := c.CloseRead(context.Background())
	<-ctx.Done()
	c.CloseNow()
}

func (h *Hub) add(c *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

func (h *Hub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		out = append(out, c)
	}
	return out
}

// Clients returns the number of connected pages.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Reload sends Message to every connected page and returns how many got
// it. Pages that cannot be written to are dropped.
func (h *Hub) Reload(ctx context.Context) int {
	sent := 0
	for _, c := range h.snapshot() {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := c.Write(wctx, websocket.MessageText, []byte(Message))
		cancel()
		if err != nil {
			h.logger.Debug("livereload write failed", zap.Error(err))
			h.remove(c)
			c.CloseNow()
			continue
		}
		sent++
	}
	h.logger.Debug("pages reloaded", zap.Int("pages", sent))
	return sent
}

// Close disconnects every page and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	for _, c := range h.snapshot() {
		c.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

// Inject adds Script before the closing </body> tag of doc, or at the end
// when there is none.
func Inject(doc string) string {
	const tag = "</body>"
	for i := len(doc) - len(tag); i >= 0; i-- {
		if strings.EqualFold(doc[i:i+len(tag)], tag) {
			return doc[:i] + Script + doc[i:]
		}
	}
	return doc + Script
}
