package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/sergeknystautas/tmuxctl/internal/tmuxcm"
	"github.com/sergeknystautas/tmuxctl/internal/tmuxcm/layout"
)

// wsConn wraps a websocket connection with the write-side mutex gorilla
// requires for concurrent writers, plus an idempotent Close.
type wsConn struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
}

func (w *wsConn) WriteMessage(messageType int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("relay: connection closed")
	}
	return w.conn.WriteMessage(messageType, data)
}

func (w *wsConn) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.conn.Close()
}

// relayEvent is one decoded notification forwarded to every relay client.
type relayEvent struct {
	Type   string `json:"type"`
	PaneID string `json:"pane_id,omitempty"`
	Data   string `json:"data,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// relayRequest is an inbound RPC from a relay client: send content or a
// translated key event to a pane.
type relayRequest struct {
	Type   string          `json:"type"` // "send" or "key"
	PaneID string          `json:"pane_id"`
	Data   string          `json:"data"`
	Key    tmuxcm.KeyEvent `json:"key,omitempty"`
}

// relayUpperLayer is the UpperLayer a `tmuxctl relay` server plugs into the
// Dispatcher: instead of owning widgets, it fans decoded notifications out
// to every connected websocket client, the concrete instance of the core's
// "upwards" interface running in a separate process.
type relayUpperLayer struct {
	mu       sync.Mutex
	byMarker map[string]tmuxcm.TerminalID
	panes    map[string]tmuxcm.TerminalID
	conns    map[*wsConn]bool
}

func newRelayUpperLayer() *relayUpperLayer {
	return &relayUpperLayer{
		byMarker: make(map[string]tmuxcm.TerminalID),
		panes:    make(map[string]tmuxcm.TerminalID),
		conns:    make(map[*wsConn]bool),
	}
}

func (u *relayUpperLayer) register(c *wsConn) {
	u.mu.Lock()
	u.conns[c] = true
	u.mu.Unlock()
}

func (u *relayUpperLayer) unregister(c *wsConn) {
	u.mu.Lock()
	delete(u.conns, c)
	u.mu.Unlock()
}

func (u *relayUpperLayer) broadcast(ev relayEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	u.mu.Lock()
	conns := make([]*wsConn, 0, len(u.conns))
	for c := range u.conns {
		conns = append(conns, c)
	}
	u.mu.Unlock()
	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			u.unregister(c)
		}
	}
}

func (u *relayUpperLayer) FindTerminalByMarker(marker string) (tmuxcm.TerminalID, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	t, ok := u.byMarker[marker]
	return t, ok
}

func (u *relayUpperLayer) BindPane(paneID string, term tmuxcm.TerminalID) {
	u.mu.Lock()
	u.panes[paneID] = term
	u.mu.Unlock()
	u.broadcast(relayEvent{Type: "pane-bound", PaneID: paneID})
}

func (u *relayUpperLayer) UnbindPane(paneID string) {
	u.mu.Lock()
	delete(u.panes, paneID)
	u.mu.Unlock()
	u.broadcast(relayEvent{Type: "pane-closed", PaneID: paneID})
}

func (u *relayUpperLayer) KnownPaneIDs() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	ids := make([]string, 0, len(u.panes))
	for id := range u.panes {
		ids = append(ids, id)
	}
	return ids
}

func (u *relayUpperLayer) WriteOutput(paneID string, data []byte) {
	u.broadcast(relayEvent{Type: "output", PaneID: paneID, Data: string(data)})
}

func (u *relayUpperLayer) ApplyLayout(widgets map[string]layout.Widget) {
	for name, w := range widgets {
		if w.Kind == layout.KindTerminal {
			u.broadcast(relayEvent{Type: "layout", PaneID: w.PaneID, Data: name})
		}
	}
}

func (u *relayUpperLayer) Terminate(reason string) {
	u.broadcast(relayEvent{Type: "exit", Reason: reason})
}

var relayUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// serveRelay upgrades r to a websocket, registers it with upper for as long
// as it stays open, and applies inbound "send"/"key" commands to session.
func serveRelay(w http.ResponseWriter, r *http.Request, session *tmuxcm.ControlSession, upper *relayUpperLayer) {
	raw, err := relayUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn := &wsConn{conn: raw}
	upper.register(conn)
	defer func() {
		upper.unregister(conn)
		conn.Close()
	}()

	for {
		msgType, msg, err := raw.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		var cmd relayRequest
		if err := json.Unmarshal(msg, &cmd); err != nil {
			continue
		}
		switch cmd.Type {
		case "send":
			_ = session.SendContent(cmd.Data, cmd.PaneID)
		case "key":
			_ = session.SendKeypress(cmd.Key, cmd.PaneID)
		}
	}
}

// runRelay starts an HTTP server exposing /ws on addr until ctx is done.
func runRelay(ctx context.Context, addr string, session *tmuxcm.ControlSession, upper *relayUpperLayer) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveRelay(w, r, session, upper)
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return srv.Close()
	case err := <-errCh:
		return err
	}
}
