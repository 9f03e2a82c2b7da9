package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/sergeknystautas/tmuxctl/internal/tmuxcm"
	"github.com/sergeknystautas/tmuxctl/internal/tmuxcm/layout"
)

// cliUpperLayer is the thin upper layer the CLI plugs into the Dispatcher.
// Unlike a real terminal emulator it does not keep a widget tree; it tracks
// the one pane the running subcommand cares about and writes its bytes
// straight to stdout.
type cliUpperLayer struct {
	mu       sync.Mutex
	byMarker map[string]tmuxcm.TerminalID
	panes    map[string]tmuxcm.TerminalID
	watching string // pane id the active subcommand is streaming, if bound

	bound chan struct{} // closed once watching's pane id is known
	once  sync.Once

	exited chan string // buffered; Terminate sends the first Exit reason, later ones are dropped
}

func newCLIUpperLayer() *cliUpperLayer {
	return &cliUpperLayer{
		byMarker: make(map[string]tmuxcm.TerminalID),
		panes:    make(map[string]tmuxcm.TerminalID),
		bound:    make(chan struct{}),
		exited:   make(chan string, 1),
	}
}

// awaitMarker registers marker as the one the CLI is waiting on; once its
// pane_id_result arrives, BindPane resolves it and closes bound.
func (u *cliUpperLayer) awaitMarker(marker string) {
	u.mu.Lock()
	u.byMarker[marker] = marker
	u.mu.Unlock()
}

func (u *cliUpperLayer) FindTerminalByMarker(marker string) (tmuxcm.TerminalID, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	t, ok := u.byMarker[marker]
	return t, ok
}

func (u *cliUpperLayer) BindPane(paneID string, term tmuxcm.TerminalID) {
	u.mu.Lock()
	u.panes[paneID] = term
	u.watching = paneID
	u.mu.Unlock()
	u.once.Do(func() { close(u.bound) })
}

func (u *cliUpperLayer) UnbindPane(paneID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.panes, paneID)
}

func (u *cliUpperLayer) KnownPaneIDs() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	ids := make([]string, 0, len(u.panes))
	for id := range u.panes {
		ids = append(ids, id)
	}
	return ids
}

func (u *cliUpperLayer) WriteOutput(paneID string, data []byte) {
	u.mu.Lock()
	watching := u.watching
	u.mu.Unlock()
	if paneID != watching {
		return
	}
	os.Stdout.Write(data)
}

func (u *cliUpperLayer) ApplyLayout(widgets map[string]layout.Widget) {
	for name, w := range widgets {
		if w.Kind != layout.KindTerminal {
			continue
		}
		fmt.Fprintf(os.Stderr, "tmuxctl: pane %s at %s\n", w.PaneID, name)

		u.mu.Lock()
		alreadyWatching := u.watching != ""
		if !alreadyWatching {
			u.watching = w.PaneID
			u.panes[w.PaneID] = w.PaneID
		}
		u.mu.Unlock()
		if !alreadyWatching {
			u.once.Do(func() { close(u.bound) })
		}
	}
}

// watchedPane returns the pane id the CLI is currently streaming, once
// bound has been closed.
func (u *cliUpperLayer) watchedPane() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.watching
}

func (u *cliUpperLayer) Terminate(reason string) {
	select {
	case u.exited <- reason:
	default:
	}
}
