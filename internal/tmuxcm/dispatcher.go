package tmuxcm

import (
	"log"
	"strconv"
	"strings"

	"github.com/sergeknystautas/tmuxctl/internal/tmuxcm/layout"
)

// TerminalID is an opaque handle the upper layer uses to identify one of
// its terminal widgets. The core never looks inside it.
type TerminalID any

// UpperLayer is what a terminal-emulator front end supplies to the
// Dispatcher: the pane-id<->terminal mapping, a byte sink per terminal, and
// the handful of mutating operations that must run on the UI thread.
type UpperLayer interface {
	// FindTerminalByMarker resolves the marker a run_command caller
	// attached to its spawn back to the terminal awaiting that pane.
	FindTerminalByMarker(marker string) (TerminalID, bool)
	// BindPane records that paneID now maps to term.
	BindPane(paneID string, term TerminalID)
	// UnbindPane removes paneID from the mapping, e.g. because its pane
	// was closed.
	UnbindPane(paneID string)
	// KnownPaneIDs lists every pane id currently bound, for
	// garbage_collect_panes diffing.
	KnownPaneIDs() []string
	// WriteOutput hands decoded %output bytes to the pane's terminal sink.
	WriteOutput(paneID string, data []byte)
	// ApplyLayout hands the projected widget map to the upper layer after
	// an initial_layout response.
	ApplyLayout(widgets map[string]layout.Widget)
	// Terminate asks the upper layer to destroy open windows, e.g. because
	// the child process exited.
	Terminate(reason string)
}

// Executor posts mutating work onto the upper layer's single-threaded UI
// loop, standing in for a GTK `idle_add`. The reader worker only ever pure-
// observes (popping the queue, logging); anything that touches the
// terminal/widget graph goes through here.
type Executor interface {
	Post(func())
}

// InlineExecutor runs posted work synchronously, for tests and for front
// ends without their own UI loop.
type InlineExecutor struct{}

// Post runs fn immediately.
func (InlineExecutor) Post(fn func()) { fn() }

// HandlerFunc is the registration-surface extension point: a marker not in
// the closed Notification sum type can still be wired in by name.
type HandlerFunc func(Notification)

// Dispatcher is the sole bridge between the reader worker and the upper
// layer. Decoded notifications are turned into upper-layer actions either
// by the built-in exhaustive switch in Dispatch, or by a caller-registered
// handler for markers outside the closed set.
type Dispatcher struct {
	upper    UpperLayer
	exec     Executor
	sessName func() string // resolves the bound session name; set by bindSession, not read by the callbacks below
	gc       gcRequester

	extra       map[string]HandlerFunc
	seenWindows map[string]bool
}

// NewDispatcher builds a Dispatcher delivering mutating work through exec.
func NewDispatcher(upper UpperLayer, exec Executor) *Dispatcher {
	if exec == nil {
		exec = InlineExecutor{}
	}
	return &Dispatcher{upper: upper, exec: exec, extra: make(map[string]HandlerFunc), seenWindows: make(map[string]bool)}
}

// Register installs fn for notifications handled via the string-keyed
// extension point rather than the built-in sum type switch. Present so a
// future marker tmux adds doesn't require changing Dispatch's switch.
func (d *Dispatcher) Register(marker string, fn HandlerFunc) {
	d.extra[marker] = fn
}

// gcRequester is implemented by ControlSession; Dispatcher calls it to
// schedule garbage_collect_panes after layout-change/window-close, without
// importing ControlSession directly (avoids a dependency cycle on the
// session holding a *Dispatcher).
type gcRequester interface {
	RequestGarbageCollect()
}

// gc is set by ControlSession after constructing both halves.
func (d *Dispatcher) bindSession(gc gcRequester, name func() string) {
	d.gc = gc
	d.sessName = name
}

// Dispatch routes one decoded notification. Called from the reader worker;
// anything beyond pure observation is deferred to the Executor.
func (d *Dispatcher) Dispatch(n Notification) {
	switch v := n.(type) {
	case Output:
		d.exec.Post(func() { d.upper.WriteOutput(v.PaneID, v.Data) })

	case LayoutChange:
		// A layout-change for a window this client hasn't seen via
		// window-add yet is a no-op, not an error: new windows always
		// arrive window-add first.
		if !d.seenWindows[v.WindowID] {
			return
		}
		if d.gc != nil {
			d.gc.RequestGarbageCollect()
		}

	case WindowClose:
		delete(d.seenWindows, v.WindowID)
		if d.gc != nil {
			d.gc.RequestGarbageCollect()
		}

	case WindowAdd:
		d.seenWindows[v.WindowID] = true
		if fn, ok := d.extra[markerName(n)]; ok {
			fn(n)
		}

	case Exit:
		d.exec.Post(func() { d.upper.Terminate(v.Reason) })

	case SessionsChanged, SessionChanged, SessionRenamed, UnlinkedWindowAdd, WindowRenamed:
		if fn, ok := d.extra[markerName(n)]; ok {
			fn(n)
		}

	case Result:
		// Routed by ControlSession before reaching Dispatch; Result never
		// arrives here in normal operation. Logged defensively.
		log.Printf("tmuxcm: dispatcher received unrouted Result")

	default:
		if fn, ok := d.extra[markerName(n)]; ok {
			fn(n)
		}
	}
}

// markerName recovers the notification's marker string for the extension
// registry, mirroring the table in the data model.
func markerName(n Notification) string {
	switch n.(type) {
	case SessionsChanged:
		return "sessions-changed"
	case SessionChanged:
		return "session-changed"
	case SessionRenamed:
		return "session-renamed"
	case WindowAdd:
		return "window-add"
	case WindowRenamed:
		return "window-renamed"
	case UnlinkedWindowAdd:
		return "unlinked-window-add"
	case WindowClose:
		return "window-close"
	case LayoutChange:
		return "layout-change"
	case Output:
		return "output"
	case Exit:
		return "exit"
	default:
		return ""
	}
}

// PaneIDResult is the pane_id_result callback: splits the single result
// line into pane_id and marker, looks up the terminal awaiting that marker,
// and binds pane_id<->terminal. The line is split on the calling (reader)
// goroutine; the lookup and bind are posted through the Executor.
func (d *Dispatcher) PaneIDResult(res Result) {
	if res.Error || len(res.Lines) == 0 {
		return
	}
	line := res.Lines[0]
	idx := strings.IndexByte(line, ' ')
	if idx < 0 {
		log.Printf("tmuxcm: pane_id_result malformed line %q", line)
		return
	}
	paneID, marker := line[:idx], line[idx+1:]
	d.exec.Post(func() {
		term, ok := d.upper.FindTerminalByMarker(marker)
		if !ok {
			return
		}
		d.upper.BindPane(paneID, term)
	})
}

// GarbageCollectPanesResult builds the set of live pane ids from a
// list-panes response and closes terminals no longer present.
func (d *Dispatcher) GarbageCollectPanesResult(res Result) {
	if res.Error {
		return
	}
	live := make(map[string]struct{}, len(res.Lines))
	for _, l := range res.Lines {
		if l != "" {
			live[l] = struct{}{}
		}
	}
	d.exec.Post(func() {
		for _, paneID := range d.upper.KnownPaneIDs() {
			if _, ok := live[paneID]; !ok {
				d.upper.UnbindPane(paneID)
			}
		}
	})
}

// InitialLayoutResult parses each returned layout line and projects them to
// the upper layer's widget mapping.
func (d *Dispatcher) InitialLayoutResult(res Result) {
	if res.Error {
		return
	}
	windows := make([]layout.WindowLayout, 0, len(res.Lines))
	for i, l := range res.Lines {
		if l == "" {
			continue
		}
		tree, err := layout.Parse(l)
		if err != nil {
			log.Printf("tmuxcm: initial_layout_result: %v", err)
			continue
		}
		id := "w" + strconv.Itoa(i)
		d.seenWindows[id] = true
		windows = append(windows, layout.WindowLayout{WindowID: id, Root: tree})
	}
	widgets, err := layout.Project(windows)
	if err != nil {
		log.Printf("tmuxcm: initial_layout_result project: %v", err)
		return
	}
	d.exec.Post(func() { d.upper.ApplyLayout(widgets) })
}

// InitialOutputCallback returns a one-shot PendingCallback that feeds the
// captured scrollback to paneID's terminal.
func (d *Dispatcher) InitialOutputCallback(paneID string) PendingCallback {
	return func(res Result) {
		if res.Error {
			return
		}
		data := []byte(strings.Join(res.Lines, "\n"))
		d.exec.Post(func() { d.upper.WriteOutput(paneID, data) })
	}
}

