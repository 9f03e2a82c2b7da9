package tmuxcm

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sergeknystautas/tmuxctl/internal/tmuxcm/layout"
)

type fakeUpperLayer struct {
	mu       sync.Mutex
	byMarker map[string]TerminalID
	panes    map[string]TerminalID
	outputs  map[string][]byte
	layouts  map[string]layout.Widget
	terminal string
}

func newFakeUpperLayer() *fakeUpperLayer {
	return &fakeUpperLayer{
		byMarker: make(map[string]TerminalID),
		panes:    make(map[string]TerminalID),
		outputs:  make(map[string][]byte),
	}
}

func (f *fakeUpperLayer) FindTerminalByMarker(marker string) (TerminalID, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byMarker[marker]
	return t, ok
}

func (f *fakeUpperLayer) BindPane(paneID string, term TerminalID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panes[paneID] = term
}

func (f *fakeUpperLayer) UnbindPane(paneID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.panes, paneID)
}

func (f *fakeUpperLayer) KnownPaneIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.panes))
	for id := range f.panes {
		ids = append(ids, id)
	}
	return ids
}

func (f *fakeUpperLayer) WriteOutput(paneID string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputs[paneID] = append(f.outputs[paneID], data...)
}

func (f *fakeUpperLayer) ApplyLayout(widgets map[string]layout.Widget) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.layouts = widgets
}

func (f *fakeUpperLayer) Terminate(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminal = reason
}

// fakeStdin records every line written to it instead of talking to a real
// tmux process.
type fakeStdin struct {
	mu    sync.Mutex
	lines []string
}

func (f *fakeStdin) Write(p []byte) (int, error) {
	f.mu.Lock()
	f.lines = append(f.lines, strings.TrimSuffix(string(p), "\n"))
	f.mu.Unlock()
	return len(p), nil
}

func (f *fakeStdin) Close() error { return nil }

// newBoundSession builds a ControlSession already wired to an in-memory
// stdin recorder, bypassing spawn() so tests don't require a tmux binary.
func newBoundSession(t *testing.T, upper UpperLayer) (*ControlSession, *fakeStdin) {
	t.Helper()
	d := NewDispatcher(upper, InlineExecutor{})
	s := NewControlSession("test-session", nil, d)
	stdin := &fakeStdin{}
	s.mu.Lock()
	s.stdin = stdin
	s.bound = true
	s.mu.Unlock()
	return s, stdin
}

func TestExecuteDroppedWhenUnbound(t *testing.T) {
	d := NewDispatcher(newFakeUpperLayer(), InlineExecutor{})
	s := NewControlSession("test-session", nil, d)

	if err := s.SendContent("hi", "%1"); err != ErrNoConnection {
		t.Fatalf("SendContent() error = %v, want ErrNoConnection", err)
	}
	if s.queue.Len() != 0 {
		t.Fatalf("queue.Len() = %d, want 0 (no push on dropped command)", s.queue.Len())
	}
}

func TestSendContentWritesCommandAndPushesNoop(t *testing.T) {
	s, stdin := newBoundSession(t, newFakeUpperLayer())

	if err := s.SendContent("hello", "%1"); err != nil {
		t.Fatalf("SendContent() error = %v", err)
	}
	if len(stdin.lines) != 1 || stdin.lines[0] != "send-keys -t '%1' -l 'hello'" {
		t.Fatalf("stdin.lines = %v", stdin.lines)
	}
	if s.queue.Len() != 1 {
		t.Fatalf("queue.Len() = %d, want 1", s.queue.Len())
	}
}

func TestNewWindowPushesPaneIDResultCallback(t *testing.T) {
	s, stdin := newBoundSession(t, newFakeUpperLayer())

	marker, err := s.NewWindow("/tmp", "bash")
	if err != nil {
		t.Fatalf("NewWindow() error = %v", err)
	}
	if marker == "" {
		t.Fatal("NewWindow() returned empty marker")
	}
	if len(stdin.lines) != 1 || !strings.Contains(stdin.lines[0], "new-window") {
		t.Fatalf("stdin.lines = %v", stdin.lines)
	}
	if s.queue.Len() != 1 {
		t.Fatalf("queue.Len() = %d, want 1", s.queue.Len())
	}
}

func TestReadLoopRoutesResultsFIFO(t *testing.T) {
	upper := newFakeUpperLayer()
	s, _ := newBoundSession(t, upper)

	marker := "marker-123"
	upper.byMarker[marker] = "term-A"

	// Queue one PaneIDResult callback, as NewWindow would.
	s.queue.Push(s.dispatcher.PaneIDResult)

	r, w := io.Pipe()
	go s.readLoop(r)
	defer w.Close()

	w.Write([]byte("%begin 1 10 0\n%1 " + marker + "\n%end 2 10 0\n"))

	waitFor(t, func() bool {
		upper.mu.Lock()
		defer upper.mu.Unlock()
		_, ok := upper.panes["%1"]
		return ok
	})
}

func TestReadLoopDispatchesOutput(t *testing.T) {
	upper := newFakeUpperLayer()
	s, _ := newBoundSession(t, upper)

	r, w := io.Pipe()
	go s.readLoop(r)
	defer w.Close()

	w.Write([]byte("%output %1 hello\n"))

	waitFor(t, func() bool {
		upper.mu.Lock()
		defer upper.mu.Unlock()
		return string(upper.outputs["%1"]) == "hello"
	})
}

func TestReadLoopExitOnEOFSetsUnbound(t *testing.T) {
	upper := newFakeUpperLayer()
	s, _ := newBoundSession(t, upper)

	r, w := io.Pipe()
	done := make(chan struct{})
	go func() {
		s.readLoop(r)
		close(done)
	}()
	w.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("readLoop did not return after EOF")
	}

	if s.Bound() {
		t.Error("Bound() = true after child EOF, want false")
	}
	if upper.terminal == "" {
		t.Error("Terminate() was not called after child EOF")
	}
}

func TestLayoutChangeDroppedForUnseenWindow(t *testing.T) {
	upper := newFakeUpperLayer()
	d := NewDispatcher(upper, InlineExecutor{})
	gcCalls := 0
	d.bindSession(gcRequesterFunc(func() { gcCalls++ }), func() string { return "s" })

	d.Dispatch(LayoutChange{WindowID: "@9", Layout: layout.Pane{PaneID: "1"}})
	if gcCalls != 0 {
		t.Fatalf("gcCalls = %d, want 0 for unseen window", gcCalls)
	}

	d.Dispatch(WindowAdd{WindowID: "@9"})
	d.Dispatch(LayoutChange{WindowID: "@9", Layout: layout.Pane{PaneID: "1"}})
	if gcCalls != 1 {
		t.Fatalf("gcCalls = %d, want 1 once window is seen", gcCalls)
	}
}

type gcRequesterFunc func()

func (f gcRequesterFunc) RequestGarbageCollect() { f() }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
