package tmuxcm

import (
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"sync"

	"github.com/creack/pty"

	"github.com/sergeknystautas/tmuxctl/internal/config"
	"github.com/sergeknystautas/tmuxctl/internal/tmuxexec"
)

// ControlSession owns the child tmux process, its input/output streams, the
// reader worker, the request queue, and the public command API. It is
// either Unbound (no child) or Bound (child alive, reader running).
//
// The reader worker is the only goroutine that reads the child's stdout or
// pops the RequestQueue; callers only ever write to stdin and push
// callbacks, so a caller thread never blocks waiting on a response.
type ControlSession struct {
	name   string
	remote *config.Remote

	mu       sync.Mutex // guards bound, cmd, stdin, width/height below
	bound    bool
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	width    int
	height   int
	readerWG sync.WaitGroup

	queue      RequestQueue
	dispatcher *Dispatcher
	translator KeyTranslator
}

// NewControlSession constructs an Unbound session named name, delivering
// notifications through dispatcher.
func NewControlSession(name string, remote *config.Remote, dispatcher *Dispatcher) *ControlSession {
	s := &ControlSession{
		name:       name,
		remote:     remote,
		dispatcher: dispatcher,
		width:      config.DefaultTerminalWidth,
		height:     config.DefaultTerminalHeight,
	}
	dispatcher.bindSession(s, func() string { return s.name })
	return s
}

// Bound reports whether a child process is currently alive.
func (s *ControlSession) Bound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

// spawn starts `tmux <extraArgs...>` as the control-mode child, wires its
// stdin/stdout, and launches the reader worker. Must be called with the
// session Unbound.
func (s *ControlSession) spawn(extraArgs []string) error {
	args := []string{"-2", "-C"}
	args = append(args, extraArgs...)

	var name string
	var cmdArgs []string
	if s.remote != nil {
		name = "ssh"
		cmdArgs = append([]string{s.remote.Host}, s.remote.Args...)
		cmdArgs = append(cmdArgs, "--", "tmux")
		cmdArgs = append(cmdArgs, args...)
	} else {
		name = "tmux"
		cmdArgs = args
	}

	cmd := exec.Command(name, cmdArgs...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("tmuxcm: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("tmuxcm: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("tmuxcm: start tmux: %w", err)
	}

	s.mu.Lock()
	s.cmd = cmd
	s.stdin = stdin
	s.bound = true
	s.mu.Unlock()

	s.readerWG.Add(1)
	go s.readLoop(stdout)

	return nil
}

// readLoop is the sole reader worker: decode, dispatch, repeat, until EOF
// or a read error marks the child lost.
func (s *ControlSession) readLoop(stdout io.Reader) {
	defer s.readerWG.Done()

	dec := NewDecoder(stdout)
	for {
		n, err := dec.Next()
		if err != nil {
			s.mu.Lock()
			s.bound = false
			s.mu.Unlock()
			if err != io.EOF {
				log.Printf("tmuxcm: %v: %v", ErrChildLost, err)
			}
			s.dispatcher.Dispatch(Exit{Reason: "child process lost"})
			return
		}

		if res, ok := n.(Result); ok {
			cb, popped := s.queue.Pop()
			if !popped {
				log.Printf("tmuxcm: %v: response with no pending command", ErrProtocolFraming)
				continue
			}
			if res.Error {
				log.Printf("tmuxcm: %v: %v", ErrCommandFailure, res.Lines)
				continue
			}
			cb(res)
			continue
		}

		s.dispatcher.Dispatch(n)
	}
}

// execute writes one newline-terminated command line and pushes cb (or a
// no-op) before returning, per the emission rule: exactly one callback per
// written line. If the session is Unbound the command is logged and
// dropped without pushing, returning ErrNoConnection.
func (s *ControlSession) execute(command string, cb PendingCallback) error {
	s.mu.Lock()
	stdin := s.stdin
	bound := s.bound
	s.mu.Unlock()

	if !bound || stdin == nil {
		log.Printf("tmuxcm: dropped command, no connection: %s", command)
		return ErrNoConnection
	}

	if _, err := fmt.Fprintf(stdin, "%s\n", command); err != nil {
		return fmt.Errorf("tmuxcm: write command: %w", err)
	}
	s.queue.Push(cb)
	return nil
}

// NewSession binds the session by spawning a fresh tmux server carrying
// command as its first pane. Per the documented kill_server race: any
// prior child is killed synchronously and its reader worker is awaited
// before the new child starts, so Unbound really means no reader is still
// running.
func (s *ControlSession) NewSession(ctx context.Context, cwd, command string) (marker string, err error) {
	if err := s.KillServer(ctx); err != nil {
		log.Printf("tmuxcm: kill-server before new-session: %v", err)
	}
	s.readerWG.Wait()

	marker = NewMarker()
	args := []string{"new-session", "-s", s.name, "-P", "-F", "#D " + marker}
	if cwd != "" {
		args = append(args, "-c", cwd)
	}
	if command != "" {
		args = append(args, command)
	}
	if err := s.spawn(args); err != nil {
		return "", err
	}
	// The server's unsolicited startup envelope has no caller waiting on
	// it; push a no-op so the FIFO stays aligned.
	s.queue.Push(nil)
	return marker, nil
}

// AttachSession binds the session by attaching to an already-running
// server. Pushes a no-op for the unsolicited startup envelope, then
// refreshes the client's viewport before requesting the initial layout, so
// the server's idea of client size matches the upper layer's widget before
// any pane is captured.
func (s *ControlSession) AttachSession(ctx context.Context) error {
	args := []string{"attach-session", "-t", s.name}
	if err := s.spawn(args); err != nil {
		return err
	}
	s.queue.Push(nil)

	s.mu.Lock()
	w, h := s.width, s.height
	s.mu.Unlock()
	if err := s.RefreshClient(w, h); err != nil {
		return err
	}
	return s.InitialLayout()
}

// RunCommand is the highest-level entry point: bind by starting a new
// session if unbound, split the referenced pane if bound and orientation
// is non-nil, or otherwise open a new window.
func (s *ControlSession) RunCommand(ctx context.Context, command, cwd string, orientation *Orientation, paneID string) (marker string, err error) {
	if !s.Bound() {
		return s.NewSession(ctx, cwd, command)
	}
	if orientation != nil {
		return s.SplitWindow(*orientation, paneID, cwd, command)
	}
	return s.NewWindow(cwd, command)
}

// NewWindow opens a window in the bound session carrying command.
func (s *ControlSession) NewWindow(cwd, command string) (marker string, err error) {
	marker = NewMarker()
	if err := s.execute(cmdNewWindow(s.name, marker, cwd, command), s.dispatcher.PaneIDResult); err != nil {
		return "", err
	}
	return marker, nil
}

// SplitWindow splits paneID horizontally or vertically, carrying command.
func (s *ControlSession) SplitWindow(orientation Orientation, paneID, cwd, command string) (marker string, err error) {
	marker = NewMarker()
	if err := s.execute(cmdSplitWindow(paneID, orientation, marker, cwd, command), s.dispatcher.PaneIDResult); err != nil {
		return "", err
	}
	return marker, nil
}

// RefreshClient records the client's viewport size and issues
// refresh-client -C W,H. Call on every resize of the client viewport.
func (s *ControlSession) RefreshClient(width, height int) error {
	s.mu.Lock()
	s.width, s.height = width, height
	s.mu.Unlock()
	return s.execute(cmdRefreshClient(width, height), nil)
}

// SendContent writes content to paneID via send-keys -l.
func (s *ControlSession) SendContent(content, paneID string) error {
	return s.execute(cmdSendKeysLiteral(paneID, content), nil)
}

// SendKeypress translates ev via the Key Translator and, unless the
// translation swallows the event, sends the resulting bytes to paneID.
func (s *ControlSession) SendKeypress(ev KeyEvent, paneID string) error {
	b, ok := s.translator.Translate(ev)
	if !ok {
		return nil
	}
	return s.execute(cmdSendKeysLiteral(paneID, string(b)), nil)
}

// ToggleZoom zooms or unzooms paneID.
func (s *ControlSession) ToggleZoom(paneID string) error {
	return s.execute(cmdToggleZoom(paneID), nil)
}

// InitialLayout requests the layout of every window and hands each parsed
// tree to the Layout Projector via the dispatcher's callback.
func (s *ControlSession) InitialLayout() error {
	return s.execute(cmdInitialLayout(s.name), s.dispatcher.InitialLayoutResult)
}

// InitialOutput captures paneID's full scrollback and feeds it to the
// terminal once the response arrives.
func (s *ControlSession) InitialOutput(paneID string) error {
	return s.execute(cmdInitialOutput(paneID), s.dispatcher.InitialOutputCallback(paneID))
}

// RequestGarbageCollect issues garbage_collect_panes. Exported under this
// name so Dispatcher can call back into the session without a cyclic type
// dependency (see gcRequester).
func (s *ControlSession) RequestGarbageCollect() {
	if err := s.execute(cmdGarbageCollectPanes(s.name), s.dispatcher.GarbageCollectPanesResult); err != nil {
		log.Printf("tmuxcm: garbage_collect_panes: %v", err)
	}
}

// AttachInteractive attaches a plain `tmux attach` (not control mode) to a
// pty and copies bytes between it and the local reader and writer until
// ctx is done or the child exits. Unlike the control-mode session, this lets
// a human watch raw terminal output during setup, e.g. an interactive ssh
// password prompt before control mode can be trusted to carry the session.
// The caller is responsible for putting the local terminal into raw mode
// first (see cmd/tmuxctl/term.go) and restoring it afterward.
func (s *ControlSession) AttachInteractive(ctx context.Context, localIn io.Reader, localOut io.Writer) error {
	var cmd *exec.Cmd
	if s.remote != nil {
		args := append([]string{s.remote.Host}, s.remote.Args...)
		args = append(args, "--", "tmux", "attach-session", "-t", s.name)
		cmd = exec.CommandContext(ctx, "ssh", args...)
	} else {
		cmd = exec.CommandContext(ctx, "tmux", "attach-session", "-t", s.name)
	}

	s.mu.Lock()
	w, h := s.width, s.height
	s.mu.Unlock()

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: uint16(w), Rows: uint16(h)})
	if err != nil {
		return fmt.Errorf("tmuxcm: start interactive attach: %w", err)
	}
	defer ptmx.Close()

	copyDone := make(chan struct{}, 2)
	go func() {
		io.Copy(ptmx, localIn)
		copyDone <- struct{}{}
	}()
	go func() {
		io.Copy(localOut, ptmx)
		copyDone <- struct{}{}
	}()

	<-copyDone
	return cmd.Wait()
}

// KillServer synchronously kills the entire tmux server, local or remote.
// Used to guarantee a clean slate before NewSession.
func (s *ControlSession) KillServer(ctx context.Context) error {
	if s.remote != nil {
		return tmuxexec.KillServerRemote(ctx, s.remote.Host, s.remote.Args)
	}
	return tmuxexec.KillServer(ctx)
}
