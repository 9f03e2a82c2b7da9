package tmuxcm

import "github.com/sergeknystautas/tmuxctl/internal/tmuxcm/layout"

// Notification is the sum type of everything the decoder can produce from
// the tmux control-mode stream: one variant per marker in the protocol,
// plus Result for the multi-line %begin...%end|%error command-response
// envelope. Switch on the concrete type, not a Kind field.
type Notification interface {
	notification()
}

// Result is the decoded %begin ... %end|%error envelope for one command.
type Result struct {
	BeginTimestamp int64
	Code           int
	Lines          []string
	EndTimestamp   int64
	Error          bool
}

func (Result) notification() {}

// Exit is tmux's %exit notification, sent just before the control-mode
// connection closes.
type Exit struct {
	Reason string // empty when tmux sent no reason token
}

func (Exit) notification() {}

// LayoutChange is %layout-change. Newer tmux servers append window_flags and
// window_visible_layout after the two fields this client parses; those are
// preserved unparsed in Extra rather than dropped.
type LayoutChange struct {
	WindowID string
	Layout   layout.Node
	Extra    []string
}

func (LayoutChange) notification() {}

// Output is %output: a pane's raw terminal bytes, already octal-unescaped.
type Output struct {
	PaneID string
	Data   []byte
}

func (Output) notification() {}

// SessionChanged is %session-changed.
type SessionChanged struct {
	SessionID   string
	SessionName string
}

func (SessionChanged) notification() {}

// SessionRenamed is %session-renamed.
type SessionRenamed struct {
	SessionID   string
	SessionName string
}

func (SessionRenamed) notification() {}

// SessionsChanged is %sessions-changed; it carries no payload.
type SessionsChanged struct{}

func (SessionsChanged) notification() {}

// UnlinkedWindowAdd is %unlinked-window-add.
type UnlinkedWindowAdd struct {
	WindowID string
}

func (UnlinkedWindowAdd) notification() {}

// WindowAdd is %window-add.
type WindowAdd struct {
	WindowID string
}

func (WindowAdd) notification() {}

// WindowClose is %window-close.
type WindowClose struct {
	WindowID string
}

func (WindowClose) notification() {}

// WindowRenamed is %window-renamed.
type WindowRenamed struct {
	WindowID   string
	WindowName string
}

func (WindowRenamed) notification() {}
