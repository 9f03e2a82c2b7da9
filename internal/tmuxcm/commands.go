package tmuxcm

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewMarker returns a fresh correlation token a caller attaches to a
// run_command invocation so the response's echoed `#D <marker>` can be
// matched back to the requesting terminal. Backed by a uuid so concurrent
// run_command calls never collide on the marker alone.
func NewMarker() string {
	return uuid.NewString()
}

// tmuxQuote wraps content the way send-keys -l expects: single-quoted
// unless the content itself contains a single quote, in which case it's
// double-quoted instead. No further escaping; a literal ';' is the
// caller's responsibility (see KeyTranslator).
func tmuxQuote(content string) string {
	q := "'"
	if strings.Contains(content, "'") {
		q = "\""
	}
	return q + content + q
}

func cmdNewWindow(sessionName, marker, cwd, command string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "new-window -t %s -P -F \"#D %s\"", tmuxQuote(sessionName), marker)
	if cwd != "" {
		fmt.Fprintf(&b, " -c %s", tmuxQuote(cwd))
	}
	if command != "" {
		fmt.Fprintf(&b, " %s", tmuxQuote(command))
	}
	return b.String()
}

// Orientation picks which way split_window divides an existing pane.
type Orientation int

const (
	OrientationHorizontal Orientation = iota
	OrientationVertical
)

func cmdSplitWindow(paneID string, orientation Orientation, marker, cwd, command string) string {
	flag := "-h"
	if orientation == OrientationVertical {
		flag = "-v"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "split-window %s -t %s -P -F \"#D %s\"", flag, tmuxQuote(paneID), marker)
	if cwd != "" {
		fmt.Fprintf(&b, " -c %s", tmuxQuote(cwd))
	}
	if command != "" {
		fmt.Fprintf(&b, " %s", tmuxQuote(command))
	}
	return b.String()
}

func cmdRefreshClient(width, height int) string {
	return fmt.Sprintf("refresh-client -C %d,%d", width, height)
}

func cmdSendKeysLiteral(paneID string, content string) string {
	return fmt.Sprintf("send-keys -t %s -l %s", tmuxQuote(paneID), tmuxQuote(content))
}

func cmdToggleZoom(paneID string) string {
	return fmt.Sprintf("resize-pane -Z -t %s", tmuxQuote(paneID))
}

func cmdInitialLayout(sessionName string) string {
	return fmt.Sprintf(`list-windows -t %s -F "#{window_layout}"`, tmuxQuote(sessionName))
}

func cmdInitialOutput(paneID string) string {
	return fmt.Sprintf("capture-pane -J -p -t %s -eC -S - -E -", tmuxQuote(paneID))
}

func cmdGarbageCollectPanes(sessionName string) string {
	return fmt.Sprintf(`list-panes -s -t %s -F "#D"`, tmuxQuote(sessionName))
}
