package tmuxcm

import (
	"strings"
	"testing"
)

func TestTmuxQuotePicksDoubleQuoteWhenContentHasSingleQuote(t *testing.T) {
	if got := tmuxQuote("it's"); got != `"it's"` {
		t.Errorf("tmuxQuote(%q) = %q, want %q", "it's", got, `"it's"`)
	}
}

func TestTmuxQuoteDefaultsToSingleQuote(t *testing.T) {
	if got := tmuxQuote("plain"); got != "'plain'" {
		t.Errorf("tmuxQuote(%q) = %q, want %q", "plain", got, "'plain'")
	}
}

func TestNewMarkerUnique(t *testing.T) {
	a := NewMarker()
	b := NewMarker()
	if a == b {
		t.Fatal("NewMarker() returned the same value twice")
	}
}

func TestCmdSplitWindowOrientationFlag(t *testing.T) {
	h := cmdSplitWindow("%1", OrientationHorizontal, "m", "", "")
	if !strings.Contains(h, "split-window -h ") {
		t.Errorf("cmdSplitWindow(horizontal) = %q", h)
	}
	v := cmdSplitWindow("%1", OrientationVertical, "m", "", "")
	if !strings.Contains(v, "split-window -v ") {
		t.Errorf("cmdSplitWindow(vertical) = %q", v)
	}
}

func TestCmdRefreshClient(t *testing.T) {
	if got := cmdRefreshClient(80, 24); got != "refresh-client -C 80,24" {
		t.Errorf("cmdRefreshClient() = %q", got)
	}
}

func TestCmdSendKeysLiteral(t *testing.T) {
	got := cmdSendKeysLiteral("%3", "hello")
	if got != "send-keys -t '%3' -l 'hello'" {
		t.Errorf("cmdSendKeysLiteral() = %q", got)
	}
}

func TestCmdToggleZoom(t *testing.T) {
	if got := cmdToggleZoom("%2"); got != "resize-pane -Z -t '%2'" {
		t.Errorf("cmdToggleZoom() = %q", got)
	}
}

func TestCmdInitialLayout(t *testing.T) {
	got := cmdInitialLayout("mysess")
	if !strings.HasPrefix(got, "list-windows -t 'mysess'") {
		t.Errorf("cmdInitialLayout() = %q", got)
	}
}

func TestCmdGarbageCollectPanes(t *testing.T) {
	got := cmdGarbageCollectPanes("mysess")
	if !strings.Contains(got, "list-panes -s -t 'mysess'") {
		t.Errorf("cmdGarbageCollectPanes() = %q", got)
	}
}
