package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// ANSI color codes
const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiDim    = "\033[2m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

// termStyle provides terminal styling helpers with automatic color detection.
type termStyle struct {
	useColors bool
}

func newTermStyle() *termStyle {
	return &termStyle{
		useColors: term.IsTerminal(int(os.Stdout.Fd())),
	}
}

func (t *termStyle) colorize(code, text string) string {
	if !t.useColors {
		return text
	}
	return code + text + ansiReset
}

func (t *termStyle) Header(title string) {
	bar := strings.Repeat("-", 60)
	fmt.Println()
	fmt.Println(t.colorize(ansiCyan, bar))
	fmt.Println(t.colorize(ansiBold+ansiCyan, "  "+title))
	fmt.Println(t.colorize(ansiCyan, bar))
}

func (t *termStyle) Success(msg string) { fmt.Println(t.colorize(ansiGreen, "+ "+msg)) }
func (t *termStyle) Warn(msg string)    { fmt.Println(t.colorize(ansiYellow, "! "+msg)) }
func (t *termStyle) Error(msg string)   { fmt.Println(t.colorize(ansiRed, "x "+msg)) }
func (t *termStyle) Dim(s string) string  { return t.colorize(ansiDim, s) }
func (t *termStyle) Cyan(s string) string { return t.colorize(ansiCyan, s) }

// rawTerminal puts fd into raw mode for the duration of an interactive
// attach and restores the previous state on restore(). Grounded on the
// teacher's term.IsTerminal color-detection use, extended here to the raw
// mode side x/term also exposes since the interactive attach path needs it.
type rawTerminal struct {
	fd    int
	state *term.State
}

func makeRaw(fd int) (*rawTerminal, error) {
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("term: make raw: %w", err)
	}
	return &rawTerminal{fd: fd, state: state}, nil
}

func (r *rawTerminal) restore() error {
	return term.Restore(r.fd, r.state)
}

// terminalSize reports the current size of fd, falling back to
// defaultWidth/defaultHeight when fd isn't a terminal (e.g. piped stdout
// in tests or when run under a relay with no local tty at all).
func terminalSize(fd int, defaultWidth, defaultHeight int) (width, height int) {
	w, h, err := term.GetSize(fd)
	if err != nil {
		return defaultWidth, defaultHeight
	}
	return w, h
}
