package tmuxcm

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/sergeknystautas/tmuxctl/internal/tmuxcm/layout"
)

// Guard line regexes for the envelope markers. %output's payload is matched
// separately since it may itself contain characters that look like tokens.
var (
	beginRegex = regexp.MustCompile(`^%begin (\d+) (\d+) (\d+)$`)
	endRegex   = regexp.MustCompile(`^%end (\d+) (\d+) (\d+)$`)
	errorRegex = regexp.MustCompile(`^%error (\d+) (\d+) (\d+)$`)
)

// Decoder reads complete newline-terminated lines from a tmux control-mode
// stream and turns them into typed Notification values, accumulating the
// multi-line %begin...%end|%error envelope internally. It is not safe for
// concurrent use; the control session's single reader worker owns it.
type Decoder struct {
	scanner *bufio.Scanner

	inEnvelope    bool
	envelopeBegin int64
	envelopeLines []string
}

// NewDecoder wraps r for line-oriented reading. Uses a 1MB scan buffer so a
// single capture-pane response line doesn't overflow bufio's default.
func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Decoder{scanner: s}
}

// Next reads and decodes the next Notification. It loops past malformed or
// unknown lines (logging and skipping each, per the protocol's local-
// recovery error semantics) until it produces a value or the underlying
// reader is exhausted, in which case it returns io.EOF.
func (d *Decoder) Next() (Notification, error) {
	for {
		if !d.scanner.Scan() {
			if err := d.scanner.Err(); err != nil {
				return nil, fmt.Errorf("tmuxcm: read notification line: %w", err)
			}
			return nil, io.EOF
		}

		line := d.scanner.Text()
		n, ok, err := d.decodeLine(line)
		if err != nil {
			log.Printf("tmuxcm: %v", err)
			continue
		}
		if !ok {
			continue
		}
		return n, nil
	}
}

// decodeLine classifies a single line. ok is false when the line was
// consumed into an in-progress envelope or otherwise produced no
// notification of its own.
func (d *Decoder) decodeLine(line string) (Notification, bool, error) {
	if d.inEnvelope {
		if m := endRegex.FindStringSubmatch(line); m != nil {
			return d.finishEnvelope(m, false)
		}
		if m := errorRegex.FindStringSubmatch(line); m != nil {
			return d.finishEnvelope(m, true)
		}
		d.envelopeLines = append(d.envelopeLines, line)
		return nil, false, nil
	}

	if m := beginRegex.FindStringSubmatch(line); m != nil {
		ts, _ := strconv.ParseInt(m[1], 10, 64)
		d.inEnvelope = true
		d.envelopeBegin = ts
		d.envelopeLines = nil
		return nil, false, nil
	}

	if !strings.HasPrefix(line, "%") {
		return nil, false, fmt.Errorf("%w: line without marker: %q", ErrProtocolFraming, line)
	}

	fields := strings.SplitN(line[1:], " ", 2)
	marker := fields[0]
	var rest string
	if len(fields) > 1 {
		rest = fields[1]
	}

	return d.decodeMarker(marker, rest)
}

func (d *Decoder) finishEnvelope(m []string, isError bool) (Notification, bool, error) {
	end, _ := strconv.ParseInt(m[1], 10, 64)
	code, _ := strconv.Atoi(m[2])
	res := Result{
		BeginTimestamp: d.envelopeBegin,
		Code:           code,
		Lines:          d.envelopeLines,
		EndTimestamp:   end,
		Error:          isError,
	}
	d.inEnvelope = false
	d.envelopeLines = nil
	return res, true, nil
}

func (d *Decoder) decodeMarker(marker, rest string) (Notification, bool, error) {
	switch marker {
	case "exit":
		return Exit{Reason: rest}, true, nil

	case "output":
		paneID, data, err := splitOutput(rest)
		if err != nil {
			return nil, false, err
		}
		return Output{PaneID: paneID, Data: []byte(UnescapeOutput(data))}, true, nil

	case "layout-change":
		toks := strings.Fields(rest)
		if len(toks) < 2 {
			return nil, false, fmt.Errorf("%w: layout-change wants >=2 tokens, got %d: %q", ErrProtocolFraming, len(toks), rest)
		}
		tree, err := layout.Parse(toks[1])
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrLayoutMalformed, err)
		}
		var extra []string
		if len(toks) > 2 {
			extra = toks[2:]
		}
		return LayoutChange{WindowID: toks[0], Layout: tree, Extra: extra}, true, nil

	case "session-changed":
		id, name, err := splitTwo(rest)
		if err != nil {
			return nil, false, err
		}
		return SessionChanged{SessionID: id, SessionName: name}, true, nil

	case "session-renamed":
		id, name, err := splitTwo(rest)
		if err != nil {
			return nil, false, err
		}
		return SessionRenamed{SessionID: id, SessionName: name}, true, nil

	case "sessions-changed":
		return SessionsChanged{}, true, nil

	case "unlinked-window-add":
		return UnlinkedWindowAdd{WindowID: strings.TrimSpace(rest)}, true, nil

	case "window-add":
		return WindowAdd{WindowID: strings.TrimSpace(rest)}, true, nil

	case "window-close":
		return WindowClose{WindowID: strings.TrimSpace(rest)}, true, nil

	case "window-renamed":
		id, name, err := splitTwo(rest)
		if err != nil {
			return nil, false, err
		}
		return WindowRenamed{WindowID: id, WindowName: name}, true, nil

	default:
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownMarker, marker)
	}
}

// splitOutput pulls the pane id off an %output payload's first token and
// preserves the byte-exact remainder, rather than rejoining a space-split
// token list (the historical Python behavior lossily collapses runs of
// spaces to one; see TestOutputLegacySingleSpaceJoin for that behavior
// pinned down separately).
func splitOutput(rest string) (paneID, data string, err error) {
	idx := strings.IndexByte(rest, ' ')
	if idx < 0 {
		return "", "", fmt.Errorf("%w: output missing pane id: %q", ErrProtocolFraming, rest)
	}
	return rest[:idx], rest[idx+1:], nil
}

func splitTwo(rest string) (first, second string, err error) {
	idx := strings.IndexByte(rest, ' ')
	if idx < 0 {
		return "", "", fmt.Errorf("%w: expected two tokens, got %q", ErrProtocolFraming, rest)
	}
	return rest[:idx], rest[idx+1:], nil
}

// UnescapeOutput decodes tmux control mode's \NNN octal byte escapes
// (everything below ASCII 32 and the backslash itself) back into raw bytes.
func UnescapeOutput(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && isOctalDigit(s[i+1]) && isOctalDigit(s[i+2]) && isOctalDigit(s[i+3]) {
			val := (int(s[i+1]-'0') << 6) | (int(s[i+2]-'0') << 3) | int(s[i+3]-'0')
			b.WriteByte(byte(val))
			i += 3
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isOctalDigit(b byte) bool {
	return b >= '0' && b <= '7'
}

// legacySingleSpaceJoin reproduces the original Python decoder's lossy
// %output handling: split the remainder on whitespace runs and rejoin the
// tokens with a single space each, collapsing multi-space runs. Kept only
// to pin the historical behavior down in a test; Decoder.Next no longer
// calls this.
func legacySingleSpaceJoin(rest string) string {
	return strings.Join(strings.Fields(rest), " ")
}
