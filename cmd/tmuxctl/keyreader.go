package main

import (
	"bufio"

	"github.com/sergeknystautas/tmuxctl/internal/tmuxcm"
)

// csiArrowSuffix maps the final byte of a CSI arrow sequence ("\x1b[A"...)
// to the named key KeyTranslator expects.
var csiArrowSuffix = map[byte]string{
	'A': "Up",
	'B': "Down",
	'C': "Right",
	'D': "Left",
	'H': "Home",
	'F': "End",
}

// csiTildeSuffix maps a CSI "<n>~" sequence's digit to a named key.
var csiTildeSuffix = map[byte]string{
	'2': "Insert",
	'3': "Delete",
	'5': "Page_Up",
	'6': "Page_Down",
}

// readKeyEvent decodes the next key from r into a tmuxcm.KeyEvent. It
// recognizes the small set of CSI/SS3 escape sequences a raw-mode terminal
// sends for arrow and navigation keys, maps DEL/BS to BackSpace and TAB to
// Tab, and treats ESC followed by a plain character as Alt+character;
// everything else, including other control characters, passes through as a
// literal rune so KeyTranslator forwards it unchanged.
func readKeyEvent(r *bufio.Reader) (tmuxcm.KeyEvent, error) {
	b, err := r.ReadByte()
	if err != nil {
		return tmuxcm.KeyEvent{}, err
	}

	switch b {
	case 0x7f, 0x08:
		return tmuxcm.KeyEvent{Key: "BackSpace"}, nil
	case '\t':
		return tmuxcm.KeyEvent{Key: "Tab"}, nil
	case 0x1b:
		return readEscapeSequence(r)
	default:
		return tmuxcm.KeyEvent{Char: decodeRune(b, r)}, nil
	}
}

func readEscapeSequence(r *bufio.Reader) (tmuxcm.KeyEvent, error) {
	second, err := r.ReadByte()
	if err != nil {
		// A lone ESC with nothing following: forward as a literal escape.
		return tmuxcm.KeyEvent{Char: 0x1b}, nil
	}

	switch second {
	case '[':
		third, err := r.ReadByte()
		if err != nil {
			return tmuxcm.KeyEvent{Char: 0x1b}, nil
		}
		if key, ok := csiArrowSuffix[third]; ok {
			return tmuxcm.KeyEvent{Key: key}, nil
		}
		if key, ok := csiTildeSuffix[third]; ok {
			// Consume the trailing '~'.
			r.ReadByte()
			return tmuxcm.KeyEvent{Key: key}, nil
		}
		return tmuxcm.KeyEvent{Char: rune(third)}, nil
	case 'O':
		third, err := r.ReadByte()
		if err != nil {
			return tmuxcm.KeyEvent{Char: 0x1b}, nil
		}
		if key, ok := csiArrowSuffix[third]; ok {
			return tmuxcm.KeyEvent{Key: key}, nil
		}
		return tmuxcm.KeyEvent{Char: rune(third)}, nil
	default:
		// Alt+<char>: ESC followed directly by the character.
		return tmuxcm.KeyEvent{Char: rune(second), Mods: tmuxcm.ModAlt}, nil
	}
}

// decodeRune reconstructs a multi-byte UTF-8 rune starting at b, reading
// continuation bytes from r as needed.
func decodeRune(b byte, r *bufio.Reader) rune {
	if b < 0x80 {
		return rune(b)
	}
	n := 0
	switch {
	case b&0xE0 == 0xC0:
		n = 1
	case b&0xF0 == 0xE0:
		n = 2
	case b&0xF8 == 0xF0:
		n = 3
	default:
		return rune(b)
	}
	buf := []byte{b}
	for i := 0; i < n; i++ {
		c, err := r.ReadByte()
		if err != nil {
			break
		}
		buf = append(buf, c)
	}
	runes := []rune(string(buf))
	if len(runes) == 0 {
		return rune(b)
	}
	return runes[0]
}
