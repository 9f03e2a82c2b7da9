package tmuxcm

// Modifiers is a bitmask of held modifier keys, matching a GTK-style
// keyval + state pair.
type Modifiers uint8

const (
	ModControl Modifiers = 1 << iota
	ModShift
	ModAlt // GTK's Mod1
)

// KeyEvent is a single key press the upper layer forwards to the Key
// Translator: a named key (e.g. "Left", "Tab") or, for ordinary characters,
// the literal rune in Char.
type KeyEvent struct {
	Key  string
	Char rune
	Mods Modifiers
}

var fixedKeySequences = map[string]string{
	"BackSpace": "\b",
	"Tab":       "\t",
	"Insert":    "\x1b[2~",
	"Delete":    "\x1b[3~",
	"Page_Up":   "\x1b[5~",
	"Page_Down": "\x1b[6~",
	"Home":      "\x1bOH",
	"End":       "\x1bOF",
	"Up":        "\x1b[A",
	"Down":      "\x1b[B",
	"Right":     "\x1b[C",
	"Left":      "\x1b[D",
}

var arrowLetters = map[string]string{
	"Up":    "A",
	"Down":  "B",
	"Right": "C",
	"Left":  "D",
}

// KeyTranslator maps a KeyEvent to the byte sequence tmux's
// `send-keys -l` expects.
type KeyTranslator struct{}

// Translate returns the byte sequence for ev, or (nil, false) when the
// GTK Alt+Ctrl / Alt+Shift quirk this core works around should swallow the
// event entirely.
func (KeyTranslator) Translate(ev KeyEvent) ([]byte, bool) {
	altHeld := ev.Mods&ModAlt != 0
	ctrlHeld := ev.Mods&ModControl != 0
	shiftHeld := ev.Mods&ModShift != 0

	if altHeld && (ctrlHeld || shiftHeld) {
		return nil, false
	}

	var seq string
	if letter, isArrow := arrowLetters[ev.Key]; isArrow && ctrlHeld {
		seq = "\x1b[1;5" + letter
	} else if fixed, ok := fixedKeySequences[ev.Key]; ok {
		seq = fixed
	} else {
		seq = string(ev.Char)
	}

	if altHeld {
		seq = "\x1b" + seq
	}

	if seq == ";" {
		seq = "\\;"
	}

	return []byte(seq), true
}
