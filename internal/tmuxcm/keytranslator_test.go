package tmuxcm

import "testing"

func TestKeyTranslatorFixedKeys(t *testing.T) {
	kt := KeyTranslator{}
	tests := []struct {
		key  string
		want string
	}{
		{"BackSpace", "\b"},
		{"Tab", "\t"},
		{"Insert", "\x1b[2~"},
		{"Delete", "\x1b[3~"},
		{"Page_Up", "\x1b[5~"},
		{"Page_Down", "\x1b[6~"},
		{"Home", "\x1bOH"},
		{"End", "\x1bOF"},
		{"Up", "\x1b[A"},
		{"Down", "\x1b[B"},
		{"Right", "\x1b[C"},
		{"Left", "\x1b[D"},
	}
	for _, tt := range tests {
		got, ok := kt.Translate(KeyEvent{Key: tt.key})
		if !ok {
			t.Fatalf("Translate(%q) ok = false", tt.key)
		}
		if string(got) != tt.want {
			t.Errorf("Translate(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestKeyTranslatorLiteralChar(t *testing.T) {
	kt := KeyTranslator{}
	got, ok := kt.Translate(KeyEvent{Char: 'a'})
	if !ok || string(got) != "a" {
		t.Fatalf("Translate('a') = %q, ok=%v", got, ok)
	}
}

func TestKeyTranslatorArrowWithControl(t *testing.T) {
	kt := KeyTranslator{}
	got, ok := kt.Translate(KeyEvent{Key: "Left", Mods: ModControl})
	if !ok {
		t.Fatal("Translate() ok = false")
	}
	if string(got) != "\x1b[1;5D" {
		t.Errorf("Translate(Left+Ctrl) = %q, want ESC[1;5D", got)
	}
}

func TestKeyTranslatorAltPrefixesEscape(t *testing.T) {
	kt := KeyTranslator{}
	got, ok := kt.Translate(KeyEvent{Key: "Left", Mods: ModAlt})
	if !ok {
		t.Fatal("Translate() ok = false")
	}
	if string(got) != "\x1b\x1b[D" {
		t.Errorf("Translate(Left+Alt) = %q, want ESC ESC[D", got)
	}
}

func TestKeyTranslatorAltWithCtrlSwallowed(t *testing.T) {
	kt := KeyTranslator{}
	if _, ok := kt.Translate(KeyEvent{Key: "Left", Mods: ModAlt | ModControl}); ok {
		t.Error("Translate(Left+Alt+Ctrl) ok = true, want swallowed event")
	}
}

func TestKeyTranslatorAltWithShiftSwallowed(t *testing.T) {
	kt := KeyTranslator{}
	if _, ok := kt.Translate(KeyEvent{Char: 'x', Mods: ModAlt | ModShift}); ok {
		t.Error("Translate(x+Alt+Shift) ok = true, want swallowed event")
	}
}

func TestKeyTranslatorEscapesSemicolon(t *testing.T) {
	kt := KeyTranslator{}
	got, ok := kt.Translate(KeyEvent{Char: ';'})
	if !ok || string(got) != "\\;" {
		t.Fatalf("Translate(';') = %q, ok=%v, want \\;", got, ok)
	}
}
