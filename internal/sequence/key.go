package sequence

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// Key is one key press in a compose sequence, named by its X11 keysym
// ("Multi_key", "apostrophe") or by the character it types ("e").
type Key string

// keyLabels are glyphs for keys that do not type a character.
var keyLabels = map[Key]string{
	"Multi_key": "♦",
	"Up":        "▲",
	"Down":      "▼",
	"Left":      "◀",
	"Right":     "▶",
}

// keysymChars maps the ASCII and Latin-1 keysyms that commonly appear in
// compose tables to the character they type.
var keysymChars = map[Key]string{
	"space":          " ",
	"exclam":         "!",
	"quotedbl":       `"`,
	"numbersign":     "#",
	"dollar":         "$",
	"percent":        "%",
	"ampersand":      "&",
	"apostrophe":     "'",
	"parenleft":      "(",
	"parenright":     ")",
	"asterisk":       "*",
	"plus":           "+",
	"comma":          ",",
	"minus":          "-",
	"period":         ".",
	"slash":          "/",
	"colon":          ":",
	"semicolon":      ";",
	"less":           "<",
	"equal":          "=",
	"greater":        ">",
	"question":       "?",
	"at":             "@",
	"bracketleft":    "[",
	"backslash":      `\`,
	"bracketright":   "]",
	"asciicircum":    "^",
	"underscore":     "_",
	"grave":          "`",
	"braceleft":      "{",
	"bar":            "|",
	"braceright":     "}",
	"asciitilde":     "~",
	"nobreakspace":   "\u00a0",
	"exclamdown":     "¡",
	"cent":           "¢",
	"sterling":       "£",
	"currency":       "¤",
	"yen":            "¥",
	"section":        "§",
	"diaeresis":      "¨",
	"degree":         "°",
	"acute":          "´",
	"cedilla":        "¸",
	"macron":         "¯",
	"periodcentered": "·",
	"questiondown":   "¿",
	"multiply":       "×",
	"division":       "÷",
}

// Printable returns the text typed by the key, or "" for keys that type
// nothing (Multi_key, arrows) or are unknown.
func (k Key) Printable() string {
	if c, ok := keysymChars[k]; ok {
		return c
	}
	if utf8.RuneCountInString(string(k)) == 1 {
		return string(k)
	}
	return ""
}

// FriendlyName returns a glyph suitable for display.
func (k Key) FriendlyName() string {
	if l, ok := keyLabels[k]; ok {
		return l
	}
	if p := k.Printable(); p != "" {
		return p
	}
	return string(k)
}

// KeySequence is an ordered list of key presses.
type KeySequence []Key

// ParseKeySequence reads the comma-separated form produced by String.
// Whitespace around each key is ignored and empty items are dropped.
func ParseKeySequence(s string) KeySequence {
	var seq KeySequence
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			seq = append(seq, Key(part))
		}
	}
	return seq
}

// String serializes the sequence as comma-separated keysyms.
func (ks KeySequence) String() string {
	parts := make([]string, len(ks))
	for i, k := range ks {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}

// FriendlyName renders the sequence with display glyphs.
func (ks KeySequence) FriendlyName() string {
	var b strings.Builder
	for i, k := range ks {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k.FriendlyName())
	}
	return b.String()
}

// Equal reports whether both sequences have the same keys in order.
func (ks KeySequence) Equal(other KeySequence) bool {
	return slices.Equal(ks, other)
}

// MarshalText implements encoding.TextMarshaler.
func (ks KeySequence) MarshalText() ([]byte, error) {
	return []byte(ks.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (ks *KeySequence) UnmarshalText(text []byte) error {
	*ks = ParseKeySequence(string(text))
	return nil
}
