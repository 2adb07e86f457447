// Package unicat classifies runes into Unicode general categories.
package unicat

import "unicode"

// GeneralCategory is a Unicode general category.
type GeneralCategory int

const (
	UppercaseLetter GeneralCategory = iota
	LowercaseLetter
	TitlecaseLetter
	ModifierLetter
	OtherLetter
	NonSpacingMark
	SpacingCombiningMark
	EnclosingMark
	DecimalDigitNumber
	LetterNumber
	OtherNumber
	SpaceSeparator
	LineSeparator
	ParagraphSeparator
	Control
	Format
	Surrogate
	PrivateUse
	ConnectorPunctuation
	DashPunctuation
	OpenPunctuation
	ClosePunctuation
	InitialQuotePunctuation
	FinalQuotePunctuation
	OtherPunctuation
	MathSymbol
	CurrencySymbol
	ModifierSymbol
	OtherSymbol
	OtherNotAssigned
)

// Unknown is returned by Parse for unrecognised codes.
const Unknown GeneralCategory = -1

var codes = [...]string{
	UppercaseLetter:         "Lu",
	LowercaseLetter:         "Ll",
	TitlecaseLetter:         "Lt",
	ModifierLetter:          "Lm",
	OtherLetter:             "Lo",
	NonSpacingMark:          "Mn",
	SpacingCombiningMark:    "Mc",
	EnclosingMark:           "Me",
	DecimalDigitNumber:      "Nd",
	LetterNumber:            "Nl",
	OtherNumber:             "No",
	SpaceSeparator:          "Zs",
	LineSeparator:           "Zl",
	ParagraphSeparator:      "Zp",
	Control:                 "Cc",
	Format:                  "Cf",
	Surrogate:               "Cs",
	PrivateUse:              "Co",
	ConnectorPunctuation:    "Pc",
	DashPunctuation:         "Pd",
	OpenPunctuation:         "Ps",
	ClosePunctuation:        "Pe",
	InitialQuotePunctuation: "Pi",
	FinalQuotePunctuation:   "Pf",
	OtherPunctuation:        "Po",
	MathSymbol:              "Sm",
	CurrencySymbol:          "Sc",
	ModifierSymbol:          "Sk",
	OtherSymbol:             "So",
	OtherNotAssigned:        "Cn",
}

var labels = [...]string{
	UppercaseLetter:         "Uppercase letter",
	LowercaseLetter:         "Lowercase letter",
	TitlecaseLetter:         "Titlecase letter",
	ModifierLetter:          "Modifier letter",
	OtherLetter:             "Other letter",
	NonSpacingMark:          "Nonspacing mark",
	SpacingCombiningMark:    "Spacing mark",
	EnclosingMark:           "Enclosing mark",
	DecimalDigitNumber:      "Decimal number",
	LetterNumber:            "Letter number",
	OtherNumber:             "Other number",
	SpaceSeparator:          "Space separator",
	LineSeparator:           "Line separator",
	ParagraphSeparator:      "Paragraph separator",
	Control:                 "Control",
	Format:                  "Format",
	Surrogate:               "Surrogate",
	PrivateUse:              "Private use",
	ConnectorPunctuation:    "Connector punctuation",
	DashPunctuation:         "Dash punctuation",
	OpenPunctuation:         "Open punctuation",
	ClosePunctuation:        "Close punctuation",
	InitialQuotePunctuation: "Initial punctuation",
	FinalQuotePunctuation:   "Final punctuation",
	OtherPunctuation:        "Other punctuation",
	MathSymbol:              "Math symbol",
	CurrencySymbol:          "Currency symbol",
	ModifierSymbol:          "Modifier symbol",
	OtherSymbol:             "Other symbol",
	OtherNotAssigned:        "Unassigned",
}

// byCode is built once and only read afterwards.
var byCode = func() map[string]GeneralCategory {
	m := make(map[string]GeneralCategory, len(codes))
	for i, c := range codes {
		m[c] = GeneralCategory(i)
	}
	return m
}()

// Of returns the general category of r. Runes outside every assigned
// table are OtherNotAssigned.
func Of(r rune) GeneralCategory {
	for i := UppercaseLetter; i < OtherNotAssigned; i++ {
		if unicode.Is(unicode.Categories[codes[i]], r) {
			return i
		}
	}
	return OtherNotAssigned
}

// Parse resolves a two-letter code such as "Lu". Unknown codes yield Unknown.
func Parse(code string) GeneralCategory {
	if c, ok := byCode[code]; ok {
		return c
	}
	return Unknown
}

// String returns the two-letter code.
func (c GeneralCategory) String() string {
	if c < 0 || int(c) >= len(codes) {
		return "??"
	}
	return codes[c]
}

// Label returns a human-readable name, e.g. "Currency symbol".
func (c GeneralCategory) Label() string {
	if c < 0 || int(c) >= len(labels) {
		return "Unknown"
	}
	return labels[c]
}

// MarshalText encodes the category as its two-letter code.
func (c GeneralCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
