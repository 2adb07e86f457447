// Package search parses user search strings into queries and provides the
// locale-aware text comparison used to evaluate them.
package search

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/language"
)

// Query is a parsed search string. Text tokens are matched as substrings
// of a description; numeric tokens are matched against code points.
type Query struct {
	Raw           string
	TextTokens    []string
	NumericTokens []int

	// Matcher pins text comparison to one locale. When nil the process
	// locale is resolved each time TextMatcher is called.
	Matcher *TextMatcher
}

// tokenRegex splits on whitespace except inside double quotes.
var tokenRegex = regexp.MustCompile(`\s*((?:[^\s"]|"[^"]*"|")+)\s*`)

// Parse splits text into tokens. Every token is a text token; tokens that
// read as decimal or hexadecimal integers (hex optionally prefixed with
// "U+" or "0x") also contribute numeric tokens.
func Parse(text string) Query {
	q := Query{Raw: text}

	for _, m := range tokenRegex.FindAllStringSubmatch(text, -1) {
		token := m[1]
		if len(token) >= 2 && strings.HasPrefix(token, `"`) && strings.HasSuffix(token, `"`) {
			token = strings.Trim(token, `"`)
		}
		if token == "" || token == `"` {
			continue
		}
		q.TextTokens = append(q.TextTokens, token)
		q.NumericTokens = append(q.NumericTokens, parseNumbers(token)...)
	}
	q.NumericTokens = lo.Uniq(q.NumericTokens)

	return q
}

// parseNumbers returns the decimal value of token and, if different, its
// hexadecimal value.
func parseNumbers(token string) []int {
	var nums []int

	dec, decErr := strconv.ParseInt(token, 10, 32)
	if decErr == nil {
		nums = append(nums, int(dec))
	}

	hex := token
	if lower := strings.ToLower(hex); strings.HasPrefix(lower, "u+") || strings.HasPrefix(lower, "0x") {
		hex = hex[2:]
	}
	if v, err := strconv.ParseUint(hex, 16, 32); err == nil && v <= 0x7fffffff {
		if decErr != nil || int(v) != int(dec) {
			nums = append(nums, int(v))
		}
	}

	return nums
}

// IsEmpty reports whether the query has no tokens at all.
func (q Query) IsEmpty() bool {
	return len(q.TextTokens) == 0 && len(q.NumericTokens) == 0
}

// WithLocale returns a copy of q bound to tag.
func (q Query) WithLocale(tag language.Tag) Query {
	q.Matcher = ForLocale(tag)
	return q
}

// TextMatcher returns the matcher to compare text tokens with.
func (q Query) TextMatcher() *TextMatcher {
	if q.Matcher != nil {
		return q.Matcher
	}
	return ForLocale(CurrentLocale())
}
