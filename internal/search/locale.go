package search

import (
	"os"
	"strings"
	"sync"

	"golang.org/x/text/language"
	xsearch "golang.org/x/text/search"
)

// localeEnv lists the variables consulted for the collation locale, in
// POSIX precedence order.
var localeEnv = []string{"LC_ALL", "LC_COLLATE", "LANG"}

// CurrentLocale returns the process collation locale as configured in the
// environment at the time of the call. Unset, "C" and "POSIX" map to the
// root locale (language.Und).
func CurrentLocale() language.Tag {
	for _, key := range localeEnv {
		if v := os.Getenv(key); v != "" {
			return ParseLocale(v)
		}
	}
	return language.Und
}

// ParseLocale converts a POSIX locale name ("fr_FR.UTF-8@euro") or a BCP 47
// tag ("fr-FR") to a language tag. Unparseable names yield language.Und.
func ParseLocale(name string) language.Tag {
	if i := strings.IndexAny(name, ".@"); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "C" || name == "POSIX" {
		return language.Und
	}
	tag, err := language.Parse(strings.ReplaceAll(name, "_", "-"))
	if err != nil {
		return language.Und
	}
	return tag
}

// TextMatcher performs case-insensitive substring search using the
// collation rules of one locale.
type TextMatcher struct {
	tag language.Tag

	mu sync.Mutex
	m  *xsearch.Matcher
}

var (
	matchersMu sync.Mutex
	matchers   = map[language.Tag]*TextMatcher{}
)

// ForLocale returns the shared matcher for tag, creating it on first use.
func ForLocale(tag language.Tag) *TextMatcher {
	matchersMu.Lock()
	defer matchersMu.Unlock()
	if tm, ok := matchers[tag]; ok {
		return tm
	}
	tm := &TextMatcher{
		tag: tag,
		m:   xsearch.New(tag, xsearch.IgnoreCase),
	}
	matchers[tag] = tm
	return tm
}

// Locale returns the locale the matcher compares with.
func (tm *TextMatcher) Locale() language.Tag {
	return tm.tag
}

// Contains reports whether substr occurs in s, ignoring case under the
// matcher's locale. An empty substr is always contained.
func (tm *TextMatcher) Contains(s, substr string) bool {
	if substr == "" {
		return true
	}
	tm.mu.Lock()
	start, _ := tm.m.IndexString(s, substr)
	tm.mu.Unlock()
	return start >= 0
}
