package tabular

import (
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Casers are stateful and not safe for concurrent use, so they are pooled
var upperPool = sync.Pool{
	New: func() any {
		c := cases.Upper(language.Und)
		return &c
	},
}

// Normalize trims surrounding whitespace and uppercases s with Unicode rules,
// so "Melastomataceae" and " MELASTOMATACEAE" compare equal.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	c := upperPool.Get().(*cases.Caser)
	defer upperPool.Put(c)
	return c.String(s)
}

// ZeroFill left-pads s with zeros to width, keeping a leading sign in front.
// Strings already at least width long are returned unchanged.
func ZeroFill(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		sign, s = s[:1], s[1:]
	}
	return sign + strings.Repeat("0", width-n) + s
}
