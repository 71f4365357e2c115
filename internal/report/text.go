package report

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/rivo/uniseg"
)

const ellipsis = "..."

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Escape replaces the five markup-significant characters in text.
// It is not idempotent: escape raw input exactly once.
func Escape(text string) string {
	return escaper.Replace(text)
}

// Length measures text the way the chat endpoint does, in UTF-16 code units.
func Length(text string) int {
	n := 0
	for _, r := range text {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// Truncate shortens text to at most limit grapheme clusters, replacing the
// tail with an ellipsis. Text that already fits is returned unchanged.
func Truncate(text string, limit int) string {
	if uniseg.GraphemeClusterCount(text) <= limit {
		return text
	}
	keep := limit - len(ellipsis)
	if keep <= 0 {
		return ellipsis[:max(0, limit)]
	}

	var b strings.Builder
	g := uniseg.NewGraphemes(text)
	for i := 0; i < keep && g.Next(); i++ {
		b.WriteString(g.Str())
	}
	b.WriteString(ellipsis)
	return b.String()
}

// FormatDuration renders seconds as "M <minute> S <second>", or "S <second>" under a minute.
func FormatDuration(seconds int, l Labels) string {
	minutes := seconds / 60
	if minutes > 0 {
		return strconv.Itoa(minutes) + " " + l.MinuteUnit + " " + strconv.Itoa(seconds%60) + " " + l.SecondUnit
	}
	return strconv.Itoa(seconds) + " " + l.SecondUnit
}
