package report

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"github.com/stretchr/testify/assert"

	"github.com/pavelanni/quizreport/internal/model"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{`<b>"Tom's" & Jerry</b>`, "&lt;b&gt;&quot;Tom&#039;s&quot; &amp; Jerry&lt;/b&gt;"},
		{"&amp;", "&amp;amp;"},
		{"", ""},
		{"tiếng Việt", "tiếng Việt"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Escape(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", 150)
	got := Truncate(long, 100)
	assert.Equal(t, 100, len(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, strings.Repeat("a", 97)+"...", got)

	assert.Equal(t, "short", Truncate("short", 100))
	assert.Equal(t, strings.Repeat("b", 100), Truncate(strings.Repeat("b", 100), 100))
}

func TestTruncateMultiByte(t *testing.T) {
	text := strings.Repeat("ệ👨‍🎓", 60)
	got := Truncate(text, 50)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 50, uniseg.GraphemeClusterCount(got))
	assert.True(t, strings.HasPrefix(text, strings.TrimSuffix(got, "...")))
}

func TestTruncateTinyLimit(t *testing.T) {
	assert.Equal(t, "..", Truncate("abcdef", 2))
	assert.Equal(t, "", Truncate("abcdef", 0))
}

func TestLength(t *testing.T) {
	assert.Equal(t, 5, Length("hello"))
	assert.Equal(t, 1, Length("ệ"))
	assert.Equal(t, 2, Length("🎓"))
	assert.Equal(t, 0, Length(""))
}

func TestFormatDuration(t *testing.T) {
	l := DefaultLabels()
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0 giây"},
		{45, "45 giây"},
		{60, "1 phút 0 giây"},
		{125, "2 phút 5 giây"},
		{3725, "62 phút 5 giây"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.seconds, l))
		})
	}
}

func TestRenderAnswer(t *testing.T) {
	l := DefaultLabels()
	tests := []struct {
		name   string
		answer model.Answer
		want   string
	}{
		{"none", model.NoAnswer(), l.NoAnswer},
		{"empty text", model.TextAnswer(""), l.NoAnswer},
		{"text", model.TextAnswer("went"), "went"},
		{"list", model.ListAnswer("go", "went", "gone"), "go, went, gone"},
		{"empty list", model.ListAnswer(), l.NoAnswer},
		{"map", model.MapAnswer(map[string]any{"b": "2", "a": "<1>"}), `{"a":"<1>","b":"2"}`},
		{"empty map", model.MapAnswer(map[string]any{}), l.NoAnswer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderAnswer(tt.answer, l))
		})
	}
}
