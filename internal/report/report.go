// Package report renders quiz results as bounded chat messages.
//
// The output uses the Telegram HTML subset. Every line carries balanced
// markup, so the message can be cut at any line boundary.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pavelanni/quizreport/internal/model"
)

const (
	separator     = "<b>━━━━━━━━━━━━━━━━━━</b>\n"
	maxAdviceLine = 300
)

// Format renders r within lim. It never fails: missing fields render as
// placeholders, and the result is at most lim.MaxMessageLength long as
// measured by Length. Format is safe for concurrent use.
func Format(r model.ResultRecord, lim model.Limits, l Labels) string {
	var b strings.Builder
	writeHeader(&b, r, l)
	writeSummary(&b, r, l)

	candidates, heading := selectCandidates(r, l)
	b.WriteString(separator)
	b.WriteString("<b>" + heading + "</b>\n")
	b.WriteString(separator)
	b.WriteString("\n")

	footer := separator + "<i>" + l.Footer + "</i>"

	// The worst-case omission line and the footer must always fit after the
	// last block, whatever the reserve margin says.
	tail := Length(omissionLine(len(candidates), l)) + Length(footer)
	hardLimit := lim.MaxMessageLength - tail
	softLimit := lim.MaxMessageLength - lim.ReserveMargin

	size := Length(b.String())
	shown := 0
	for _, idx := range candidates {
		if shown >= lim.MaxQuestionsShown {
			break
		}
		block := questionBlock(idx+1, r.AnswerHistory[idx], lim, l)
		n := Length(block)
		if size+n > hardLimit {
			break
		}
		b.WriteString(block)
		size += n
		shown++
		if size > softLimit {
			break
		}
	}
	if rest := len(candidates) - shown; rest > 0 {
		b.WriteString(omissionLine(rest, l))
	}

	out := clampLines(b.String(), lim.MaxMessageLength-Length(footer)) + footer
	if Length(out) > lim.MaxMessageLength {
		return clampLines(footer, lim.MaxMessageLength)
	}
	return out
}

// selectCandidates returns the history indexes eligible for detail blocks
// and the heading announcing them. Wrong answers win over a full listing.
func selectCandidates(r model.ResultRecord, l Labels) ([]int, string) {
	var wrong []int
	for i, a := range r.AnswerHistory {
		if !a.IsCorrect {
			wrong = append(wrong, i)
		}
	}
	if len(wrong) > 0 {
		return wrong, fmt.Sprintf("%s (%d)", l.IncorrectHeading, len(wrong))
	}

	all := make([]int, len(r.AnswerHistory))
	for i := range all {
		all[i] = i
	}
	return all, l.AllCorrectHeading
}

func writeHeader(b *strings.Builder, r model.ResultRecord, l Labels) {
	b.WriteString("<b>" + l.Title + "</b>\n\n")
	writeField(b, l.Student, field(r.StudentName, l))
	writeField(b, l.Teacher, field(r.TeacherName, l))
	writeField(b, l.Unit, field(r.UnitTitle, l))
	if len(r.GrammarTopics) > 0 {
		topics := make([]string, len(r.GrammarTopics))
		for i, t := range r.GrammarTopics {
			topics[i] = Escape(t)
		}
		writeField(b, l.Topics, strings.Join(topics, ", "))
	}
	writeField(b, l.CompletedAt, field(r.CompletedAt, l))
	b.WriteString("\n")
}

func writeSummary(b *strings.Builder, r model.ResultRecord, l Labels) {
	b.WriteString(separator)
	b.WriteString("<b>" + l.SummaryHeading + "</b>\n")
	b.WriteString(separator)
	b.WriteString("\n")

	writeField(b, l.Score, fmt.Sprintf("%d %s", r.Score, l.PointUnit))
	writeField(b, l.Correct, fmt.Sprintf("%d/%d (%s%%)", r.CorrectAnswers, r.TotalQuestions,
		strconv.FormatFloat(r.Percentage, 'f', -1, 64)))
	writeField(b, l.Duration, FormatDuration(r.TimeSpentSeconds, l))
	writeField(b, l.Hints, fmt.Sprintf("%d %s (-%d %s)", r.HintsUsed, l.TimesUnit, r.HintsUsed*2, l.PointUnit))
	writeField(b, l.Combo, fmt.Sprintf("+%d %s", r.ComboBonusEarned, l.PointUnit))
	writeField(b, l.TimeBonus, fmt.Sprintf("+%d %s", r.TimeBonusEarned, l.PointUnit))
	writeField(b, l.Rating, Stars(r.Stars))
	b.WriteString("\n")
}

// Stars renders a three-star rating such as "★★☆ (2/3)".
func Stars(n int) string {
	filled := max(0, n)
	empty := max(0, 3-n)
	return fmt.Sprintf("%s%s (%d/3)", strings.Repeat("★", filled), strings.Repeat("☆", empty), n)
}

func questionBlock(num int, a model.AnswerRecord, lim model.Limits, l Labels) string {
	var b strings.Builder
	text := Escape(Truncate(a.QuestionText, lim.MaxQuestionTextLength))
	fmt.Fprintf(&b, "<b>%s %d:</b> %s\n", l.Question, num, text)

	if a.IsCorrect {
		fmt.Fprintf(&b, "✅ <b>%s</b> (%+d %s)\n", l.StatusCorrect, a.Points, l.PointUnit)
	} else {
		fmt.Fprintf(&b, "❌ <b>%s</b> (%+d %s)\n", l.StatusIncorrect, a.Points, l.PointUnit)
	}
	fmt.Fprintf(&b, "%s <code>%s</code>\n", l.UserAnswer, Escape(RenderAnswer(a.UserAnswer, l)))
	if !a.IsCorrect {
		fmt.Fprintf(&b, "%s <code>%s</code>\n", l.CorrectAnswer, Escape(RenderAnswer(a.CorrectAnswer, l)))
	}
	b.WriteString("\n")
	return b.String()
}

func omissionLine(n int, l Labels) string {
	return fmt.Sprintf("<i>… %s %d</i>\n\n", l.Omitted, n)
}

func writeField(b *strings.Builder, label, value string) {
	b.WriteString("<b>" + label + "</b> " + value + "\n")
}

// field escapes a free-text header value, substituting the placeholder for blanks.
func field(s string, l Labels) string {
	if strings.TrimSpace(s) == "" {
		return l.NotProvided
	}
	return Escape(s)
}

// clampLines keeps the longest run of whole lines from the start of s
// whose total length is within limit.
func clampLines(s string, limit int) string {
	if Length(s) <= limit {
		return s
	}
	var b strings.Builder
	size := 0
	for _, line := range strings.SplitAfter(s, "\n") {
		n := Length(line)
		if size+n > limit {
			break
		}
		b.WriteString(line)
		size += n
	}
	return b.String()
}

// FormatAdvice renders a follow-up study advice message within
// lim.MaxMessageLength. advice is raw model output and gets escaped.
func FormatAdvice(heading, advice string, lim model.Limits) string {
	var b strings.Builder
	b.WriteString("<b>" + heading + "</b>\n\n")
	for _, line := range strings.Split(strings.TrimSpace(advice), "\n") {
		b.WriteString(Escape(Truncate(strings.TrimSpace(line), maxAdviceLine)) + "\n")
	}
	return strings.TrimSuffix(clampLines(b.String(), lim.MaxMessageLength), "\n")
}
