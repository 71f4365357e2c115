package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pavelanni/quizreport/internal/model"
)

// RenderAnswer turns an answer into display text. The result is raw and
// still has to be escaped before it goes into the report.
func RenderAnswer(a model.Answer, l Labels) string {
	var s string
	switch a.Kind() {
	case model.AnswerText:
		s = a.Text()
	case model.AnswerList:
		s = strings.Join(a.Items(), ", ")
	case model.AnswerMap:
		if len(a.Fields()) > 0 {
			s = canonicalJSON(a.Fields())
		}
	}
	if s == "" {
		return l.NoAnswer
	}
	return s
}

// canonicalJSON serializes with sorted keys and without HTML escaping.
func canonicalJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
