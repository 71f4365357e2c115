package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AnswerKind tags which case of Answer is populated.
type AnswerKind int

const (
	AnswerNone AnswerKind = iota
	AnswerText
	AnswerList
	AnswerMap
)

func (k AnswerKind) String() string {
	switch k {
	case AnswerText:
		return "text"
	case AnswerList:
		return "list"
	case AnswerMap:
		return "map"
	default:
		return "none"
	}
}

// Answer is a user or correct answer. The quiz pages send plain strings,
// arrays (multi-select, ordering) and objects (matching exercises).
// The zero value is AnswerNone.
type Answer struct {
	kind   AnswerKind
	text   string
	items  []string
	fields map[string]any
}

// NoAnswer returns the absent answer.
func NoAnswer() Answer { return Answer{} }

// TextAnswer wraps a scalar answer.
func TextAnswer(s string) Answer { return Answer{kind: AnswerText, text: s} }

// ListAnswer wraps a sequence answer.
func ListAnswer(items ...string) Answer {
	return Answer{kind: AnswerList, items: append([]string(nil), items...)}
}

// MapAnswer wraps a key-value answer.
func MapAnswer(fields map[string]any) Answer {
	return Answer{kind: AnswerMap, fields: fields}
}

func (a Answer) Kind() AnswerKind { return a.kind }

func (a Answer) Text() string { return a.text }

func (a Answer) Items() []string { return a.items }

func (a Answer) Fields() map[string]any { return a.fields }

// UnmarshalJSON decodes any JSON value into the matching case.
func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = NoAnswer()
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode text answer: %w", err)
		}
		*a = TextAnswer(s)
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decode list answer: %w", err)
		}
		items := make([]string, 0, len(raw))
		for _, r := range raw {
			items = append(items, scalarText(r))
		}
		*a = Answer{kind: AnswerList, items: items}
	case '{':
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("decode map answer: %w", err)
		}
		*a = MapAnswer(m)
	default:
		// numbers and booleans keep their literal text
		*a = TextAnswer(string(data))
	}
	return nil
}

// MarshalJSON encodes the answer back into its original JSON shape.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case AnswerText:
		return json.Marshal(a.text)
	case AnswerList:
		if a.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.items)
	case AnswerMap:
		if a.fields == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(a.fields)
	default:
		return []byte("null"), nil
	}
}

// scalarText renders one array element the way the pages join them:
// strings as-is, null as empty, anything else as its JSON literal.
func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}
