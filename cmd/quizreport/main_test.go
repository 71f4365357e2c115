package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appI18n "github.com/pavelanni/quizreport/internal/i18n"
	"github.com/pavelanni/quizreport/internal/model"
	"github.com/pavelanni/quizreport/internal/store"
)

const record = `{
	"studentName": "Minh",
	"unitTitle": "Unit 1",
	"correctAnswers": 0,
	"totalQuestions": 1,
	"percentage": 0,
	"answerHistory": [
		{"questionText": "He ___ a doctor.", "isCorrect": false, "points": -5, "userAnswer": "are", "correctAnswer": "is"}
	]
}`

func TestFormatRecord(t *testing.T) {
	require.NoError(t, appI18n.Init("vi"))

	text, err := formatRecord(context.Background(), strings.NewReader(record), "vi", model.DefaultLimits())
	require.NoError(t, err)
	assert.Contains(t, text, "<b>Câu 1:</b> He ___ a doctor.")
	assert.Contains(t, text, "(-5 điểm)")
	assert.Contains(t, text, "<code>is</code>")

	text, err = formatRecord(context.Background(), strings.NewReader(record), "en", model.DefaultLimits())
	require.NoError(t, err)
	assert.Contains(t, text, "<b>Question 1:</b>")
}

func TestFormatRecordRejectsInvalid(t *testing.T) {
	require.NoError(t, appI18n.Init("vi"))

	_, err := formatRecord(context.Background(), strings.NewReader(`{"stars": 9}`), "vi", model.DefaultLimits())
	assert.ErrorIs(t, err, model.ErrInvalidRecord)

	_, err = formatRecord(context.Background(), strings.NewReader(`not json`), "vi", model.DefaultLimits())
	assert.Error(t, err)
}

func TestFormatCommand(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(record))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"format", "--lang", "en", "--max-message-length", "600", "--reserve-margin", "100"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Minh")
	assert.LessOrEqual(t, len([]rune(out.String())), 601)
}

func TestFormatCommandBadLimits(t *testing.T) {
	cmd := rootCmd()
	cmd.SetIn(strings.NewReader(record))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"format", "--max-message-length", "100", "--reserve-margin", "100"})

	err := cmd.Execute()
	assert.ErrorIs(t, err, model.ErrInvalidLimits)
}

func TestFormatCommandUnknownLanguage(t *testing.T) {
	cmd := rootCmd()
	cmd.SetIn(strings.NewReader(record))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"format", "--lang", "fr"})

	err := cmd.Execute()
	assert.ErrorIs(t, err, appI18n.ErrUnsupportedLanguage)
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "results.db")

	s, err := store.New(dbPath)
	require.NoError(t, err)
	_, err = s.InsertResult(model.ResultRecord{StudentName: "Minh"}, "report")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	outPath := filepath.Join(dir, "export.json")
	cmd := rootCmd()
	cmd.SetArgs([]string{"export", "--db", dbPath, "-o", outPath})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var export model.ResultsExport
	require.NoError(t, json.Unmarshal(data, &export))
	assert.Equal(t, 1, export.Count)
	require.Len(t, export.Results, 1)
	assert.Equal(t, "Minh", export.Results[0].Record.StudentName)
}
