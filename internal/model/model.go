package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRecord is wrapped by every ResultRecord validation failure.
var ErrInvalidRecord = errors.New("invalid result record")

// ResultRecord is the outcome of one completed quiz session, as posted by the quiz pages.
type ResultRecord struct {
	StudentName      string         `json:"studentName"`
	TeacherName      string         `json:"teacherName"`
	UnitTitle        string         `json:"unitTitle"`
	GrammarTopics    []string       `json:"grammarTopics"`
	Score            int            `json:"score"`
	CorrectAnswers   int            `json:"correctAnswers"`
	TotalQuestions   int            `json:"totalQuestions"`
	Percentage       float64        `json:"percentage"`
	Stars            int            `json:"stars"`
	TimeSpentSeconds int            `json:"timeSpent"`
	HintsUsed        int            `json:"hintsUsed"`
	TimeBonusEarned  int            `json:"timeBonusEarned"`
	ComboBonusEarned int            `json:"comboBonusEarned"`
	AnswerHistory    []AnswerRecord `json:"answerHistory"`
	CompletedAt      string         `json:"completedAt"`
}

// AnswerRecord is a single answered question. Its position in
// ResultRecord.AnswerHistory is its question number.
type AnswerRecord struct {
	QuestionText  string `json:"questionText"`
	IsCorrect     bool   `json:"isCorrect"`
	Points        int    `json:"points"`
	UserAnswer    Answer `json:"userAnswer"`
	CorrectAnswer Answer `json:"correctAnswer"`
}

// IncorrectCount returns how many answers in the history are wrong.
func (r ResultRecord) IncorrectCount() int {
	n := 0
	for _, a := range r.AnswerHistory {
		if !a.IsCorrect {
			n++
		}
	}
	return n
}

// Validate checks the caller contract. The formatter itself never corrects input,
// so this must run before a record is formatted.
func (r ResultRecord) Validate() error {
	switch {
	case r.CorrectAnswers < 0 || r.TotalQuestions < 0:
		return fmt.Errorf("%w: negative question counts (%d/%d)", ErrInvalidRecord, r.CorrectAnswers, r.TotalQuestions)
	case r.CorrectAnswers > r.TotalQuestions:
		return fmt.Errorf("%w: correctAnswers %d exceeds totalQuestions %d", ErrInvalidRecord, r.CorrectAnswers, r.TotalQuestions)
	case r.Percentage < 0 || r.Percentage > 100:
		return fmt.Errorf("%w: percentage %v out of range", ErrInvalidRecord, r.Percentage)
	case r.Stars < 0 || r.Stars > 3:
		return fmt.Errorf("%w: stars %d out of range", ErrInvalidRecord, r.Stars)
	case r.TimeSpentSeconds < 0:
		return fmt.Errorf("%w: negative timeSpent", ErrInvalidRecord)
	case r.HintsUsed < 0:
		return fmt.Errorf("%w: negative hintsUsed", ErrInvalidRecord)
	case r.TimeBonusEarned < 0 || r.ComboBonusEarned < 0:
		return fmt.Errorf("%w: negative bonus", ErrInvalidRecord)
	}
	return nil
}

// StudentInfo is the identity the quiz pages remember between sessions.
type StudentInfo struct {
	Name    string    `json:"name"`
	Photo   string    `json:"photo,omitempty"` // data URL
	SavedAt time.Time `json:"savedAt"`
}

// DeliveryStatus tracks whether a stored report reached the chat.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

// StoredResult is a result kept in the result log.
type StoredResult struct {
	ID         string         `json:"id"`
	ReceivedAt time.Time      `json:"received_at"`
	Record     ResultRecord   `json:"record"`
	Report     string         `json:"report"`
	Status     DeliveryStatus `json:"status"`
}

// ResultSummary is the list view of a stored result.
type ResultSummary struct {
	ID          string         `json:"id"`
	StudentName string         `json:"student_name"`
	UnitTitle   string         `json:"unit_title"`
	Score       int            `json:"score"`
	Percentage  float64        `json:"percentage"`
	Status      DeliveryStatus `json:"status"`
	ReceivedAt  time.Time      `json:"received_at"`
}

// ServiceConfig holds runtime parameters set via CLI flags.
type ServiceConfig struct {
	Lang   string // default report language (vi, en)
	Limits Limits
	APIKey string // empty disables API authentication
}
