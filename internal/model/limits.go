package model

import (
	"errors"
	"fmt"
)

// ErrInvalidLimits is wrapped by every Limits validation failure.
var ErrInvalidLimits = errors.New("invalid report limits")

// MinMessageLength is the smallest accepted MaxMessageLength. Below it the
// footer and the omission line of a Vietnamese or English report may not fit.
const MinMessageLength = 256

// Limits bounds the size of a formatted report.
type Limits struct {
	MaxMessageLength      int `json:"max_message_length" mapstructure:"max-message-length"`
	ReserveMargin         int `json:"reserve_margin" mapstructure:"reserve-margin"`
	MaxQuestionsShown     int `json:"max_questions_shown" mapstructure:"max-questions-shown"`
	MaxQuestionTextLength int `json:"max_question_text_length" mapstructure:"max-question-text-length"`
}

// DefaultLimits fit a single Telegram message with room to spare.
func DefaultLimits() Limits {
	return Limits{
		MaxMessageLength:      4000,
		ReserveMargin:         500,
		MaxQuestionsShown:     10,
		MaxQuestionTextLength: 100,
	}
}

// Validate rejects limits the formatter cannot honour sensibly.
func (l Limits) Validate() error {
	switch {
	case l.MaxMessageLength < MinMessageLength:
		return fmt.Errorf("%w: max message length %d is below %d", ErrInvalidLimits, l.MaxMessageLength, MinMessageLength)
	case l.ReserveMargin < 0:
		return fmt.Errorf("%w: reserve margin must not be negative", ErrInvalidLimits)
	case l.ReserveMargin >= l.MaxMessageLength:
		return fmt.Errorf("%w: reserve margin %d must be below max message length %d",
			ErrInvalidLimits, l.ReserveMargin, l.MaxMessageLength)
	case l.MaxQuestionsShown <= 0:
		return fmt.Errorf("%w: max questions shown must be positive", ErrInvalidLimits)
	case l.MaxQuestionTextLength < 4:
		return fmt.Errorf("%w: max question text length must be at least 4", ErrInvalidLimits)
	}
	return nil
}
