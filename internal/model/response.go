package model

import "time"

// ScoreCode classifies a single recorded item response.
type ScoreCode string

const (
	ScoreCorrect     ScoreCode = "correct"
	ScoreSelfCorrect ScoreCode = "self_correct"
	ScoreIncorrect   ScoreCode = "incorrect"
	ScoreNoResponse  ScoreCode = "no_response"
)

// String returns the string representation of the score code.
func (c ScoreCode) String() string {
	return string(c)
}

// IsValid checks whether the score code is a known value.
func (c ScoreCode) IsValid() bool {
	switch c {
	case ScoreCorrect, ScoreSelfCorrect, ScoreIncorrect, ScoreNoResponse:
		return true
	}
	return false
}

// Counted reports whether the code counts toward the correct tally. Self
// corrections are credited as correct.
func (c ScoreCode) Counted() bool {
	return c == ScoreCorrect || c == ScoreSelfCorrect
}

// ResponseRecord is one appended item response. Records are append-only:
// the core contract has no update or delete path, and the session id is
// stamped by the sync engine rather than accepted from callers.
type ResponseRecord struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	UnitID     string    `json:"unit_id"`
	ItemIndex  int       `json:"item_index"`
	Score      ScoreCode `json:"score"`
	RecordedAt time.Time `json:"recorded_at"`
}
