package model

import "time"

// DefaultEvaluationScore is used when a rating omits the score.
const DefaultEvaluationScore = 50

// Evaluation is one peer rating written after a room has ended.
type Evaluation struct {
	ID          int64     `json:"id"`
	RoomID      int64     `json:"room_id"`
	EvaluatorID int64     `json:"evaluator_id"`
	TargetID    int64     `json:"target_id"`
	Score       int       `json:"score"`
	Comment     string    `json:"comment"`
	IsMoodMaker bool      `json:"is_mood_maker"`
	CreatedAt   time.Time `json:"created_at"`
}
