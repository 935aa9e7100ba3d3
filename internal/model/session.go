package model

import "time"

// Session is one instrument slot within a room.
type Session struct {
	ID            int64  `json:"id"`
	RoomID        int64  `json:"room_id"`
	Name          string `json:"session_name"`
	ParticipantID *int64 `json:"participant_id"` // nil = свободна

	ParticipantNickname string                `json:"participant_nickname,omitempty"`
	Reservations        []*SessionReservation `json:"reservations,omitempty"`
}

// IsOccupied checks if the session has a participant
func (s *Session) IsOccupied() bool {
	return s.ParticipantID != nil
}

// IsHeldBy checks if userID occupies the session
func (s *Session) IsHeldBy(userID int64) bool {
	return s.ParticipantID != nil && *s.ParticipantID == userID
}

// SessionReservation is a standing request for a session, independent of
// the session's current occupancy.
type SessionReservation struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	UserNickname string `json:"user_nickname,omitempty"`
}
