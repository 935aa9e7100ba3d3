package model

import "time"

// AvailabilitySlot is a candidate rehearsal time with its voters.
type AvailabilitySlot struct {
	ID     int64     `json:"id"`
	RoomID int64     `json:"room_id"`
	Time   time.Time `json:"time"`
	Voters []Voter   `json:"voters"`

	VotedByViewer bool `json:"voted_by_current_user"`
}

// Voter is a user who voted for a slot.
type Voter struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
}

// HasVoter checks if userID voted for the slot
func (s *AvailabilitySlot) HasVoter(userID int64) bool {
	for _, v := range s.Voters {
		if v.ID == userID {
			return true
		}
	}
	return false
}
