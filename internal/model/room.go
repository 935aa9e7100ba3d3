package model

import "time"

// Room is one rehearsal-scheduling unit with a fixed manager and a set of
// instrument sessions.
type Room struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Song         string     `json:"song"`
	Artist       string     `json:"artist"`
	Description  string     `json:"description"`
	IsPrivate    bool       `json:"is_private"`
	PasswordHash *string    `json:"-"`
	ManagerID    int64      `json:"manager_id"`
	ClanID       *int64     `json:"clan_id"`
	Confirmed    bool       `json:"confirmed"`
	Ended        bool       `json:"ended"`
	CreatedAt    time.Time  `json:"created_at"`
	ConfirmedAt  *time.Time `json:"confirmed_at"`
	EndedAt      *time.Time `json:"ended_at"`

	// Заполняется при чтении (не хранится в rooms)
	ManagerNickname string     `json:"manager_nickname"`
	Sessions        []*Session `json:"sessions,omitempty"`
}

// IsManager reports whether userID manages the room.
func (r *Room) IsManager(userID int64) bool {
	return r.ManagerID == userID
}

// ParticipantCount returns the number of occupied sessions.
func (r *Room) ParticipantCount() int {
	n := 0
	for _, s := range r.Sessions {
		if s.IsOccupied() {
			n++
		}
	}
	return n
}

// ParticipantIDs returns distinct participant ids in session order.
func (r *Room) ParticipantIDs() []int64 {
	seen := make(map[int64]struct{}, len(r.Sessions))
	var ids []int64
	for _, s := range r.Sessions {
		if s.ParticipantID == nil {
			continue
		}
		if _, ok := seen[*s.ParticipantID]; ok {
			continue
		}
		seen[*s.ParticipantID] = struct{}{}
		ids = append(ids, *s.ParticipantID)
	}
	return ids
}
