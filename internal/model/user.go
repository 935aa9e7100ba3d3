package model

import "time"

// User is the identity supplied by the identity provider. Rooms and sessions
// reference users by ID; nicknames are resolved at read time.
type User struct {
	ID             int64     `json:"id"`
	Nickname       string    `json:"nickname"`
	TelegramChatID *int64    `json:"-"` // nil = no telegram delivery
	CreatedAt      time.Time `json:"created_at"`
}

// Clan is a minimal view of a clan for room ownership checks.
type Clan struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	OwnerID int64  `json:"owner_id"`
}
