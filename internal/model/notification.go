package model

// NotificationKind mirrors the alert types of the alerting collaborator.
type NotificationKind string

const (
	NotificationRoomConfirmed     NotificationKind = "ROOM_CONFIRMED"
	NotificationEvaluationRequest NotificationKind = "EVALUATION_REQUEST"
	NotificationKicked            NotificationKind = "ROOM_KICKED"
	NotificationSessionVacant     NotificationKind = "SESSION_VACANT"
)

// Notification is a fire-and-forget message for one user.
type Notification struct {
	ID      string           `json:"id"`
	UserID  int64            `json:"user_id"`
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
	Link    string           `json:"link"`
}
