package service

import "errors"

// Kind классифицирует ошибку сервиса для транспортного слоя
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindPermission
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error ошибка сервиса с видом и стабильным кодом
type Error struct {
	Kind Kind
	Code string
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

// validationError ошибка входных данных с произвольным текстом
func validationError(msg string) *Error {
	return newError(KindValidation, "invalid_input", msg)
}

var (
	ErrNoSessions       = newError(KindValidation, "no_sessions", "room needs at least one session")
	ErrEmptySessionName = newError(KindValidation, "empty_session_name", "session name must not be empty")
	ErrPasswordRequired = newError(KindValidation, "password_required", "private room requires a password")
	ErrNicknameRequired = newError(KindValidation, "nickname_required", "nickname is required")
	ErrInvalidScore     = newError(KindValidation, "invalid_score", "score must be between 0 and 100")
	ErrEmptyMessage     = newError(KindValidation, "empty_message", "message must not be empty")

	ErrNotManager    = newError(KindPermission, "not_manager", "only the room manager can do this")
	ErrNotClanMember = newError(KindPermission, "not_clan_member", "only clan members can do this")
	ErrWrongPassword = newError(KindPermission, "wrong_password", "wrong room password")

	ErrRoomNotFound        = newError(KindNotFound, "room_not_found", "room not found")
	ErrSessionNotFound     = newError(KindNotFound, "session_not_found", "session not found")
	ErrClanNotFound        = newError(KindNotFound, "clan_not_found", "clan not found")
	ErrReservationNotFound = newError(KindNotFound, "reservation_not_found", "reservation not found")

	ErrAlreadyConfirmed     = newError(KindConflict, "already_confirmed", "room is already confirmed")
	ErrIncompleteRoster     = newError(KindConflict, "incomplete_roster", "every session must be filled before confirming")
	ErrNotConfirmed         = newError(KindConflict, "not_confirmed", "room is not confirmed")
	ErrAlreadyEnded         = newError(KindConflict, "already_ended", "room has already ended")
	ErrSessionOccupied      = newError(KindConflict, "session_occupied", "session is already taken by another user")
	ErrManagerCannotLeave   = newError(KindConflict, "manager_cannot_leave", "the manager cannot leave the room")
	ErrCannotKickManager    = newError(KindConflict, "cannot_kick_manager", "the manager cannot be kicked")
	ErrNoSuchMember         = newError(KindConflict, "no_such_member", "user is not a member of this room")
	ErrDuplicateReservation = newError(KindConflict, "duplicate_reservation", "session is already reserved by this user")
	ErrRoomNotEnded         = newError(KindConflict, "room_not_ended", "only ended rooms can be evaluated")
	ErrDuplicateSubmission  = newError(KindConflict, "duplicate_submission", "evaluations for this room were already submitted")
)

// KindOf возвращает вид ошибки; ошибки вне сервиса считаются внутренними
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
