package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/jamroom/internal/model"
)

var (
	// ErrDuplicate возвращается при нарушении уникальности (резерв, пользователь, отправка оценок)
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound возвращается командами изменения, если строки нет
	ErrNotFound = errors.New("record not found")
)

// UserStore доступ к провайдеру идентичности и членству в кланах
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByNickname(ctx context.Context, nickname string) (*model.User, error)
	GetClan(ctx context.Context, clanID int64) (*model.Clan, error)
	IsClanMember(ctx context.Context, clanID, userID int64) (bool, error)
	IsClanAdmin(ctx context.Context, clanID, userID int64) (bool, error)
}

// RoomStore хранение комнат
type RoomStore interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id int64) (*model.Room, error)
	// LockByID читает комнату с эксклюзивной блокировкой строки (в транзакции)
	LockByID(ctx context.Context, id int64) (*model.Room, error)
	Update(ctx context.Context, room *model.Room) error
	MarkConfirmed(ctx context.Context, id int64, at time.Time) (bool, error)
	MarkEnded(ctx context.Context, id int64, at time.Time) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ListOpen(ctx context.Context) ([]*model.Room, error)
	ListByMember(ctx context.Context, userID int64) ([]*model.Room, error)
	ListByManager(ctx context.Context, managerID int64) ([]*model.Room, error)
	ListByClan(ctx context.Context, clanID int64, oldestFirst bool) ([]*model.Room, error)
}

// SessionStore инструментальные слоты комнаты
type SessionStore interface {
	CreateBatch(ctx context.Context, roomID int64, names []string) ([]*model.Session, error)
	GetByID(ctx context.Context, id int64) (*model.Session, error)
	GetByRoom(ctx context.Context, roomID int64) ([]*model.Session, error)
	GetByRoomIDs(ctx context.Context, roomIDs []int64) (map[int64][]*model.Session, error)
	// LockForUpdate блокирует строку сессии до конца транзакции
	LockForUpdate(ctx context.Context, roomID, sessionID int64) (*model.Session, error)
	SetParticipant(ctx context.Context, sessionID int64, userID *int64) error
	// ClearParticipant освобождает все сессии пользователя в комнате и возвращает их ID
	ClearParticipant(ctx context.Context, roomID, userID int64) ([]int64, error)
	CountVacant(ctx context.Context, roomID int64) (int, error)
}

// ReservationStore резервы на сессии
type ReservationStore interface {
	Create(ctx context.Context, r *model.SessionReservation) error
	Delete(ctx context.Context, sessionID, userID int64) (bool, error)
	ListBySessionIDs(ctx context.Context, sessionIDs []int64) (map[int64][]*model.SessionReservation, error)
}

// AvailabilityStore опрос по времени репетиции
type AvailabilityStore interface {
	RemoveVoter(ctx context.Context, roomID, userID int64) error
	GetOrCreateSlot(ctx context.Context, roomID int64, at time.Time) (int64, error)
	AddVoter(ctx context.Context, slotID, userID int64) error
	PruneEmpty(ctx context.Context, roomID int64) (int64, error)
	ListByRoom(ctx context.Context, roomID int64) ([]*model.AvailabilitySlot, error)
}

// EvaluationStore журнал оценок
type EvaluationStore interface {
	// HasEvaluated сообщает, есть ли у оценщика хотя бы одна оценка в комнате
	HasEvaluated(ctx context.Context, roomID, evaluatorID int64) (bool, error)
	CreateBatch(ctx context.Context, evaluations []*model.Evaluation) error
	ListByRoom(ctx context.Context, roomID int64) ([]*model.Evaluation, error)
}

// ChatStore история группового чата комнаты
type ChatStore interface {
	Create(ctx context.Context, msg *model.ChatMessage) error
	ListByRoom(ctx context.Context, roomID int64) ([]*model.ChatMessage, error)
}

// Store объединяет все хранилища и умеет выполнять их в одной транзакции
type Store interface {
	Users() UserStore
	Rooms() RoomStore
	Sessions() SessionStore
	Reservations() ReservationStore
	Availability() AvailabilityStore
	Evaluations() EvaluationStore
	Chats() ChatStore

	// InTx выполняет fn в транзакции; ошибка из fn откатывает изменения
	InTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
