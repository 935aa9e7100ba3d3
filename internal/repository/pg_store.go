package repository

import (
	"context"

	"github.com/Freeeeeet/jamroom/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore реализация Store поверх PostgreSQL
type PgStore struct {
	pool *pgxpool.Pool // nil внутри транзакции
	db   base.DBTX
}

func NewStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool, db: pool}
}

func (s *PgStore) Users() UserStore               { return NewUserRepository(s.db) }
func (s *PgStore) Rooms() RoomStore               { return NewRoomRepository(s.db) }
func (s *PgStore) Sessions() SessionStore         { return NewSessionRepository(s.db) }
func (s *PgStore) Reservations() ReservationStore { return NewReservationRepository(s.db) }
func (s *PgStore) Availability() AvailabilityStore {
	return NewAvailabilityRepository(s.db)
}
func (s *PgStore) Evaluations() EvaluationStore { return NewEvaluationRepository(s.db) }
func (s *PgStore) Chats() ChatStore             { return NewChatRepository(s.db) }

// InTx открывает транзакцию; вложенные вызовы переиспользуют текущую
func (s *PgStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	if s.pool == nil {
		return fn(s)
	}

	// Ошибку fn возвращаем как есть, чтобы сервис мог сопоставить её через errors.Is
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&PgStore{db: tx})
	})
}

// Ping проверяет доступность базы
func (s *PgStore) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}
