package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/repository/base"
)

type ReservationRepository struct {
	*base.Repository
}

func NewReservationRepository(db base.DBTX) *ReservationRepository {
	return &ReservationRepository{Repository: base.NewRepository(db)}
}

// Create создаёт резерв; повторный резерв той же сессии возвращает ErrDuplicate,
// резерв удалённой сессии ErrNotFound
func (r *ReservationRepository) Create(ctx context.Context, res *model.SessionReservation) error {
	query := `
		INSERT INTO session_reservations (session_id, user_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, res.SessionID, res.UserID).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		if base.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("create reservation: %w", err)
	}

	return nil
}

// Delete удаляет резерв пользователя; false если его не было
func (r *ReservationRepository) Delete(ctx context.Context, sessionID, userID int64) (bool, error) {
	query := `DELETE FROM session_reservations WHERE session_id = $1 AND user_id = $2`

	affected, err := r.ExecAffected(ctx, query, sessionID, userID)
	if err != nil {
		return false, fmt.Errorf("delete reservation: %w", err)
	}

	return affected > 0, nil
}

// ListBySessionIDs получает резервы по сессиям в порядке создания
func (r *ReservationRepository) ListBySessionIDs(ctx context.Context, sessionIDs []int64) (map[int64][]*model.SessionReservation, error) {
	query := `
		SELECT sr.id, sr.session_id, sr.user_id, sr.created_at, u.nickname
		FROM session_reservations sr
		JOIN users u ON u.id = sr.user_id
		WHERE sr.session_id = ANY($1)
		ORDER BY sr.created_at, sr.id
	`

	rows, err := r.Query(ctx, query, sessionIDs)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]*model.SessionReservation)
	for rows.Next() {
		var res model.SessionReservation
		err := rows.Scan(
			&res.ID,
			&res.SessionID,
			&res.UserID,
			&res.CreatedAt,
			&res.UserNickname,
		)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		result[res.SessionID] = append(result[res.SessionID], &res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	return result, nil
}
