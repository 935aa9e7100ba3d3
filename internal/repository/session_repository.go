package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

type SessionRepository struct {
	*base.Repository
}

func NewSessionRepository(db base.DBTX) *SessionRepository {
	return &SessionRepository{Repository: base.NewRepository(db)}
}

// CreateBatch создаёт сессии комнаты в порядке names
func (r *SessionRepository) CreateBatch(ctx context.Context, roomID int64, names []string) ([]*model.Session, error) {
	query := `
		INSERT INTO sessions (room_id, session_name)
		VALUES ($1, $2)
		RETURNING id
	`

	sessions := make([]*model.Session, 0, len(names))
	for _, name := range names {
		session := &model.Session{RoomID: roomID, Name: name}
		if err := r.QueryRow(ctx, query, roomID, name).Scan(&session.ID); err != nil {
			return nil, fmt.Errorf("create session %q: %w", name, err)
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

// GetByID получает сессию по ID
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	query := `
		SELECT s.id, s.room_id, s.session_name, s.participant_id, COALESCE(u.nickname, '')
		FROM sessions s
		LEFT JOIN users u ON u.id = s.participant_id
		WHERE s.id = $1
	`

	var session model.Session
	err := r.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.RoomID,
		&session.Name,
		&session.ParticipantID,
		&session.ParticipantNickname,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by id: %w", err)
	}

	return &session, nil
}

// GetByRoom получает сессии комнаты в порядке создания
func (r *SessionRepository) GetByRoom(ctx context.Context, roomID int64) ([]*model.Session, error) {
	byRoom, err := r.GetByRoomIDs(ctx, []int64{roomID})
	if err != nil {
		return nil, err
	}
	return byRoom[roomID], nil
}

// GetByRoomIDs получает сессии нескольких комнат одним запросом
func (r *SessionRepository) GetByRoomIDs(ctx context.Context, roomIDs []int64) (map[int64][]*model.Session, error) {
	query := `
		SELECT s.id, s.room_id, s.session_name, s.participant_id, COALESCE(u.nickname, '')
		FROM sessions s
		LEFT JOIN users u ON u.id = s.participant_id
		WHERE s.room_id = ANY($1)
		ORDER BY s.room_id, s.id
	`

	rows, err := r.Query(ctx, query, roomIDs)
	if err != nil {
		return nil, fmt.Errorf("get sessions by rooms: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]*model.Session, len(roomIDs))
	for rows.Next() {
		var session model.Session
		err := rows.Scan(
			&session.ID,
			&session.RoomID,
			&session.Name,
			&session.ParticipantID,
			&session.ParticipantNickname,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		result[session.RoomID] = append(result[session.RoomID], &session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get sessions by rooms: %w", err)
	}

	return result, nil
}

// LockForUpdate читает сессию комнаты с блокировкой строки
func (r *SessionRepository) LockForUpdate(ctx context.Context, roomID, sessionID int64) (*model.Session, error) {
	query := `
		SELECT id, room_id, session_name, participant_id
		FROM sessions
		WHERE id = $1 AND room_id = $2
		FOR UPDATE
	`

	var session model.Session
	err := r.QueryRow(ctx, query, sessionID, roomID).Scan(
		&session.ID,
		&session.RoomID,
		&session.Name,
		&session.ParticipantID,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock session: %w", err)
	}

	return &session, nil
}

// SetParticipant занимает (userID != nil) или освобождает сессию
func (r *SessionRepository) SetParticipant(ctx context.Context, sessionID int64, userID *int64) error {
	query := `
		UPDATE sessions
		SET participant_id = $1
		WHERE id = $2
	`

	affected, err := r.ExecAffected(ctx, query, userID, sessionID)
	if err != nil {
		return fmt.Errorf("set session participant: %w", err)
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// ClearParticipant освобождает все сессии пользователя в комнате
func (r *SessionRepository) ClearParticipant(ctx context.Context, roomID, userID int64) ([]int64, error) {
	query := `
		UPDATE sessions
		SET participant_id = NULL
		WHERE room_id = $1 AND participant_id = $2
		RETURNING id
	`

	rows, err := r.Query(ctx, query, roomID, userID)
	if err != nil {
		return nil, fmt.Errorf("clear participant: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("clear participant: %w", err)
	}

	return ids, nil
}

// CountVacant считает свободные сессии комнаты
func (r *SessionRepository) CountVacant(ctx context.Context, roomID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM sessions
		WHERE room_id = $1 AND participant_id IS NULL
	`

	var count int
	if err := r.QueryRow(ctx, query, roomID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count vacant sessions: %w", err)
	}

	return count, nil
}
