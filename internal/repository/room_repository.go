package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

// roomColumns колонки комнаты с никнеймом менеджера
const roomColumns = `
	r.id, r.title, r.song, r.artist, r.description, r.is_private, r.password_hash,
	r.manager_id, r.clan_id, r.confirmed, r.ended, r.created_at, r.confirmed_at, r.ended_at,
	u.nickname
`

type RoomRepository struct {
	*base.Repository
}

func NewRoomRepository(db base.DBTX) *RoomRepository {
	return &RoomRepository{Repository: base.NewRepository(db)}
}

func scanRoom(row pgx.Row) (*model.Room, error) {
	var room model.Room
	err := row.Scan(
		&room.ID,
		&room.Title,
		&room.Song,
		&room.Artist,
		&room.Description,
		&room.IsPrivate,
		&room.PasswordHash,
		&room.ManagerID,
		&room.ClanID,
		&room.Confirmed,
		&room.Ended,
		&room.CreatedAt,
		&room.ConfirmedAt,
		&room.EndedAt,
		&room.ManagerNickname,
	)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// Create создаёт новую комнату (confirmed = ended = false)
func (r *RoomRepository) Create(ctx context.Context, room *model.Room) error {
	query := `
		INSERT INTO rooms (title, song, artist, description, is_private, password_hash, manager_id, clan_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		room.Title,
		room.Song,
		room.Artist,
		room.Description,
		room.IsPrivate,
		room.PasswordHash,
		room.ManagerID,
		room.ClanID,
	).Scan(&room.ID, &room.CreatedAt)

	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}

	room.Confirmed = false
	room.Ended = false
	return nil
}

// GetByID получает комнату по ID
func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*model.Room, error) {
	query := `SELECT ` + roomColumns + `
		FROM rooms r
		JOIN users u ON u.id = r.manager_id
		WHERE r.id = $1
	`

	room, err := scanRoom(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get room by id: %w", err)
	}

	return room, nil
}

// LockByID получает комнату с блокировкой FOR UPDATE
func (r *RoomRepository) LockByID(ctx context.Context, id int64) (*model.Room, error) {
	query := `SELECT ` + roomColumns + `
		FROM rooms r
		JOIN users u ON u.id = r.manager_id
		WHERE r.id = $1
		FOR UPDATE OF r
	`

	room, err := scanRoom(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock room: %w", err)
	}

	return room, nil
}

// Update обновляет редактируемые поля комнаты
func (r *RoomRepository) Update(ctx context.Context, room *model.Room) error {
	query := `
		UPDATE rooms
		SET title = $1, song = $2, artist = $3, description = $4, is_private = $5, password_hash = $6
		WHERE id = $7
	`

	affected, err := r.ExecAffected(
		ctx, query,
		room.Title,
		room.Song,
		room.Artist,
		room.Description,
		room.IsPrivate,
		room.PasswordHash,
		room.ID,
	)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkConfirmed переводит комнату в confirmed; false если уже подтверждена
func (r *RoomRepository) MarkConfirmed(ctx context.Context, id int64, at time.Time) (bool, error) {
	query := `
		UPDATE rooms
		SET confirmed = TRUE, confirmed_at = $1
		WHERE id = $2 AND NOT confirmed
	`

	affected, err := r.ExecAffected(ctx, query, at, id)
	if err != nil {
		return false, fmt.Errorf("confirm room: %w", err)
	}

	return affected > 0, nil
}

// MarkEnded переводит подтверждённую комнату в ended
func (r *RoomRepository) MarkEnded(ctx context.Context, id int64, at time.Time) (bool, error) {
	query := `
		UPDATE rooms
		SET ended = TRUE, ended_at = $1
		WHERE id = $2 AND confirmed AND NOT ended
	`

	affected, err := r.ExecAffected(ctx, query, at, id)
	if err != nil {
		return false, fmt.Errorf("end room: %w", err)
	}

	return affected > 0, nil
}

// Delete удаляет комнату (сессии, резервы, слоты и оценки удаляются каскадом)
func (r *RoomRepository) Delete(ctx context.Context, id int64) (bool, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete room: %w", err)
	}

	return affected > 0, nil
}

// ListOpen получает открытые комнаты общего лобби (без клана)
func (r *RoomRepository) ListOpen(ctx context.Context) ([]*model.Room, error) {
	query := `SELECT ` + roomColumns + `
		FROM rooms r
		JOIN users u ON u.id = r.manager_id
		WHERE NOT r.confirmed AND NOT r.ended AND r.clan_id IS NULL
		ORDER BY r.created_at DESC
	`

	return r.list(ctx, "list open rooms", query)
}

// ListByMember получает незавершённые комнаты, где пользователь менеджер или участник
func (r *RoomRepository) ListByMember(ctx context.Context, userID int64) ([]*model.Room, error) {
	query := `SELECT ` + roomColumns + `
		FROM rooms r
		JOIN users u ON u.id = r.manager_id
		WHERE NOT r.ended
		  AND (r.manager_id = $1 OR EXISTS(
			SELECT 1 FROM sessions s WHERE s.room_id = r.id AND s.participant_id = $1
		  ))
		ORDER BY r.created_at DESC
	`

	return r.list(ctx, "list rooms by member", query, userID)
}

// ListByManager получает незавершённые комнаты менеджера
func (r *RoomRepository) ListByManager(ctx context.Context, managerID int64) ([]*model.Room, error) {
	query := `SELECT ` + roomColumns + `
		FROM rooms r
		JOIN users u ON u.id = r.manager_id
		WHERE r.manager_id = $1 AND NOT r.ended
		ORDER BY r.created_at DESC
	`

	return r.list(ctx, "list rooms by manager", query, managerID)
}

// ListByClan получает незавершённые комнаты клана
func (r *RoomRepository) ListByClan(ctx context.Context, clanID int64, oldestFirst bool) ([]*model.Room, error) {
	order := "DESC"
	if oldestFirst {
		order = "ASC"
	}

	query := `SELECT ` + roomColumns + `
		FROM rooms r
		JOIN users u ON u.id = r.manager_id
		WHERE r.clan_id = $1 AND NOT r.ended
		ORDER BY r.created_at ` + order

	return r.list(ctx, "list rooms by clan", query, clanID)
}

func (r *RoomRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Room, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var rooms []*model.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, room)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rooms, nil
}
