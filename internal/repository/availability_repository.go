package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/repository/base"
)

type AvailabilityRepository struct {
	*base.Repository
}

func NewAvailabilityRepository(db base.DBTX) *AvailabilityRepository {
	return &AvailabilityRepository{Repository: base.NewRepository(db)}
}

// RemoveVoter снимает все голоса пользователя в комнате
func (r *AvailabilityRepository) RemoveVoter(ctx context.Context, roomID, userID int64) error {
	query := `
		DELETE FROM availability_votes v
		USING room_availability_slots s
		WHERE v.slot_id = s.id AND s.room_id = $1 AND v.user_id = $2
	`

	if _, err := r.ExecAffected(ctx, query, roomID, userID); err != nil {
		return fmt.Errorf("remove voter: %w", err)
	}

	return nil
}

// GetOrCreateSlot возвращает ID слота (room_id, time), создавая его при необходимости
func (r *AvailabilityRepository) GetOrCreateSlot(ctx context.Context, roomID int64, at time.Time) (int64, error) {
	// DO UPDATE вместо DO NOTHING, чтобы RETURNING вернул уже существующую строку
	query := `
		INSERT INTO room_availability_slots (room_id, time)
		VALUES ($1, $2)
		ON CONFLICT (room_id, time) DO UPDATE SET time = EXCLUDED.time
		RETURNING id
	`

	var id int64
	if err := r.QueryRow(ctx, query, roomID, at.UTC()).Scan(&id); err != nil {
		return 0, fmt.Errorf("get or create slot: %w", err)
	}

	return id, nil
}

// AddVoter добавляет голос; повторный голос игнорируется
func (r *AvailabilityRepository) AddVoter(ctx context.Context, slotID, userID int64) error {
	query := `
		INSERT INTO availability_votes (slot_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	if _, err := r.ExecAffected(ctx, query, slotID, userID); err != nil {
		return fmt.Errorf("add voter: %w", err)
	}

	return nil
}

// PruneEmpty удаляет слоты комнаты без голосов
func (r *AvailabilityRepository) PruneEmpty(ctx context.Context, roomID int64) (int64, error) {
	query := `
		DELETE FROM room_availability_slots s
		WHERE s.room_id = $1
		  AND NOT EXISTS (SELECT 1 FROM availability_votes v WHERE v.slot_id = s.id)
	`

	affected, err := r.ExecAffected(ctx, query, roomID)
	if err != nil {
		return 0, fmt.Errorf("prune empty slots: %w", err)
	}

	return affected, nil
}

// ListByRoom получает слоты комнаты по возрастанию времени вместе с голосующими
func (r *AvailabilityRepository) ListByRoom(ctx context.Context, roomID int64) ([]*model.AvailabilitySlot, error) {
	query := `
		SELECT s.id, s.room_id, s.time, u.id, u.nickname
		FROM room_availability_slots s
		LEFT JOIN availability_votes v ON v.slot_id = s.id
		LEFT JOIN users u ON u.id = v.user_id
		WHERE s.room_id = $1
		ORDER BY s.time, s.id, u.id
	`

	rows, err := r.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	defer rows.Close()

	var slots []*model.AvailabilitySlot
	var current *model.AvailabilitySlot
	for rows.Next() {
		var (
			slot     model.AvailabilitySlot
			voterID  *int64
			nickname *string
		)
		if err := rows.Scan(&slot.ID, &slot.RoomID, &slot.Time, &voterID, &nickname); err != nil {
			return nil, fmt.Errorf("scan availability: %w", err)
		}

		if current == nil || current.ID != slot.ID {
			slot.Voters = []model.Voter{}
			current = &slot
			slots = append(slots, current)
		}
		if voterID != nil && nickname != nil {
			current.Voters = append(current.Voters, model.Voter{ID: *voterID, Nickname: *nickname})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}

	return slots, nil
}
