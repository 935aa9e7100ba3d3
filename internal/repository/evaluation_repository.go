package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/repository/base"
)

type EvaluationRepository struct {
	*base.Repository
}

func NewEvaluationRepository(db base.DBTX) *EvaluationRepository {
	return &EvaluationRepository{Repository: base.NewRepository(db)}
}

// HasEvaluated проверяет, оставлял ли оценщик оценки в комнате
func (r *EvaluationRepository) HasEvaluated(ctx context.Context, roomID, evaluatorID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM evaluations
			WHERE room_id = $1 AND evaluator_id = $2
		)
	`

	var exists bool
	if err := r.QueryRow(ctx, query, roomID, evaluatorID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check evaluations: %w", err)
	}

	return exists, nil
}

// CreateBatch сохраняет оценки пакета
func (r *EvaluationRepository) CreateBatch(ctx context.Context, evaluations []*model.Evaluation) error {
	query := `
		INSERT INTO evaluations (room_id, evaluator_id, target_id, score, comment, is_mood_maker)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	for _, e := range evaluations {
		err := r.QueryRow(ctx, query,
			e.RoomID,
			e.EvaluatorID,
			e.TargetID,
			e.Score,
			e.Comment,
			e.IsMoodMaker,
		).Scan(&e.ID, &e.CreatedAt)

		if err != nil {
			return fmt.Errorf("create evaluation for target %d: %w", e.TargetID, err)
		}
	}

	return nil
}

// ListByRoom получает оценки комнаты
func (r *EvaluationRepository) ListByRoom(ctx context.Context, roomID int64) ([]*model.Evaluation, error) {
	query := `
		SELECT id, room_id, evaluator_id, target_id, score, comment, is_mood_maker, created_at
		FROM evaluations
		WHERE room_id = $1
		ORDER BY id
	`

	rows, err := r.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	var evaluations []*model.Evaluation
	for rows.Next() {
		var e model.Evaluation
		err := rows.Scan(
			&e.ID,
			&e.RoomID,
			&e.EvaluatorID,
			&e.TargetID,
			&e.Score,
			&e.Comment,
			&e.IsMoodMaker,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		evaluations = append(evaluations, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}

	return evaluations, nil
}
