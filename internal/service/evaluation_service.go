package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/jamroom/internal/metrics"
	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/repository"
	"go.uber.org/zap"
)

// Rating оценка одного участника; Score nil = значение по умолчанию
type Rating struct {
	TargetNickname string
	Score          *int
	Comment        string
	IsMoodMaker    bool
}

type EvaluationService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewEvaluationService(store repository.Store, logger *zap.Logger) *EvaluationService {
	return &EvaluationService{
		store:  store,
		logger: logger,
	}
}

// Submit сохраняет пакет оценок. Повторная отправка отклоняется, если у
// оценщика уже есть оценки в комнате. Неизвестные ники и оценка самого себя
// пропускаются.
func (s *EvaluationService) Submit(ctx context.Context, evaluator *model.User, roomID int64, ratings []Rating) ([]*model.Evaluation, error) {
	var created []*model.Evaluation
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		room, err := lockRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if !room.Ended {
			return ErrRoomNotEnded
		}

		evaluated, err := tx.Evaluations().HasEvaluated(ctx, roomID, evaluator.ID)
		if err != nil {
			return fmt.Errorf("check evaluations: %w", err)
		}
		if evaluated {
			return ErrDuplicateSubmission
		}

		for _, r := range ratings {
			if r.Score != nil && (*r.Score < 0 || *r.Score > 100) {
				return ErrInvalidScore
			}
		}

		for _, r := range ratings {
			target, err := tx.Users().GetByNickname(ctx, strings.TrimSpace(r.TargetNickname))
			if err != nil {
				return fmt.Errorf("get target: %w", err)
			}
			if target == nil || target.ID == evaluator.ID {
				continue
			}

			score := model.DefaultEvaluationScore
			if r.Score != nil {
				score = *r.Score
			}

			created = append(created, &model.Evaluation{
				RoomID:      roomID,
				EvaluatorID: evaluator.ID,
				TargetID:    target.ID,
				Score:       score,
				Comment:     r.Comment,
				IsMoodMaker: r.IsMoodMaker,
			})
		}

		if len(created) == 0 {
			return nil
		}
		if err := tx.Evaluations().CreateBatch(ctx, created); err != nil {
			return fmt.Errorf("create evaluations: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.EvaluationsTotal.Add(float64(len(created)))
	s.logger.Info("Evaluations submitted",
		zap.Int64("room_id", roomID),
		zap.Int64("evaluator_id", evaluator.ID),
		zap.Int("received", len(ratings)),
		zap.Int("stored", len(created)),
	)

	if created == nil {
		created = []*model.Evaluation{}
	}
	return created, nil
}

// ListByRoom оценки комнаты
func (s *EvaluationService) ListByRoom(ctx context.Context, roomID int64) ([]*model.Evaluation, error) {
	if _, err := findRoom(ctx, s.store, roomID); err != nil {
		return nil, err
	}

	evaluations, err := s.store.Evaluations().ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	if evaluations == nil {
		evaluations = []*model.Evaluation{}
	}
	return evaluations, nil
}
