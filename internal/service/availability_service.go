package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/jamroom/internal/metrics"
	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/repository"
	"go.uber.org/zap"
)

// voteTimeLayouts принимаемые форматы ISO 8601; время без зоны считается UTC
var voteTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseVoteTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range voteTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", raw)
}

type AvailabilityService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewAvailabilityService(store repository.Store, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		store:  store,
		logger: logger,
	}
}

// SubmitVotes заменяет все голоса актора в комнате набором times.
// Некорректные значения пропускаются по одному. Слоты без голосов
// удаляются в той же транзакции.
func (s *AvailabilityService) SubmitVotes(ctx context.Context, actor *model.User, roomID int64, times []string) ([]*model.AvailabilitySlot, error) {
	if _, err := findRoom(ctx, s.store, roomID); err != nil {
		return nil, err
	}

	parsed := make([]time.Time, 0, len(times))
	seen := make(map[time.Time]struct{}, len(times))
	skipped := 0
	for _, raw := range times {
		t, err := parseVoteTime(raw)
		if err != nil {
			skipped++
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		parsed = append(parsed, t)
	}

	var pruned int64
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Availability().RemoveVoter(ctx, roomID, actor.ID); err != nil {
			return fmt.Errorf("remove votes: %w", err)
		}

		for _, t := range parsed {
			slotID, err := tx.Availability().GetOrCreateSlot(ctx, roomID, t)
			if err != nil {
				return fmt.Errorf("get or create slot: %w", err)
			}
			if err := tx.Availability().AddVoter(ctx, slotID, actor.ID); err != nil {
				return fmt.Errorf("add vote: %w", err)
			}
		}

		var err error
		pruned, err = tx.Availability().PruneEmpty(ctx, roomID)
		if err != nil {
			return fmt.Errorf("prune slots: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.AvailabilityVotesTotal.Inc()
	s.logger.Info("Availability submitted",
		zap.Int64("room_id", roomID),
		zap.Int64("user_id", actor.ID),
		zap.Int("votes", len(parsed)),
		zap.Int("skipped", skipped),
		zap.Int64("pruned", pruned),
	)

	return listSlots(ctx, s.store, roomID, actor.ID)
}

// GetVotes слоты комнаты по возрастанию времени с отметкой голоса viewer
func (s *AvailabilityService) GetVotes(ctx context.Context, viewer *model.User, roomID int64) ([]*model.AvailabilitySlot, error) {
	if _, err := findRoom(ctx, s.store, roomID); err != nil {
		return nil, err
	}
	return listSlots(ctx, s.store, roomID, viewer.ID)
}
