package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/jamroom/internal/metrics"
	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/repository"
	"go.uber.org/zap"
)

type ReservationService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewReservationService(store repository.Store, logger *zap.Logger) *ReservationService {
	return &ReservationService{
		store:  store,
		logger: logger,
	}
}

// Reserve ставит резерв на сессию независимо от того, занята ли она
func (s *ReservationService) Reserve(ctx context.Context, actor *model.User, sessionID int64) (*model.SessionReservation, error) {
	if _, err := findSession(ctx, s.store, sessionID); err != nil {
		return nil, err
	}

	res := &model.SessionReservation{SessionID: sessionID, UserID: actor.ID}
	err := s.store.Reservations().Create(ctx, res)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return nil, ErrDuplicateReservation
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrSessionNotFound
	case err != nil:
		return nil, fmt.Errorf("create reservation: %w", err)
	}
	res.UserNickname = actor.Nickname

	metrics.ReservationsTotal.WithLabelValues("reserved").Inc()
	s.logger.Info("Session reserved",
		zap.Int64("reservation_id", res.ID),
		zap.Int64("session_id", sessionID),
		zap.Int64("user_id", actor.ID),
	)

	return res, nil
}

// Cancel снимает резерв актора
func (s *ReservationService) Cancel(ctx context.Context, actor *model.User, sessionID int64) error {
	if _, err := findSession(ctx, s.store, sessionID); err != nil {
		return err
	}

	deleted, err := s.store.Reservations().Delete(ctx, sessionID, actor.ID)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if !deleted {
		return ErrReservationNotFound
	}

	metrics.ReservationsTotal.WithLabelValues("cancelled").Inc()
	s.logger.Info("Reservation cancelled",
		zap.Int64("session_id", sessionID),
		zap.Int64("user_id", actor.ID),
	)

	return nil
}
