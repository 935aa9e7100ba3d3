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

// JoinResult итог переключения участия в сессии
type JoinResult string

const (
	JoinResultJoined    JoinResult = "joined"
	JoinResultCancelled JoinResult = "cancelled"
)

type SessionService struct {
	store    repository.Store
	notifier Notifier
	logger   *zap.Logger
}

func NewSessionService(store repository.Store, notifier Notifier, logger *zap.Logger) *SessionService {
	return &SessionService{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Join занимает свободную сессию или освобождает свою.
// Строка сессии блокируется на время проверки и записи, поэтому из двух
// одновременных Join на свободную сессию успешен ровно один.
// Занимать несколько сессий одной комнаты не запрещено.
func (s *SessionService) Join(ctx context.Context, actor *model.User, roomID, sessionID int64) (JoinResult, error) {
	var result JoinResult
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		session, err := tx.Sessions().LockForUpdate(ctx, roomID, sessionID)
		if err != nil {
			return fmt.Errorf("lock session: %w", err)
		}
		if session == nil {
			return ErrSessionNotFound
		}

		switch {
		case session.IsHeldBy(actor.ID):
			if err := tx.Sessions().SetParticipant(ctx, sessionID, nil); err != nil {
				return fmt.Errorf("clear session: %w", err)
			}
			result = JoinResultCancelled
		case session.IsOccupied():
			return ErrSessionOccupied
		default:
			if err := tx.Sessions().SetParticipant(ctx, sessionID, &actor.ID); err != nil {
				return fmt.Errorf("occupy session: %w", err)
			}
			result = JoinResultJoined
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	metrics.SessionChangesTotal.WithLabelValues(string(result)).Inc()
	s.logger.Info("Session participation toggled",
		zap.Int64("room_id", roomID),
		zap.Int64("session_id", sessionID),
		zap.Int64("user_id", actor.ID),
		zap.String("result", string(result)),
	)

	if result == JoinResultCancelled {
		notifyVacancies(ctx, s.store, s.notifier, s.logger, roomID, []int64{sessionID}, actor.ID)
	}

	return result, nil
}

// Leave освобождает все сессии актора в комнате; менеджер выйти не может
func (s *SessionService) Leave(ctx context.Context, actor *model.User, roomID int64) error {
	room, err := findRoom(ctx, s.store, roomID)
	if err != nil {
		return err
	}

	if room.IsManager(actor.ID) {
		return ErrManagerCannotLeave
	}

	cleared, err := s.store.Sessions().ClearParticipant(ctx, roomID, actor.ID)
	if err != nil {
		return fmt.Errorf("leave room: %w", err)
	}

	if len(cleared) == 0 {
		return nil
	}

	metrics.SessionChangesTotal.WithLabelValues("left").Add(float64(len(cleared)))
	s.logger.Info("User left room",
		zap.Int64("room_id", roomID),
		zap.Int64("user_id", actor.ID),
		zap.Int("sessions", len(cleared)),
	)

	notifyVacancies(ctx, s.store, s.notifier, s.logger, roomID, cleared, actor.ID)
	return nil
}

// Kick освобождает сессии участника по никнейму; только менеджер
func (s *SessionService) Kick(ctx context.Context, actor *model.User, roomID int64, targetNickname string) error {
	room, err := findRoom(ctx, s.store, roomID)
	if err != nil {
		return err
	}

	if !room.IsManager(actor.ID) {
		return ErrNotManager
	}

	targetNickname = strings.TrimSpace(targetNickname)
	if targetNickname == "" {
		return ErrNicknameRequired
	}
	if targetNickname == room.ManagerNickname {
		return ErrCannotKickManager
	}

	target, err := s.store.Users().GetByNickname(ctx, targetNickname)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if target == nil {
		return ErrNoSuchMember
	}
	if room.IsManager(target.ID) {
		return ErrCannotKickManager
	}

	cleared, err := s.store.Sessions().ClearParticipant(ctx, roomID, target.ID)
	if err != nil {
		return fmt.Errorf("kick member: %w", err)
	}
	if len(cleared) == 0 {
		return ErrNoSuchMember
	}

	metrics.SessionChangesTotal.WithLabelValues("kicked").Add(float64(len(cleared)))
	s.logger.Info("Member kicked",
		zap.Int64("room_id", roomID),
		zap.Int64("manager_id", actor.ID),
		zap.Int64("target_id", target.ID),
		zap.Int("sessions", len(cleared)),
	)

	s.notifier.Notify(ctx, model.Notification{
		UserID:  target.ID,
		Kind:    model.NotificationKicked,
		Message: fmt.Sprintf("You were removed from rehearsal %q", room.Title),
		Link:    roomLink(roomID),
	})
	notifyVacancies(ctx, s.store, s.notifier, s.logger, roomID, cleared, target.ID)

	return nil
}
