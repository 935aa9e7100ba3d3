package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/repository"
	"go.uber.org/zap"
)

// Notifier принимает уведомления без ожидания результата доставки
type Notifier interface {
	Notify(ctx context.Context, n model.Notification)
}

// NopNotifier отбрасывает уведомления
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, model.Notification) {}

func roomLink(roomID int64) string {
	return fmt.Sprintf("/rooms/%d", roomID)
}

// notifyVacancies сообщает держателям резервов, что сессии освободились.
// Ошибки чтения только логируются: уведомления не влияют на результат операции.
func notifyVacancies(
	ctx context.Context,
	store repository.Store,
	notifier Notifier,
	logger *zap.Logger,
	roomID int64,
	sessionIDs []int64,
	exceptUserID int64,
) {
	if len(sessionIDs) == 0 {
		return
	}

	byRoom, err := store.Sessions().GetByRoomIDs(ctx, []int64{roomID})
	if err != nil {
		logger.Warn("Failed to load sessions for vacancy notification", zap.Int64("room_id", roomID), zap.Error(err))
		return
	}
	names := make(map[int64]string)
	for _, s := range byRoom[roomID] {
		names[s.ID] = s.Name
	}

	reservations, err := store.Reservations().ListBySessionIDs(ctx, sessionIDs)
	if err != nil {
		logger.Warn("Failed to load reservations for vacancy notification", zap.Int64("room_id", roomID), zap.Error(err))
		return
	}

	for _, sessionID := range sessionIDs {
		for _, res := range reservations[sessionID] {
			if res.UserID == exceptUserID {
				continue
			}
			notifier.Notify(ctx, model.Notification{
				UserID:  res.UserID,
				Kind:    model.NotificationSessionVacant,
				Message: fmt.Sprintf("Session %q you reserved is now free", names[sessionID]),
				Link:    roomLink(roomID),
			})
		}
	}
}
