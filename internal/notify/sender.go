// Package notify доставляет уведомления пользователям через внешние каналы.
package notify

import (
	"context"
	"errors"

	"github.com/Freeeeeet/jamroom/internal/model"
	"go.uber.org/zap"
)

// ErrNoChannel возвращается, если у пользователя нет канала доставки
var ErrNoChannel = errors.New("user has no delivery channel")

// Sender доставляет одно уведомление
type Sender interface {
	Name() string
	Send(ctx context.Context, n model.Notification) error
}

// LogSender пишет уведомления в лог; используется всегда, в том числе без Telegram
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) Send(_ context.Context, n model.Notification) error {
	s.logger.Info("Notification",
		zap.String("notification_id", n.ID),
		zap.Int64("user_id", n.UserID),
		zap.String("kind", string(n.Kind)),
		zap.String("message", n.Message),
		zap.String("link", n.Link),
	)
	return nil
}
