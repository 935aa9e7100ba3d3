package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// MessageClient часть *bot.Bot, нужная для отправки сообщений
type MessageClient interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// UserLookup находит чат пользователя
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// TelegramSender отправляет уведомления в личный чат пользователя.
// Вызовы Bot API идут через circuit breaker, чтобы недоступный Telegram
// не держал воркер диспетчера.
type TelegramSender struct {
	client  MessageClient
	users   UserLookup
	baseURL string
	cb      *gobreaker.CircuitBreaker[*models.Message]
	logger  *zap.Logger
}

// NewTelegramBot создаёт клиента Bot API по токену
func NewTelegramBot(token string) (*bot.Bot, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return b, nil
}

// NewTelegramSender создаёт отправителя. С непустым baseURL ссылка
// уведомления уходит кнопкой, иначе дописывается в текст.
func NewTelegramSender(client MessageClient, users UserLookup, baseURL string, logger *zap.Logger) *TelegramSender {
	cb := gobreaker.NewCircuitBreaker[*models.Message](gobreaker.Settings{
		Name:        "telegram-api",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &TelegramSender{
		client:  client,
		users:   users,
		baseURL: strings.TrimRight(baseURL, "/"),
		cb:      cb,
		logger:  logger,
	}
}

func (s *TelegramSender) Name() string { return "telegram" }

func (s *TelegramSender) Send(ctx context.Context, n model.Notification) error {
	user, err := s.users.GetByID(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil || user.TelegramChatID == nil {
		return ErrNoChannel
	}

	params := &bot.SendMessageParams{
		ChatID: *user.TelegramChatID,
		Text:   n.Message,
	}
	if link := s.absoluteLink(n.Link); link != "" {
		params.ReplyMarkup = NewKeyboard().Row(URLButton("Открыть комнату", link)).Build()
	} else if n.Link != "" {
		params.Text += "\n" + n.Link
	}

	_, err = s.cb.Execute(func() (*models.Message, error) {
		return s.client.SendMessage(ctx, params)
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	return nil
}

// absoluteLink превращает ссылку в абсолютный URL для кнопки; "" если нельзя
func (s *TelegramSender) absoluteLink(link string) string {
	switch {
	case link == "":
		return ""
	case strings.HasPrefix(link, "https://"), strings.HasPrefix(link, "http://"):
		return link
	case s.baseURL != "" && strings.HasPrefix(link, "/"):
		return s.baseURL + link
	default:
		return ""
	}
}

// State возвращает состояние circuit breaker
func (s *TelegramSender) State() gobreaker.State {
	return s.cb.State()
}
