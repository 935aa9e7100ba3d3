package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/repository"
	"go.uber.org/zap"
)

type UserService struct {
	users  repository.UserStore
	logger *zap.Logger
}

func NewUserService(users repository.UserStore, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

// RegisterUser возвращает пользователя с таким никнеймом или создаёт нового
func (s *UserService) RegisterUser(ctx context.Context, nickname string, telegramChatID *int64) (*model.User, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, ErrNicknameRequired
	}

	// Проверяем существует ли пользователь
	existing, err := s.users.GetByNickname(ctx, nickname)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	user := &model.User{Nickname: nickname, TelegramChatID: telegramChatID}
	err = s.users.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		// параллельная регистрация того же ника
		return s.users.GetByNickname(ctx, nickname)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("New user registered",
		zap.Int64("user_id", user.ID),
		zap.String("nickname", nickname),
		zap.Bool("telegram", telegramChatID != nil),
	)

	return user, nil
}

// GetByID получает пользователя по ID
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}
