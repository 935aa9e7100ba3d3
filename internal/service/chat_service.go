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

type ChatService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewChatService(store repository.Store, logger *zap.Logger) *ChatService {
	return &ChatService{
		store:  store,
		logger: logger,
	}
}

// History сообщения комнаты в хронологическом порядке
func (s *ChatService) History(ctx context.Context, roomID int64) ([]*model.ChatMessage, error) {
	if _, err := findRoom(ctx, s.store, roomID); err != nil {
		return nil, err
	}

	messages, err := s.store.Chats().ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list chat: %w", err)
	}
	if messages == nil {
		messages = []*model.ChatMessage{}
	}
	return messages, nil
}

// Post сохраняет сообщение актора
func (s *ChatService) Post(ctx context.Context, actor *model.User, roomID int64, text string) (*model.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	if _, err := findRoom(ctx, s.store, roomID); err != nil {
		return nil, err
	}

	msg := &model.ChatMessage{RoomID: roomID, SenderID: actor.ID, Message: text}
	err := s.store.Chats().Create(ctx, msg)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("create chat message: %w", err)
	}
	msg.SenderNickname = actor.Nickname

	s.logger.Debug("Chat message posted",
		zap.Int64("room_id", roomID),
		zap.Int64("sender_id", actor.ID),
	)

	return msg, nil
}
