package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/repository/base"
)

type ChatRepository struct {
	*base.Repository
}

func NewChatRepository(db base.DBTX) *ChatRepository {
	return &ChatRepository{Repository: base.NewRepository(db)}
}

// Create сохраняет сообщение группового чата
func (r *ChatRepository) Create(ctx context.Context, msg *model.ChatMessage) error {
	query := `
		INSERT INTO group_chats (room_id, sender_id, message)
		VALUES ($1, $2, $3)
		RETURNING id, timestamp
	`

	err := r.QueryRow(ctx, query, msg.RoomID, msg.SenderID, msg.Message).Scan(&msg.ID, &msg.Timestamp)
	if err != nil {
		if base.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("create chat message: %w", err)
	}

	return nil
}

// ListByRoom получает историю чата в хронологическом порядке
func (r *ChatRepository) ListByRoom(ctx context.Context, roomID int64) ([]*model.ChatMessage, error) {
	query := `
		SELECT c.id, c.room_id, c.sender_id, c.message, c.timestamp, u.nickname
		FROM group_chats c
		JOIN users u ON u.id = c.sender_id
		WHERE c.room_id = $1
		ORDER BY c.timestamp, c.id
	`

	rows, err := r.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var messages []*model.ChatMessage
	for rows.Next() {
		var msg model.ChatMessage
		err := rows.Scan(
			&msg.ID,
			&msg.RoomID,
			&msg.SenderID,
			&msg.Message,
			&msg.Timestamp,
			&msg.SenderNickname,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}

	return messages, nil
}
