package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/repository/base"
)

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(db base.DBTX) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(db)}
}

// Create создаёт нового пользователя
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (nickname, telegram_chat_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, user.Nickname, user.TelegramChatID).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT id, nickname, telegram_chat_id, created_at
		FROM users
		WHERE id = $1
	`

	var user model.User
	err := r.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Nickname,
		&user.TelegramChatID,
		&user.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return &user, nil
}

// GetByNickname получает пользователя по никнейму
func (r *UserRepository) GetByNickname(ctx context.Context, nickname string) (*model.User, error) {
	query := `
		SELECT id, nickname, telegram_chat_id, created_at
		FROM users
		WHERE nickname = $1
	`

	var user model.User
	err := r.QueryRow(ctx, query, nickname).Scan(
		&user.ID,
		&user.Nickname,
		&user.TelegramChatID,
		&user.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("get user by nickname: %w", err)
	}

	return &user, nil
}

// GetClan получает клан по ID
func (r *UserRepository) GetClan(ctx context.Context, clanID int64) (*model.Clan, error) {
	query := `
		SELECT id, name, owner_id
		FROM clans
		WHERE id = $1
	`

	var clan model.Clan
	err := r.QueryRow(ctx, query, clanID).Scan(&clan.ID, &clan.Name, &clan.OwnerID)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get clan: %w", err)
	}

	return &clan, nil
}

// IsClanMember проверяет членство пользователя в клане (владелец тоже член)
func (r *UserRepository) IsClanMember(ctx context.Context, clanID, userID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM clans WHERE id = $1 AND owner_id = $2
		) OR EXISTS(
			SELECT 1 FROM clan_members
			WHERE clan_id = $1 AND user_id = $2
		)
	`

	var exists bool
	if err := r.QueryRow(ctx, query, clanID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check clan member: %w", err)
	}

	return exists, nil
}

// IsClanAdmin проверяет, является ли пользователь владельцем или админом клана
func (r *UserRepository) IsClanAdmin(ctx context.Context, clanID, userID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM clans WHERE id = $1 AND owner_id = $2
		) OR EXISTS(
			SELECT 1 FROM clan_members
			WHERE clan_id = $1 AND user_id = $2 AND is_admin
		)
	`

	var ok bool
	if err := r.QueryRow(ctx, query, clanID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("check clan admin: %w", err)
	}

	return ok, nil
}
