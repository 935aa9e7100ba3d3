package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/jamroom/internal/metrics"
	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// CreateRoomInput данные для создания комнаты
type CreateRoomInput struct {
	Title       string
	Song        string
	Artist      string
	Description string
	IsPrivate   bool
	Password    string
	Sessions    []string
}

// UpdateRoomInput частичное обновление комнаты; nil = поле не меняется
type UpdateRoomInput struct {
	Title       *string
	Song        *string
	Artist      *string
	Description *string
	IsPrivate   *bool
	Password    *string
}

// RoomDetail комната со слотами опроса для конкретного пользователя
type RoomDetail struct {
	*model.Room
	AvailabilitySlots []*model.AvailabilitySlot
	UserIsClanAdmin   bool
}

type RoomService struct {
	store    repository.Store
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewRoomService(store repository.Store, notifier Notifier, logger *zap.Logger) *RoomService {
	return &RoomService{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create создаёт комнату в общем лобби
func (s *RoomService) Create(ctx context.Context, actor *model.User, in CreateRoomInput) (*model.Room, error) {
	return s.create(ctx, actor, in, nil)
}

// CreateInClan создаёт комнату клана; требуется членство в клане
func (s *RoomService) CreateInClan(ctx context.Context, actor *model.User, clanID int64, in CreateRoomInput) (*model.Room, error) {
	if err := s.checkClanMember(ctx, actor, clanID); err != nil {
		return nil, err
	}
	return s.create(ctx, actor, in, &clanID)
}

func (s *RoomService) create(ctx context.Context, actor *model.User, in CreateRoomInput, clanID *int64) (*model.Room, error) {
	if len(in.Sessions) == 0 {
		return nil, ErrNoSessions
	}

	names := make([]string, 0, len(in.Sessions))
	for _, name := range in.Sessions {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, ErrEmptySessionName
		}
		names = append(names, name)
	}

	room := &model.Room{
		Title:       in.Title,
		Song:        in.Song,
		Artist:      in.Artist,
		Description: in.Description,
		IsPrivate:   in.IsPrivate,
		ManagerID:   actor.ID,
		ClanID:      clanID,
	}

	if in.IsPrivate {
		hash, err := hashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		room.PasswordHash = hash
	}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Rooms().Create(ctx, room); err != nil {
			return fmt.Errorf("create room: %w", err)
		}

		sessions, err := tx.Sessions().CreateBatch(ctx, room.ID, names)
		if err != nil {
			return fmt.Errorf("create sessions: %w", err)
		}

		// Менеджер автоматически занимает первую сессию
		first := sessions[0]
		if err := tx.Sessions().SetParticipant(ctx, first.ID, &actor.ID); err != nil {
			return fmt.Errorf("occupy first session: %w", err)
		}
		managerID := actor.ID
		first.ParticipantID = &managerID
		first.ParticipantNickname = actor.Nickname

		room.Sessions = sessions
		return nil
	})
	if err != nil {
		return nil, err
	}

	room.ManagerNickname = actor.Nickname
	metrics.RoomTransitionsTotal.WithLabelValues("created").Inc()

	s.logger.Info("Room created",
		zap.Int64("room_id", room.ID),
		zap.Int64("manager_id", actor.ID),
		zap.Int("sessions", len(names)),
		zap.Bool("clan_room", clanID != nil),
	)

	return room, nil
}

// Get получает комнату со всеми сессиями, резервами и опросом
func (s *RoomService) Get(ctx context.Context, actor *model.User, roomID int64) (*RoomDetail, error) {
	room, err := findRoom(ctx, s.store, roomID)
	if err != nil {
		return nil, err
	}

	if err := attachSessions(ctx, s.store, []*model.Room{room}); err != nil {
		return nil, err
	}

	slots, err := listSlots(ctx, s.store, roomID, actor.ID)
	if err != nil {
		return nil, err
	}

	detail := &RoomDetail{Room: room, AvailabilitySlots: slots}

	if room.ClanID != nil {
		detail.UserIsClanAdmin, err = s.store.Users().IsClanAdmin(ctx, *room.ClanID, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("check clan admin: %w", err)
		}
	}

	return detail, nil
}

// ListOpen открытые комнаты общего лобби, новые первыми
func (s *RoomService) ListOpen(ctx context.Context) ([]*model.Room, error) {
	rooms, err := s.store.Rooms().ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open rooms: %w", err)
	}
	return rooms, attachSessions(ctx, s.store, rooms)
}

// ListMine незавершённые комнаты, где актор менеджер или участник
func (s *RoomService) ListMine(ctx context.Context, actor *model.User) ([]*model.Room, error) {
	rooms, err := s.store.Rooms().ListByMember(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list my rooms: %w", err)
	}
	return rooms, attachSessions(ctx, s.store, rooms)
}

// ListByManagerNickname незавершённые комнаты пользователя; неизвестный ник даёт пустой список
func (s *RoomService) ListByManagerNickname(ctx context.Context, nickname string) ([]*model.Room, error) {
	user, err := s.store.Users().GetByNickname(ctx, nickname)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return []*model.Room{}, nil
	}

	rooms, err := s.store.Rooms().ListByManager(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list rooms by manager: %w", err)
	}
	return rooms, attachSessions(ctx, s.store, rooms)
}

// ListClanRooms незавершённые комнаты клана; доступно только членам клана
func (s *RoomService) ListClanRooms(ctx context.Context, actor *model.User, clanID int64, oldestFirst bool) ([]*model.Room, error) {
	if err := s.checkClanMember(ctx, actor, clanID); err != nil {
		return nil, err
	}

	rooms, err := s.store.Rooms().ListByClan(ctx, clanID, oldestFirst)
	if err != nil {
		return nil, fmt.Errorf("list clan rooms: %w", err)
	}
	return rooms, attachSessions(ctx, s.store, rooms)
}

// Update меняет описание комнаты; только менеджер
func (s *RoomService) Update(ctx context.Context, actor *model.User, roomID int64, in UpdateRoomInput) (*model.Room, error) {
	var room *model.Room
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		room, err = lockRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if !room.IsManager(actor.ID) {
			return ErrNotManager
		}

		if in.Title != nil {
			room.Title = *in.Title
		}
		if in.Song != nil {
			room.Song = *in.Song
		}
		if in.Artist != nil {
			room.Artist = *in.Artist
		}
		if in.Description != nil {
			room.Description = *in.Description
		}
		if in.IsPrivate != nil {
			room.IsPrivate = *in.IsPrivate
		}

		switch {
		case in.Password != nil && *in.Password != "":
			hash, err := hashPassword(*in.Password)
			if err != nil {
				return err
			}
			room.PasswordHash = hash
		case !room.IsPrivate:
			room.PasswordHash = nil
		}

		if room.IsPrivate && room.PasswordHash == nil {
			return ErrPasswordRequired
		}

		if err := tx.Rooms().Update(ctx, room); err != nil {
			return fmt.Errorf("update room: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Room updated", zap.Int64("room_id", roomID), zap.Int64("manager_id", actor.ID))

	if err := attachSessions(ctx, s.store, []*model.Room{room}); err != nil {
		return nil, err
	}
	return room, nil
}

// Delete удаляет комнату со всеми зависимыми записями; только менеджер
func (s *RoomService) Delete(ctx context.Context, actor *model.User, roomID int64) error {
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		room, err := lockRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if !room.IsManager(actor.ID) {
			return ErrNotManager
		}

		deleted, err := tx.Rooms().Delete(ctx, roomID)
		if err != nil {
			return fmt.Errorf("delete room: %w", err)
		}
		if !deleted {
			return ErrRoomNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.RoomTransitionsTotal.WithLabelValues("deleted").Inc()
	s.logger.Info("Room deleted", zap.Int64("room_id", roomID), zap.Int64("manager_id", actor.ID))

	return nil
}

// Confirm фиксирует состав комнаты; все сессии должны быть заняты
func (s *RoomService) Confirm(ctx context.Context, actor *model.User, roomID int64) (*model.Room, error) {
	var room *model.Room
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		room, err = lockRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}

		if !room.IsManager(actor.ID) {
			return ErrNotManager
		}
		if room.Confirmed {
			return ErrAlreadyConfirmed
		}

		vacant, err := tx.Sessions().CountVacant(ctx, roomID)
		if err != nil {
			return fmt.Errorf("count vacant sessions: %w", err)
		}
		if vacant > 0 {
			return ErrIncompleteRoster
		}

		room.Sessions, err = tx.Sessions().GetByRoom(ctx, roomID)
		if err != nil {
			return fmt.Errorf("get sessions: %w", err)
		}

		now := s.now()
		changed, err := tx.Rooms().MarkConfirmed(ctx, roomID, now)
		if err != nil {
			return fmt.Errorf("confirm room: %w", err)
		}
		if !changed {
			return ErrAlreadyConfirmed
		}

		room.Confirmed = true
		room.ConfirmedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RoomTransitionsTotal.WithLabelValues("confirmed").Inc()
	s.logger.Info("Room confirmed",
		zap.Int64("room_id", roomID),
		zap.Int("participants", room.ParticipantCount()),
	)

	s.notifyParticipants(ctx, room, model.NotificationRoomConfirmed,
		fmt.Sprintf("Rehearsal %q is confirmed", room.Title), roomLink(roomID))

	return room, nil
}

// End закрывает подтверждённую комнату и открывает оценку участников
func (s *RoomService) End(ctx context.Context, actor *model.User, roomID int64) (*model.Room, error) {
	var room *model.Room
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		room, err = lockRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}

		if !room.IsManager(actor.ID) {
			return ErrNotManager
		}
		if !room.Confirmed {
			return ErrNotConfirmed
		}
		if room.Ended {
			return ErrAlreadyEnded
		}

		now := s.now()
		changed, err := tx.Rooms().MarkEnded(ctx, roomID, now)
		if err != nil {
			return fmt.Errorf("end room: %w", err)
		}
		if !changed {
			return ErrAlreadyEnded
		}

		room.Ended = true
		room.EndedAt = &now

		room.Sessions, err = tx.Sessions().GetByRoom(ctx, roomID)
		if err != nil {
			return fmt.Errorf("get sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RoomTransitionsTotal.WithLabelValues("ended").Inc()
	s.logger.Info("Room ended", zap.Int64("room_id", roomID))

	s.notifyParticipants(ctx, room, model.NotificationEvaluationRequest,
		fmt.Sprintf("Rehearsal %q has ended, please rate your bandmates", room.Title),
		roomLink(roomID)+"/evaluate")

	return room, nil
}

// VerifyPassword проверяет пароль приватной комнаты; публичные комнаты всегда проходят
func (s *RoomService) VerifyPassword(ctx context.Context, roomID int64, password string) error {
	room, err := findRoom(ctx, s.store, roomID)
	if err != nil {
		return err
	}

	if !room.IsPrivate || room.PasswordHash == nil {
		return nil
	}

	err = bcrypt.CompareHashAndPassword([]byte(*room.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrWrongPassword
	}
	if err != nil {
		return fmt.Errorf("compare password: %w", err)
	}
	return nil
}

func (s *RoomService) notifyParticipants(ctx context.Context, room *model.Room, kind model.NotificationKind, message, link string) {
	for _, userID := range room.ParticipantIDs() {
		if room.IsManager(userID) {
			continue
		}
		s.notifier.Notify(ctx, model.Notification{
			UserID:  userID,
			Kind:    kind,
			Message: message,
			Link:    link,
		})
	}
}

func (s *RoomService) checkClanMember(ctx context.Context, actor *model.User, clanID int64) error {
	clan, err := s.store.Users().GetClan(ctx, clanID)
	if err != nil {
		return fmt.Errorf("get clan: %w", err)
	}
	if clan == nil {
		return ErrClanNotFound
	}

	member, err := s.store.Users().IsClanMember(ctx, clanID, actor.ID)
	if err != nil {
		return fmt.Errorf("check clan member: %w", err)
	}
	if !member {
		return ErrNotClanMember
	}
	return nil
}

func hashPassword(password string) (*string, error) {
	if password == "" {
		return nil, ErrPasswordRequired
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, validationError("password is too long")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}
	h := string(hash)
	return &h, nil
}
