package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/repository"
)

func findRoom(ctx context.Context, store repository.Store, roomID int64) (*model.Room, error) {
	room, err := store.Rooms().GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func lockRoom(ctx context.Context, tx repository.Store, roomID int64) (*model.Room, error) {
	room, err := tx.Rooms().LockByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("lock room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func findSession(ctx context.Context, store repository.Store, sessionID int64) (*model.Session, error) {
	session, err := store.Sessions().GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// attachSessions загружает сессии и резервы для списка комнат двумя запросами
func attachSessions(ctx context.Context, store repository.Store, rooms []*model.Room) error {
	if len(rooms) == 0 {
		return nil
	}

	roomIDs := make([]int64, 0, len(rooms))
	for _, r := range rooms {
		roomIDs = append(roomIDs, r.ID)
	}

	byRoom, err := store.Sessions().GetByRoomIDs(ctx, roomIDs)
	if err != nil {
		return fmt.Errorf("get sessions: %w", err)
	}

	var sessionIDs []int64
	for _, sessions := range byRoom {
		for _, s := range sessions {
			sessionIDs = append(sessionIDs, s.ID)
		}
	}

	reservations, err := store.Reservations().ListBySessionIDs(ctx, sessionIDs)
	if err != nil {
		return fmt.Errorf("get reservations: %w", err)
	}

	for _, r := range rooms {
		r.Sessions = byRoom[r.ID]
		if r.Sessions == nil {
			r.Sessions = []*model.Session{}
		}
		for _, s := range r.Sessions {
			s.Reservations = reservations[s.ID]
		}
	}

	return nil
}

// listSlots слоты опроса по возрастанию времени с отметкой голоса viewerID
func listSlots(ctx context.Context, store repository.Store, roomID, viewerID int64) ([]*model.AvailabilitySlot, error) {
	slots, err := store.Availability().ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}

	if slots == nil {
		slots = []*model.AvailabilitySlot{}
	}
	for _, slot := range slots {
		slot.VotedByViewer = slot.HasVoter(viewerID)
	}
	return slots, nil
}
