// Package storetest проверяет одинаковое поведение реализаций repository.Store.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run прогоняет общий набор проверок; open должен отдавать пустое хранилище
func Run(t *testing.T, open func(t *testing.T) repository.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s repository.Store)
	}{
		{"unique nickname", testUniqueNickname},
		{"room flags", testRoomFlags},
		{"session occupancy", testSessionOccupancy},
		{"reservations", testReservations},
		{"availability", testAvailability},
		{"evaluation submission", testEvaluationSubmission},
		{"tx rollback", testTxRollback},
		{"delete cascades", testDeleteCascades},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, open(t))
		})
	}
}

func newUser(t *testing.T, s repository.Store, nickname string) *model.User {
	t.Helper()
	u := &model.User{Nickname: nickname}
	require.NoError(t, s.Users().Create(context.Background(), u))
	require.NotZero(t, u.ID)
	return u
}

func newRoom(t *testing.T, s repository.Store, manager *model.User, sessions ...string) (*model.Room, []*model.Session) {
	t.Helper()
	ctx := context.Background()

	room := &model.Room{Title: "jam", Song: "song", Artist: "artist", ManagerID: manager.ID}
	require.NoError(t, s.Rooms().Create(ctx, room))
	require.NotZero(t, room.ID)

	created, err := s.Sessions().CreateBatch(ctx, room.ID, sessions)
	require.NoError(t, err)
	require.Len(t, created, len(sessions))
	return room, created
}

func testUniqueNickname(t *testing.T, s repository.Store) {
	ctx := context.Background()
	alice := newUser(t, s, "alice")

	err := s.Users().Create(ctx, &model.User{Nickname: "alice"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	got, err := s.Users().GetByNickname(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, alice.ID, got.ID)

	missing, err := s.Users().GetByNickname(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testRoomFlags(t *testing.T, s repository.Store) {
	ctx := context.Background()
	alice := newUser(t, s, "alice")
	room, _ := newRoom(t, s, alice, "Vocal")

	open, err := s.Rooms().ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "alice", open[0].ManagerNickname)

	now := time.Now().UTC().Truncate(time.Second)

	changed, err := s.Rooms().MarkConfirmed(ctx, room.ID, now)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.Rooms().MarkConfirmed(ctx, room.ID, now)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = s.Rooms().MarkEnded(ctx, room.ID, now)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.Rooms().MarkEnded(ctx, room.ID, now)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := s.Rooms().GetByID(ctx, room.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Confirmed)
	assert.True(t, got.Ended)
	require.NotNil(t, got.ConfirmedAt)
	require.NotNil(t, got.EndedAt)
	assert.True(t, got.ConfirmedAt.Equal(now))

	open, err = s.Rooms().ListOpen(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func testSessionOccupancy(t *testing.T, s repository.Store) {
	ctx := context.Background()
	alice := newUser(t, s, "alice")
	bob := newUser(t, s, "bob")
	room, created := newRoom(t, s, alice, "Vocal", "Guitar", "Bass")
	other, _ := newRoom(t, s, alice, "Drums")

	assert.Equal(t, "Vocal", created[0].Name)
	assert.Equal(t, "Bass", created[2].Name)

	require.NoError(t, s.Sessions().SetParticipant(ctx, created[1].ID, &bob.ID))
	require.NoError(t, s.Sessions().SetParticipant(ctx, created[2].ID, &bob.ID))

	vacant, err := s.Sessions().CountVacant(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, vacant)

	locked, err := s.Sessions().LockForUpdate(ctx, other.ID, created[1].ID)
	require.NoError(t, err)
	assert.Nil(t, locked, "session of another room must not be found")

	sessions, err := s.Sessions().GetByRoom(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, "bob", sessions[1].ParticipantNickname)

	cleared, err := s.Sessions().ClearParticipant(ctx, room.ID, bob.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{created[1].ID, created[2].ID}, cleared)

	cleared, err = s.Sessions().ClearParticipant(ctx, room.ID, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared)

	err = s.Sessions().SetParticipant(ctx, created[2].ID+1000, &bob.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testReservations(t *testing.T, s repository.Store) {
	ctx := context.Background()
	alice := newUser(t, s, "alice")
	bob := newUser(t, s, "bob")
	_, created := newRoom(t, s, alice, "Vocal")
	sessionID := created[0].ID

	res := &model.SessionReservation{SessionID: sessionID, UserID: bob.ID}
	require.NoError(t, s.Reservations().Create(ctx, res))
	assert.NotZero(t, res.ID)

	err := s.Reservations().Create(ctx, &model.SessionReservation{SessionID: sessionID, UserID: bob.ID})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	byID, err := s.Reservations().ListBySessionIDs(ctx, []int64{sessionID})
	require.NoError(t, err)
	require.Len(t, byID[sessionID], 1)
	assert.Equal(t, "bob", byID[sessionID][0].UserNickname)

	deleted, err := s.Reservations().Delete(ctx, sessionID, bob.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Reservations().Delete(ctx, sessionID, bob.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func testAvailability(t *testing.T, s repository.Store) {
	ctx := context.Background()
	alice := newUser(t, s, "alice")
	bob := newUser(t, s, "bob")
	room, _ := newRoom(t, s, alice, "Vocal")

	late := time.Date(2025, 3, 2, 18, 0, 0, 0, time.UTC)
	early := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

	lateID, err := s.Availability().GetOrCreateSlot(ctx, room.ID, late)
	require.NoError(t, err)
	again, err := s.Availability().GetOrCreateSlot(ctx, room.ID, late)
	require.NoError(t, err)
	assert.Equal(t, lateID, again)

	earlyID, err := s.Availability().GetOrCreateSlot(ctx, room.ID, early)
	require.NoError(t, err)

	require.NoError(t, s.Availability().AddVoter(ctx, lateID, bob.ID))
	require.NoError(t, s.Availability().AddVoter(ctx, lateID, bob.ID))
	require.NoError(t, s.Availability().AddVoter(ctx, earlyID, alice.ID))

	slots, err := s.Availability().ListByRoom(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].Time.Equal(early))
	require.Len(t, slots[1].Voters, 1)
	assert.Equal(t, "bob", slots[1].Voters[0].Nickname)

	require.NoError(t, s.Availability().RemoveVoter(ctx, room.ID, alice.ID))
	pruned, err := s.Availability().PruneEmpty(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	slots, err = s.Availability().ListByRoom(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, lateID, slots[0].ID)
}

func testEvaluationSubmission(t *testing.T, s repository.Store) {
	ctx := context.Background()
	alice := newUser(t, s, "alice")
	bob := newUser(t, s, "bob")
	room, _ := newRoom(t, s, alice, "Vocal")

	evaluated, err := s.Evaluations().HasEvaluated(ctx, room.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, evaluated)

	evals := []*model.Evaluation{{
		RoomID:      room.ID,
		EvaluatorID: alice.ID,
		TargetID:    bob.ID,
		Score:       70,
		IsMoodMaker: true,
	}}
	require.NoError(t, s.Evaluations().CreateBatch(ctx, evals))
	assert.NotZero(t, evals[0].ID)

	evaluated, err = s.Evaluations().HasEvaluated(ctx, room.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, evaluated)

	evaluated, err = s.Evaluations().HasEvaluated(ctx, room.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, evaluated)

	listed, err := s.Evaluations().ListByRoom(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 70, listed[0].Score)
}

func testTxRollback(t *testing.T, s repository.Store) {
	ctx := context.Background()
	alice := newUser(t, s, "alice")
	boom := errors.New("boom")

	var roomID int64
	err := s.InTx(ctx, func(tx repository.Store) error {
		room := &model.Room{Title: "jam", Song: "song", Artist: "artist", ManagerID: alice.ID}
		if err := tx.Rooms().Create(ctx, room); err != nil {
			return err
		}
		roomID = room.ID
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Rooms().GetByID(ctx, roomID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testDeleteCascades(t *testing.T, s repository.Store) {
	ctx := context.Background()
	alice := newUser(t, s, "alice")
	bob := newUser(t, s, "bob")
	room, created := newRoom(t, s, alice, "Vocal", "Guitar")

	require.NoError(t, s.Reservations().Create(ctx, &model.SessionReservation{SessionID: created[0].ID, UserID: bob.ID}))
	slotID, err := s.Availability().GetOrCreateSlot(ctx, room.ID, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, s.Availability().AddVoter(ctx, slotID, bob.ID))
	require.NoError(t, s.Chats().Create(ctx, &model.ChatMessage{RoomID: room.ID, SenderID: bob.ID, Message: "hi"}))

	deleted, err := s.Rooms().Delete(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := s.Rooms().GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	session, err := s.Sessions().GetByID(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Nil(t, session)

	reservations, err := s.Reservations().ListBySessionIDs(ctx, []int64{created[0].ID})
	require.NoError(t, err)
	assert.Empty(t, reservations)

	slots, err := s.Availability().ListByRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Empty(t, slots)

	msgs, err := s.Chats().ListByRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	// записи, ссылающиеся на удалённые строки, не создаются
	err = s.Reservations().Create(ctx, &model.SessionReservation{SessionID: created[1].ID, UserID: bob.ID})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = s.Chats().Create(ctx, &model.ChatMessage{RoomID: room.ID, SenderID: bob.ID, Message: "anyone?"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	deleted, err = s.Rooms().Delete(ctx, room.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
