package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionService_JoinToggles(t *testing.T) {
	env := newTestEnv(t)
	room := env.room(t, env.alice, "Guitar", "Drums")
	drums := env.session(t, room.ID, "Drums")

	result, err := env.sessions.Join(env.ctx, env.bob, room.ID, drums.ID)
	require.NoError(t, err)
	assert.Equal(t, JoinResultJoined, result)
	assert.True(t, env.session(t, room.ID, "Drums").IsHeldBy(env.bob.ID))

	result, err = env.sessions.Join(env.ctx, env.bob, room.ID, drums.ID)
	require.NoError(t, err)
	assert.Equal(t, JoinResultCancelled, result)
	assert.False(t, env.session(t, room.ID, "Drums").IsOccupied())
}

func TestSessionService_JoinErrors(t *testing.T) {
	env := newTestEnv(t)
	room := env.room(t, env.alice, "Guitar", "Drums")
	other := env.room(t, env.bob, "Bass")
	guitar := env.session(t, room.ID, "Guitar")

	_, err := env.sessions.Join(env.ctx, env.bob, room.ID, guitar.ID)
	assert.ErrorIs(t, err, ErrSessionOccupied)
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = env.sessions.Join(env.ctx, env.bob, room.ID, 999)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// сессия другой комнаты не найдена
	_, err = env.sessions.Join(env.ctx, env.carol, room.ID, env.session(t, other.ID, "Bass").ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionService_JoinMultipleSessions(t *testing.T) {
	env := newTestEnv(t)
	room := env.room(t, env.alice, "Guitar", "Drums", "Bass")

	_, err := env.sessions.Join(env.ctx, env.bob, room.ID, env.session(t, room.ID, "Drums").ID)
	require.NoError(t, err)
	_, err = env.sessions.Join(env.ctx, env.bob, room.ID, env.session(t, room.ID, "Bass").ID)
	require.NoError(t, err)

	assert.True(t, env.session(t, room.ID, "Drums").IsHeldBy(env.bob.ID))
	assert.True(t, env.session(t, room.ID, "Bass").IsHeldBy(env.bob.ID))
}

func TestSessionService_ConcurrentJoin(t *testing.T) {
	env := newTestEnv(t)
	room := env.room(t, env.alice, "Guitar", "Drums")
	drums := env.session(t, room.ID, "Drums")

	const players = 8
	actors := make([]*model.User, players)
	for i := range actors {
		actors[i] = env.user(t, fmt.Sprintf("player%d", i))
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		joined   int
		occupied int
	)
	for _, actor := range actors {
		wg.Add(1)
		go func(actor *model.User) {
			defer wg.Done()
			result, err := env.sessions.Join(env.ctx, actor, room.ID, drums.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && result == JoinResultJoined:
				joined++
			case errors.Is(err, ErrSessionOccupied):
				occupied++
			default:
				t.Errorf("unexpected join outcome: %v %v", result, err)
			}
		}(actor)
	}
	wg.Wait()

	assert.Equal(t, 1, joined)
	assert.Equal(t, players-1, occupied)
}

func TestSessionService_Leave(t *testing.T) {
	env := newTestEnv(t)
	room := env.room(t, env.alice, "Guitar", "Drums", "Bass")
	drums := env.session(t, room.ID, "Drums")
	bass := env.session(t, room.ID, "Bass")

	_, err := env.sessions.Join(env.ctx, env.bob, room.ID, drums.ID)
	require.NoError(t, err)
	_, err = env.sessions.Join(env.ctx, env.bob, room.ID, bass.ID)
	require.NoError(t, err)
	_, err = env.reservations.Reserve(env.ctx, env.carol, drums.ID)
	require.NoError(t, err)

	err = env.sessions.Leave(env.ctx, env.alice, room.ID)
	assert.ErrorIs(t, err, ErrManagerCannotLeave)
	assert.Equal(t, KindConflict, KindOf(err))

	require.NoError(t, env.sessions.Leave(env.ctx, env.bob, room.ID))
	assert.False(t, env.session(t, room.ID, "Drums").IsOccupied())
	assert.False(t, env.session(t, room.ID, "Bass").IsOccupied())

	// повторный выход ничего не меняет и не падает
	require.NoError(t, env.sessions.Leave(env.ctx, env.bob, room.ID))
	require.NoError(t, env.sessions.Leave(env.ctx, env.carol, room.ID))

	// резерв не расходуется, держатель резерва получает уведомление
	vacant := env.notifier.byKind(model.NotificationSessionVacant)
	assert.Equal(t, []int64{env.carol.ID}, recipients(vacant))
	reservations, err := env.store.Reservations().ListBySessionIDs(env.ctx, []int64{drums.ID})
	require.NoError(t, err)
	assert.Len(t, reservations[drums.ID], 1)

	assert.ErrorIs(t, env.sessions.Leave(env.ctx, env.bob, 999), ErrRoomNotFound)
}

func TestSessionService_Kick(t *testing.T) {
	env := newTestEnv(t)
	room := env.room(t, env.alice, "Guitar", "Drums")
	drums := env.session(t, room.ID, "Drums")

	_, err := env.sessions.Join(env.ctx, env.bob, room.ID, drums.ID)
	require.NoError(t, err)

	err = env.sessions.Kick(env.ctx, env.bob, room.ID, "alice")
	assert.ErrorIs(t, err, ErrNotManager)
	assert.Equal(t, KindPermission, KindOf(err))

	err = env.sessions.Kick(env.ctx, env.alice, room.ID, "alice")
	assert.ErrorIs(t, err, ErrCannotKickManager)
	assert.Equal(t, KindConflict, KindOf(err))

	err = env.sessions.Kick(env.ctx, env.alice, room.ID, "carol")
	assert.ErrorIs(t, err, ErrNoSuchMember)

	err = env.sessions.Kick(env.ctx, env.alice, room.ID, "ghost")
	assert.ErrorIs(t, err, ErrNoSuchMember)

	err = env.sessions.Kick(env.ctx, env.alice, room.ID, " ")
	assert.ErrorIs(t, err, ErrNicknameRequired)

	require.NoError(t, env.sessions.Kick(env.ctx, env.alice, room.ID, "bob"))
	assert.False(t, env.session(t, room.ID, "Drums").IsOccupied())
	assert.Equal(t, []int64{env.bob.ID}, recipients(env.notifier.byKind(model.NotificationKicked)))

	err = env.sessions.Kick(env.ctx, env.alice, room.ID, "bob")
	assert.ErrorIs(t, err, ErrNoSuchMember)
}

func TestSessionService_CancelNotifiesReservationHolders(t *testing.T) {
	env := newTestEnv(t)
	room := env.room(t, env.alice, "Guitar", "Drums")
	drums := env.session(t, room.ID, "Drums")

	_, err := env.sessions.Join(env.ctx, env.bob, room.ID, drums.ID)
	require.NoError(t, err)
	_, err = env.reservations.Reserve(env.ctx, env.carol, drums.ID)
	require.NoError(t, err)
	_, err = env.reservations.Reserve(env.ctx, env.bob, drums.ID)
	require.NoError(t, err)

	result, err := env.sessions.Join(env.ctx, env.bob, room.ID, drums.ID)
	require.NoError(t, err)
	require.Equal(t, JoinResultCancelled, result)

	vacant := env.notifier.byKind(model.NotificationSessionVacant)
	require.Len(t, vacant, 1)
	assert.Equal(t, env.carol.ID, vacant[0].UserID)
	assert.Contains(t, vacant[0].Message, "Drums")
}
