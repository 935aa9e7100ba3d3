package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Полный цикл комнаты: создание, неполный состав, вход, подтверждение,
// завершение и однократная оценка.
func TestRoomLifecycleScenario(t *testing.T) {
	env := newTestEnv(t)

	room := env.room(t, env.alice, "Guitar", "Drums")
	require.Len(t, room.Sessions, 2)
	assert.True(t, room.Sessions[0].IsHeldBy(env.alice.ID))
	assert.False(t, room.Sessions[1].IsOccupied())

	_, err := env.rooms.Confirm(env.ctx, env.alice, room.ID)
	require.ErrorIs(t, err, ErrIncompleteRoster)

	result, err := env.sessions.Join(env.ctx, env.bob, room.ID, room.Sessions[1].ID)
	require.NoError(t, err)
	require.Equal(t, JoinResultJoined, result)

	confirmed, err := env.rooms.Confirm(env.ctx, env.alice, room.ID)
	require.NoError(t, err)
	assert.True(t, confirmed.Confirmed)

	ended, err := env.rooms.End(env.ctx, env.alice, room.ID)
	require.NoError(t, err)
	assert.True(t, ended.Ended)

	created, err := env.evaluations.Submit(env.ctx, env.alice, room.ID, []Rating{{TargetNickname: "bob", Score: ptr(80)}})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, 80, created[0].Score)

	_, err = env.evaluations.Submit(env.ctx, env.alice, room.ID, []Rating{{TargetNickname: "bob", Score: ptr(80)}})
	assert.ErrorIs(t, err, ErrDuplicateSubmission)
}
