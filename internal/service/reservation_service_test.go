package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationService(t *testing.T) {
	env := newTestEnv(t)
	room := env.room(t, env.alice, "Guitar", "Drums")
	guitar := env.session(t, room.ID, "Guitar")

	// занятую сессию тоже можно зарезервировать, в том числе менеджеру
	res, err := env.reservations.Reserve(env.ctx, env.bob, guitar.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", res.UserNickname)
	_, err = env.reservations.Reserve(env.ctx, env.alice, guitar.ID)
	require.NoError(t, err)

	_, err = env.reservations.Reserve(env.ctx, env.bob, guitar.ID)
	assert.ErrorIs(t, err, ErrDuplicateReservation)
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = env.reservations.Reserve(env.ctx, env.bob, 999)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, env.reservations.Cancel(env.ctx, env.bob, guitar.ID))

	err = env.reservations.Cancel(env.ctx, env.bob, guitar.ID)
	assert.ErrorIs(t, err, ErrReservationNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))

	assert.ErrorIs(t, env.reservations.Cancel(env.ctx, env.bob, 999), ErrSessionNotFound)

	// после отмены можно зарезервировать снова
	_, err = env.reservations.Reserve(env.ctx, env.bob, guitar.ID)
	require.NoError(t, err)
}
