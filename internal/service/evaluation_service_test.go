package service

import (
	"testing"

	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// endedRoom комната alice с bob на барабанах, подтверждённая и завершённая
func endedRoom(t *testing.T, env *testEnv) *model.Room {
	t.Helper()
	room := env.room(t, env.alice, "Guitar", "Drums")
	_, err := env.sessions.Join(env.ctx, env.bob, room.ID, env.session(t, room.ID, "Drums").ID)
	require.NoError(t, err)
	_, err = env.rooms.Confirm(env.ctx, env.alice, room.ID)
	require.NoError(t, err)
	_, err = env.rooms.End(env.ctx, env.alice, room.ID)
	require.NoError(t, err)
	return room
}

func TestEvaluationService_Submit(t *testing.T) {
	env := newTestEnv(t)
	room := endedRoom(t, env)

	created, err := env.evaluations.Submit(env.ctx, env.bob, room.ID, []Rating{
		{TargetNickname: "alice", Score: ptr(90), Comment: "great lead", IsMoodMaker: true},
		{TargetNickname: "bob", Score: ptr(100)},
		{TargetNickname: "ghost", Score: ptr(10)},
		{TargetNickname: "carol"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	assert.Equal(t, env.alice.ID, created[0].TargetID)
	assert.Equal(t, 90, created[0].Score)
	assert.True(t, created[0].IsMoodMaker)
	assert.Equal(t, env.carol.ID, created[1].TargetID)
	assert.Equal(t, model.DefaultEvaluationScore, created[1].Score)

	stored, err := env.evaluations.ListByRoom(env.ctx, room.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	for _, e := range stored {
		assert.NotEqual(t, e.EvaluatorID, e.TargetID)
	}
}

func TestEvaluationService_RoomNotEnded(t *testing.T) {
	env := newTestEnv(t)
	room := env.room(t, env.alice, "Guitar")

	_, err := env.evaluations.Submit(env.ctx, env.alice, room.ID, nil)
	assert.ErrorIs(t, err, ErrRoomNotEnded)
	assert.Equal(t, KindConflict, KindOf(err))

	// статус комнаты проверяется раньше содержимого пакета
	_, err = env.evaluations.Submit(env.ctx, env.alice, room.ID, []Rating{{TargetNickname: "bob", Score: ptr(500)}})
	assert.ErrorIs(t, err, ErrRoomNotEnded)

	_, err = env.rooms.Confirm(env.ctx, env.alice, room.ID)
	require.NoError(t, err)
	_, err = env.evaluations.Submit(env.ctx, env.alice, room.ID, nil)
	assert.ErrorIs(t, err, ErrRoomNotEnded)

	_, err = env.evaluations.Submit(env.ctx, env.alice, 999, nil)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestEvaluationService_ExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	room := endedRoom(t, env)

	_, err := env.evaluations.Submit(env.ctx, env.bob, room.ID, []Rating{{TargetNickname: "alice", Score: ptr(70)}})
	require.NoError(t, err)

	_, err = env.evaluations.Submit(env.ctx, env.bob, room.ID, []Rating{{TargetNickname: "alice", Score: ptr(20)}})
	assert.ErrorIs(t, err, ErrDuplicateSubmission)

	// повтор отклоняется при любом содержимом, даже с недопустимой оценкой
	_, err = env.evaluations.Submit(env.ctx, env.bob, room.ID, []Rating{{TargetNickname: "alice", Score: ptr(500)}})
	assert.ErrorIs(t, err, ErrDuplicateSubmission)

	_, err = env.evaluations.Submit(env.ctx, env.bob, room.ID, nil)
	assert.ErrorIs(t, err, ErrDuplicateSubmission)

	stored, err := env.evaluations.ListByRoom(env.ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 70, stored[0].Score)

	// другой оценщик не затронут
	_, err = env.evaluations.Submit(env.ctx, env.alice, room.ID, []Rating{{TargetNickname: "bob", Score: ptr(80)}})
	require.NoError(t, err)
}

func TestEvaluationService_BatchWithoutRowsDoesNotCount(t *testing.T) {
	env := newTestEnv(t)
	room := endedRoom(t, env)

	created, err := env.evaluations.Submit(env.ctx, env.alice, room.ID, []Rating{
		{TargetNickname: "alice", Score: ptr(90)},
		{TargetNickname: "ghost", Score: ptr(60)},
	})
	require.NoError(t, err)
	assert.Empty(t, created)

	_, err = env.evaluations.Submit(env.ctx, env.alice, room.ID, nil)
	require.NoError(t, err)

	created, err = env.evaluations.Submit(env.ctx, env.alice, room.ID, []Rating{{TargetNickname: "bob", Score: ptr(80)}})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, env.bob.ID, created[0].TargetID)
}

func TestEvaluationService_InvalidScore(t *testing.T) {
	env := newTestEnv(t)
	room := endedRoom(t, env)

	_, err := env.evaluations.Submit(env.ctx, env.bob, room.ID, []Rating{{TargetNickname: "alice", Score: ptr(101)}})
	assert.ErrorIs(t, err, ErrInvalidScore)

	// отклонённый пакет не блокирует повторную отправку
	_, err = env.evaluations.Submit(env.ctx, env.bob, room.ID, []Rating{{TargetNickname: "alice", Score: ptr(100)}})
	require.NoError(t, err)
}
