package service

import (
	"context"
	"sync"
	"testing"

	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/repository/memstore"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu  sync.Mutex
	got []model.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg model.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, msg)
}

func (n *recordingNotifier) byKind(kind model.NotificationKind) []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []model.Notification
	for _, msg := range n.got {
		if msg.Kind == kind {
			out = append(out, msg)
		}
	}
	return out
}

func recipients(msgs []model.Notification) []int64 {
	ids := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.UserID)
	}
	return ids
}

type testEnv struct {
	ctx      context.Context
	store    *memstore.Store
	notifier *recordingNotifier

	rooms        *RoomService
	sessions     *SessionService
	reservations *ReservationService
	availability *AvailabilityService
	evaluations  *EvaluationService
	chat         *ChatService
	users        *UserService

	alice *model.User
	bob   *model.User
	carol *model.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memstore.New()
	notifier := &recordingNotifier{}
	logger := zap.NewNop()

	env := &testEnv{
		ctx:          context.Background(),
		store:        store,
		notifier:     notifier,
		rooms:        NewRoomService(store, notifier, logger),
		sessions:     NewSessionService(store, notifier, logger),
		reservations: NewReservationService(store, logger),
		availability: NewAvailabilityService(store, logger),
		evaluations:  NewEvaluationService(store, logger),
		chat:         NewChatService(store, logger),
		users:        NewUserService(store.Users(), logger),
	}

	env.alice = env.user(t, "alice")
	env.bob = env.user(t, "bob")
	env.carol = env.user(t, "carol")
	return env
}

func (e *testEnv) user(t *testing.T, nickname string) *model.User {
	t.Helper()
	u, err := e.users.RegisterUser(e.ctx, nickname, nil)
	require.NoError(t, err)
	return u
}

func (e *testEnv) room(t *testing.T, manager *model.User, sessions ...string) *model.Room {
	t.Helper()
	room, err := e.rooms.Create(e.ctx, manager, CreateRoomInput{
		Title:    "Friday jam",
		Song:     "Paranoid",
		Artist:   "Black Sabbath",
		Sessions: sessions,
	})
	require.NoError(t, err)
	return room
}

func (e *testEnv) session(t *testing.T, roomID int64, name string) *model.Session {
	t.Helper()
	sessions, err := e.store.Sessions().GetByRoom(e.ctx, roomID)
	require.NoError(t, err)
	for _, s := range sessions {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("session %q not found in room %d", name, roomID)
	return nil
}

func ptr[T any](v T) *T { return &v }
