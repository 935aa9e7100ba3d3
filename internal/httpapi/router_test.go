package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Freeeeeet/jamroom/internal/auth"
	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/repository/memstore"
	"github.com/Freeeeeet/jamroom/internal/service"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type apiEnv struct {
	t       *testing.T
	store   *memstore.Store
	handler http.Handler
	tokens  map[string]string
	users   map[string]*model.User
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	store := memstore.New()
	logger := zap.NewNop()
	notifier := service.NopNotifier{}

	manager, err := auth.NewManager("test-secret", time.Hour)
	require.NoError(t, err)

	env := &apiEnv{
		t:      t,
		store:  store,
		tokens: map[string]string{},
		users:  map[string]*model.User{},
	}

	userService := service.NewUserService(store.Users(), logger)
	for _, nick := range []string{"alice", "bob", "carol"} {
		u, err := userService.RegisterUser(context.Background(), nick, nil)
		require.NoError(t, err)
		token, err := manager.Issue(u.ID)
		require.NoError(t, err)
		env.users[nick] = u
		env.tokens[nick] = token
	}

	env.handler = NewRouter(Deps{
		Store:        store,
		Auth:         manager,
		Rooms:        service.NewRoomService(store, notifier, logger),
		Sessions:     service.NewSessionService(store, notifier, logger),
		Reservations: service.NewReservationService(store, logger),
		Availability: service.NewAvailabilityService(store, logger),
		Evaluations:  service.NewEvaluationService(store, logger),
		Chat:         service.NewChatService(store, logger),
		Logger:       logger,
	})
	return env
}

func (e *apiEnv) do(method, path, as string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+e.tokens[as])
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

type sessionResp struct {
	ID            int64  `json:"id"`
	Name          string `json:"session_name"`
	ParticipantID *int64 `json:"participant_id"`
}

type roomResp struct {
	ID                int64         `json:"id"`
	Title             string        `json:"title"`
	ManagerNickname   string        `json:"manager_nickname"`
	Sessions          []sessionResp `json:"sessions"`
	SessionCount      int           `json:"session_count"`
	ParticipantCount  int           `json:"participant_count"`
	Confirmed         bool          `json:"confirmed"`
	Ended             bool          `json:"ended"`
	AvailabilitySlots []struct {
		Time          time.Time `json:"time"`
		VotedByViewer bool      `json:"voted_by_current_user"`
	} `json:"availability_slots"`
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	body := decodeBody[errorBody](t, rec)
	assert.Equal(t, code, body.Code)
	assert.NotEmpty(t, body.Detail)
}

func (e *apiEnv) createRoom(as string, sessions ...string) roomResp {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/v1/rooms", as, map[string]any{
		"title":    "Friday jam",
		"song":     "Paranoid",
		"artist":   "Black Sabbath",
		"sessions": sessions,
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[roomResp](e.t, rec)
}

func roomPath(roomID int64, suffix string) string {
	return fmt.Sprintf("/api/v1/rooms/%d%s", roomID, suffix)
}

func TestCreateRoom(t *testing.T) {
	env := newAPIEnv(t)

	t.Run("manager occupies first session", func(t *testing.T) {
		room := env.createRoom("alice", "Vocal", "Guitar", "Drums")

		assert.Equal(t, "alice", room.ManagerNickname)
		assert.Equal(t, 3, room.SessionCount)
		assert.Equal(t, 1, room.ParticipantCount)
		require.Len(t, room.Sessions, 3)
		assert.Equal(t, "Vocal", room.Sessions[0].Name)
		require.NotNil(t, room.Sessions[0].ParticipantID)
		assert.Equal(t, env.users["alice"].ID, *room.Sessions[0].ParticipantID)
		assert.Nil(t, room.Sessions[1].ParticipantID)
		assert.False(t, room.Confirmed)
		assert.False(t, room.Ended)
	})

	t.Run("no sessions", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/rooms", "alice", map[string]any{
			"title": "Empty", "song": "s", "artist": "a", "sessions": []string{},
		})
		assertError(t, rec, http.StatusBadRequest, "no_sessions")
	})

	t.Run("blank session name", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/rooms", "alice", map[string]any{
			"title": "Blank", "song": "s", "artist": "a", "sessions": []string{"Guitar", "  "},
		})
		assertError(t, rec, http.StatusBadRequest, "empty_session_name")

		rec = env.do(http.MethodGet, "/api/v1/rooms/my", "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		for _, room := range decodeBody[[]roomView](t, rec) {
			assert.NotEqual(t, "Blank", room.Title)
		}
	})

	t.Run("missing title", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/rooms", "alice", map[string]any{
			"song": "s", "artist": "a", "sessions": []string{"Bass"},
		})
		assertError(t, rec, http.StatusBadRequest, "invalid_input")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/rooms", "", map[string]any{"sessions": []string{"Bass"}})
		assertError(t, rec, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms/my", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestListRooms(t *testing.T) {
	env := newAPIEnv(t)
	first := env.createRoom("alice", "Vocal", "Guitar")
	second := env.createRoom("bob", "Drums")

	rec := env.do(http.MethodGet, "/api/v1/rooms", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rooms := decodeBody[[]roomResp](t, rec)
	require.Len(t, rooms, 2)
	assert.Equal(t, second.ID, rooms[0].ID)
	assert.Equal(t, first.ID, rooms[1].ID)

	rec = env.do(http.MethodGet, "/api/v1/rooms/my", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decodeBody[[]roomResp](t, rec)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)

	rec = env.do(http.MethodGet, "/api/v1/rooms/my/bob", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	byBob := decodeBody[[]roomResp](t, rec)
	require.Len(t, byBob, 1)
	assert.Equal(t, second.ID, byBob[0].ID)

	rec = env.do(http.MethodGet, "/api/v1/rooms/my/nobody", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetRoom(t *testing.T) {
	env := newAPIEnv(t)
	room := env.createRoom("alice", "Vocal")

	rec := env.do(http.MethodGet, roomPath(room.ID, "/"), "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[roomResp](t, rec)
	assert.Equal(t, room.ID, got.ID)
	assert.NotNil(t, got.AvailabilitySlots)

	assertError(t, env.do(http.MethodGet, roomPath(room.ID+100, ""), "bob", nil), http.StatusNotFound, "room_not_found")
	assertError(t, env.do(http.MethodGet, "/api/v1/rooms/abc", "bob", nil), http.StatusNotFound, "room_not_found")
}

func TestJoinSession(t *testing.T) {
	env := newAPIEnv(t)
	room := env.createRoom("alice", "Vocal", "Guitar")
	guitar := room.Sessions[1].ID
	joinPath := roomPath(room.ID, fmt.Sprintf("/sessions/%d/join", guitar))

	rec := env.do(http.MethodPost, joinPath, "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "joined", decodeBody[joinResponse](t, rec).Result)

	assertError(t, env.do(http.MethodPost, joinPath, "carol", nil), http.StatusBadRequest, "session_occupied")

	rec = env.do(http.MethodPost, joinPath, "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled", decodeBody[joinResponse](t, rec).Result)

	missing := roomPath(room.ID, fmt.Sprintf("/sessions/%d/join", guitar+100))
	assertError(t, env.do(http.MethodPost, missing, "bob", nil), http.StatusNotFound, "session_not_found")
}

func TestRoomLifecycle(t *testing.T) {
	env := newAPIEnv(t)
	room := env.createRoom("alice", "Vocal", "Guitar")
	confirmPath := roomPath(room.ID, "/confirm")
	endPath := roomPath(room.ID, "/end")

	assertError(t, env.do(http.MethodPost, confirmPath, "bob", nil), http.StatusForbidden, "not_manager")
	assertError(t, env.do(http.MethodPost, confirmPath, "alice", nil), http.StatusBadRequest, "incomplete_roster")
	assertError(t, env.do(http.MethodPost, endPath, "alice", nil), http.StatusBadRequest, "not_confirmed")

	rec := env.do(http.MethodPost, roomPath(room.ID, fmt.Sprintf("/sessions/%d/join", room.Sessions[1].ID)), "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, confirmPath, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	confirmed := decodeBody[struct {
		Room roomResp `json:"room"`
	}](t, rec)
	assert.True(t, confirmed.Room.Confirmed)
	assert.Equal(t, 2, confirmed.Room.ParticipantCount)

	assertError(t, env.do(http.MethodPost, confirmPath, "alice", nil), http.StatusBadRequest, "already_confirmed")
	assertError(t, env.do(http.MethodPost, endPath, "bob", nil), http.StatusForbidden, "not_manager")

	rec = env.do(http.MethodPost, endPath, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assertError(t, env.do(http.MethodPost, endPath, "alice", nil), http.StatusBadRequest, "already_ended")
}

func TestLeaveAndKick(t *testing.T) {
	env := newAPIEnv(t)
	room := env.createRoom("alice", "Vocal", "Guitar", "Bass")
	env.do(http.MethodPost, roomPath(room.ID, fmt.Sprintf("/sessions/%d/join", room.Sessions[1].ID)), "bob", nil)
	env.do(http.MethodPost, roomPath(room.ID, fmt.Sprintf("/sessions/%d/join", room.Sessions[2].ID)), "carol", nil)
	kickPath := roomPath(room.ID, "/kick")

	assertError(t, env.do(http.MethodPost, roomPath(room.ID, "/leave"), "alice", nil), http.StatusBadRequest, "manager_cannot_leave")

	rec := env.do(http.MethodPost, roomPath(room.ID, "/leave"), "carol", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assertError(t, env.do(http.MethodPost, kickPath, "bob", map[string]string{"nickname": "alice"}), http.StatusForbidden, "not_manager")
	assertError(t, env.do(http.MethodPost, kickPath, "alice", map[string]string{"nickname": "alice"}), http.StatusBadRequest, "cannot_kick_manager")
	assertError(t, env.do(http.MethodPost, kickPath, "alice", map[string]string{"nickname": "carol"}), http.StatusBadRequest, "no_such_member")
	assertError(t, env.do(http.MethodPost, kickPath, "alice", map[string]string{}), http.StatusBadRequest, "nickname_required")

	rec = env.do(http.MethodPost, kickPath, "alice", map[string]string{"nickname": "bob"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, roomPath(room.ID, ""), "alice", nil)
	assert.Equal(t, 1, decodeBody[roomResp](t, rec).ParticipantCount)
}

func TestReservations(t *testing.T) {
	env := newAPIEnv(t)
	room := env.createRoom("alice", "Vocal", "Guitar")
	vocal := room.Sessions[0].ID
	reservePath := fmt.Sprintf("/api/v1/rooms/sessions/%d/reserve", vocal)
	cancelPath := fmt.Sprintf("/api/v1/rooms/sessions/%d/cancel-reserve", vocal)

	rec := env.do(http.MethodPost, reservePath, "bob", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decodeBody[model.SessionReservation](t, rec)
	assert.Equal(t, vocal, res.SessionID)
	assert.Equal(t, env.users["bob"].ID, res.UserID)

	assertError(t, env.do(http.MethodPost, reservePath, "bob", nil), http.StatusBadRequest, "duplicate_reservation")

	rec = env.do(http.MethodPost, cancelPath, "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assertError(t, env.do(http.MethodPost, cancelPath, "bob", nil), http.StatusNotFound, "reservation_not_found")

	missing := fmt.Sprintf("/api/v1/rooms/sessions/%d/reserve", vocal+100)
	assertError(t, env.do(http.MethodPost, missing, "bob", nil), http.StatusNotFound, "session_not_found")
}

func TestAvailability(t *testing.T) {
	env := newAPIEnv(t)
	room := env.createRoom("alice", "Vocal")
	path := roomPath(room.ID, "/availability")

	rec := env.do(http.MethodPost, path, "bob", map[string]any{
		"times": []string{"2025-03-01T18:00:00Z", "not a time", "2025-03-02T18:00:00Z"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	slots := decodeBody[[]model.AvailabilitySlot](t, rec)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].Time.Before(slots[1].Time))
	assert.True(t, slots[0].VotedByViewer)

	rec = env.do(http.MethodGet, path, "carol", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	slots = decodeBody[[]model.AvailabilitySlot](t, rec)
	require.Len(t, slots, 2)
	assert.False(t, slots[0].VotedByViewer)

	// Повторная отправка без времён убирает все голоса, пустые слоты удаляются
	rec = env.do(http.MethodPost, path, "bob", map[string]any{"times": []string{}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	assertError(t, env.do(http.MethodGet, roomPath(room.ID+100, "/availability"), "bob", nil), http.StatusNotFound, "room_not_found")
}

func TestAvailability_MixedTimes(t *testing.T) {
	env := newAPIEnv(t)
	room := env.createRoom("alice", "Vocal")
	path := roomPath(room.ID, "/availability")

	rec := env.do(http.MethodPost, path, "bob", map[string]any{
		"times": []any{"2025-11-10T14:00:00Z", 123, map[string]any{"at": "noon"}, nil, "2025-11-10T15:00:00Z", "bad"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	slots := decodeBody[[]model.AvailabilitySlot](t, rec)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].VotedByViewer)
	assert.Equal(t, 14, slots[0].Time.UTC().Hour())
	assert.Equal(t, 15, slots[1].Time.UTC().Hour())

	assertError(t, env.do(http.MethodPost, path, "bob", map[string]any{"times": "2025-11-10T14:00:00Z"}), http.StatusBadRequest, "invalid_json")
}

func TestAvailabilityWeekChart(t *testing.T) {
	env := newAPIEnv(t)
	room := env.createRoom("alice", "Vocal")
	env.do(http.MethodPost, roomPath(room.ID, "/availability"), "bob", map[string]any{
		"times": []string{"2025-03-04T19:00:00Z"},
	})

	rec := env.do(http.MethodGet, roomPath(room.ID, "/availability/week.png"), "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = env.do(http.MethodGet, roomPath(room.ID, "/availability/week.png?date=03-04-2025"), "bob", nil)
	assertError(t, rec, http.StatusBadRequest, "invalid_input")
}

func TestEvaluate(t *testing.T) {
	env := newAPIEnv(t)
	room := env.createRoom("alice", "Vocal", "Guitar")
	env.do(http.MethodPost, roomPath(room.ID, fmt.Sprintf("/sessions/%d/join", room.Sessions[1].ID)), "bob", nil)
	evaluatePath := roomPath(room.ID, "/evaluate")
	body := map[string]any{
		"evaluations": []map[string]any{
			{"target_nickname": "bob", "score": 90, "comment": "tight", "is_mood_maker": true},
			{"target_nickname": "alice"},
			{"target_nickname": "ghost", "score": 10},
		},
	}

	assertError(t, env.do(http.MethodPost, evaluatePath, "alice", body), http.StatusBadRequest, "room_not_ended")

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, roomPath(room.ID, "/confirm"), "alice", nil).Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, roomPath(room.ID, "/end"), "alice", nil).Code)

	rec := env.do(http.MethodPost, evaluatePath, "alice", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeBody[evaluateResponse](t, rec)
	require.Len(t, resp.Evaluations, 1)
	assert.Equal(t, env.users["bob"].ID, resp.Evaluations[0].TargetID)
	assert.Equal(t, 90, resp.Evaluations[0].Score)
	assert.True(t, resp.Evaluations[0].IsMoodMaker)

	assertError(t, env.do(http.MethodPost, evaluatePath, "alice", body), http.StatusBadRequest, "duplicate_submission")
	assertError(t, env.do(http.MethodPost, evaluatePath, "alice", map[string]any{
		"evaluations": []map[string]any{{"target_nickname": "bob", "score": 500}},
	}), http.StatusBadRequest, "duplicate_submission")

	rec = env.do(http.MethodGet, roomPath(room.ID, "/evaluations"), "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]model.Evaluation](t, rec), 1)
}

func TestUpdateAndDeleteRoom(t *testing.T) {
	env := newAPIEnv(t)
	room := env.createRoom("alice", "Vocal")

	assertError(t, env.do(http.MethodPatch, roomPath(room.ID, ""), "bob", map[string]any{"title": "Mine"}), http.StatusForbidden, "not_manager")

	rec := env.do(http.MethodPatch, roomPath(room.ID, ""), "alice", map[string]any{"title": "Saturday jam"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Saturday jam", decodeBody[roomResp](t, rec).Title)

	rec = env.do(http.MethodPatch, roomPath(room.ID, ""), "alice", map[string]any{"is_private": true, "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)

	verifyPath := roomPath(room.ID, "/verify-password")
	assertError(t, env.do(http.MethodPost, verifyPath, "bob", map[string]string{"password": "nope"}), http.StatusForbidden, "wrong_password")
	assert.Equal(t, http.StatusOK, env.do(http.MethodPost, verifyPath, "bob", map[string]string{"password": "secret"}).Code)

	assertError(t, env.do(http.MethodDelete, roomPath(room.ID, ""), "bob", nil), http.StatusForbidden, "not_manager")

	rec = env.do(http.MethodDelete, roomPath(room.ID, ""), "alice", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assertError(t, env.do(http.MethodGet, roomPath(room.ID, ""), "alice", nil), http.StatusNotFound, "room_not_found")
}

func TestClanRooms(t *testing.T) {
	env := newAPIEnv(t)
	clan := &model.Clan{Name: "Riff Raff", OwnerID: env.users["alice"].ID}
	require.NoError(t, env.store.CreateClan(context.Background(), clan))
	require.NoError(t, env.store.AddClanMember(context.Background(), clan.ID, env.users["bob"].ID, false))

	path := fmt.Sprintf("/api/v1/clans/%d/rooms", clan.ID)
	body := map[string]any{"title": "Clan jam", "song": "s", "artist": "a", "sessions": []string{"Drums"}}

	rec := env.do(http.MethodPost, path, "bob", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assertError(t, env.do(http.MethodPost, path, "carol", body), http.StatusForbidden, "not_clan_member")
	assertError(t, env.do(http.MethodGet, path, "carol", nil), http.StatusForbidden, "not_clan_member")
	assertError(t, env.do(http.MethodGet, fmt.Sprintf("/api/v1/clans/%d/rooms", clan.ID+100), "bob", nil), http.StatusNotFound, "clan_not_found")

	rec = env.do(http.MethodGet, path+"?sort=oldest", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]roomResp](t, rec), 1)

	// Клановые комнаты не попадают в общее лобби
	rec = env.do(http.MethodGet, "/api/v1/rooms", "", nil)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestChat(t *testing.T) {
	env := newAPIEnv(t)
	room := env.createRoom("alice", "Vocal")
	path := roomPath(room.ID, "/chat")

	assertError(t, env.do(http.MethodPost, path, "bob", map[string]string{"message": "   "}), http.StatusBadRequest, "empty_message")

	rec := env.do(http.MethodPost, path, "bob", map[string]string{"message": "see you at 7"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(http.MethodGet, path, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	msgs := decodeBody[[]model.ChatMessage](t, rec)
	require.Len(t, msgs, 1)
	assert.Equal(t, "bob", msgs[0].SenderNickname)
}

func TestHealth(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/healthz", "", nil)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}
