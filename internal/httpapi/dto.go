package httpapi

import (
	"time"

	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/service"
	"github.com/goccy/go-json"
)

type createRoomRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Song        string   `json:"song" validate:"required,max=200"`
	Artist      string   `json:"artist" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	IsPrivate   bool     `json:"is_private"`
	Password    string   `json:"password" validate:"max=72"`
	Sessions    []string `json:"sessions" validate:"dive,max=50"`
}

func (req createRoomRequest) input() service.CreateRoomInput {
	return service.CreateRoomInput{
		Title:       req.Title,
		Song:        req.Song,
		Artist:      req.Artist,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
		Password:    req.Password,
		Sessions:    req.Sessions,
	}
}

type updateRoomRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Song        *string `json:"song" validate:"omitempty,min=1,max=200"`
	Artist      *string `json:"artist" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsPrivate   *bool   `json:"is_private"`
	Password    *string `json:"password" validate:"omitempty,max=72"`
}

func (req updateRoomRequest) input() service.UpdateRoomInput {
	return service.UpdateRoomInput{
		Title:       req.Title,
		Song:        req.Song,
		Artist:      req.Artist,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
		Password:    req.Password,
	}
}

type verifyPasswordRequest struct {
	Password string `json:"password" validate:"max=72"`
}

// Пустой ник проверяет сервис, после проверки прав менеджера
type kickRequest struct {
	Nickname string `json:"nickname" validate:"max=150"`
}

// Элементы times разбираются по одному: не-строки пропускаются, как и
// нераспознанное время
type availabilityRequest struct {
	Times []json.RawMessage `json:"times" validate:"max=500"`
}

func (req availabilityRequest) times() []string {
	out := make([]string, 0, len(req.Times))
	for _, raw := range req.Times {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

type ratingRequest struct {
	TargetNickname string `json:"target_nickname" validate:"max=150"`
	Score          *int   `json:"score"`
	Comment        string `json:"comment" validate:"max=2000"`
	IsMoodMaker    bool   `json:"is_mood_maker"`
}

type evaluateRequest struct {
	Evaluations []ratingRequest `json:"evaluations" validate:"max=100,dive"`
}

func (req evaluateRequest) ratings() []service.Rating {
	out := make([]service.Rating, 0, len(req.Evaluations))
	for _, e := range req.Evaluations {
		out = append(out, service.Rating{
			TargetNickname: e.TargetNickname,
			Score:          e.Score,
			Comment:        e.Comment,
			IsMoodMaker:    e.IsMoodMaker,
		})
	}
	return out
}

type chatRequest struct {
	Message string `json:"message" validate:"max=4000"`
}

// roomView элемент списка комнат
type roomView struct {
	ID               int64            `json:"id"`
	Title            string           `json:"title"`
	Song             string           `json:"song"`
	Artist           string           `json:"artist"`
	ManagerID        int64            `json:"manager_id"`
	ManagerNickname  string           `json:"manager_nickname"`
	Sessions         []*model.Session `json:"sessions"`
	SessionCount     int              `json:"session_count"`
	ParticipantCount int              `json:"participant_count"`
	CreatedAt        time.Time        `json:"created_at"`
	ClanID           *int64           `json:"clan_id"`
	Confirmed        bool             `json:"confirmed"`
	IsPrivate        bool             `json:"is_private"`
	Ended            bool             `json:"ended"`
}

// roomDetailView карточка комнаты
type roomDetailView struct {
	roomView
	Description       string                    `json:"description"`
	ConfirmedAt       *time.Time                `json:"confirmed_at"`
	EndedAt           *time.Time                `json:"ended_at"`
	AvailabilitySlots []*model.AvailabilitySlot `json:"availability_slots"`
	UserIsClanAdmin   bool                      `json:"user_is_clan_admin"`
}

func newRoomView(room *model.Room) roomView {
	sessions := room.Sessions
	if sessions == nil {
		sessions = []*model.Session{}
	}
	return roomView{
		ID:               room.ID,
		Title:            room.Title,
		Song:             room.Song,
		Artist:           room.Artist,
		ManagerID:        room.ManagerID,
		ManagerNickname:  room.ManagerNickname,
		Sessions:         sessions,
		SessionCount:     len(sessions),
		ParticipantCount: room.ParticipantCount(),
		CreatedAt:        room.CreatedAt,
		ClanID:           room.ClanID,
		Confirmed:        room.Confirmed,
		IsPrivate:        room.IsPrivate,
		Ended:            room.Ended,
	}
}

func newRoomViews(rooms []*model.Room) []roomView {
	out := make([]roomView, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, newRoomView(room))
	}
	return out
}

func newRoomDetailView(room *model.Room, slots []*model.AvailabilitySlot, clanAdmin bool) roomDetailView {
	if slots == nil {
		slots = []*model.AvailabilitySlot{}
	}
	return roomDetailView{
		roomView:          newRoomView(room),
		Description:       room.Description,
		ConfirmedAt:       room.ConfirmedAt,
		EndedAt:           room.EndedAt,
		AvailabilitySlots: slots,
		UserIsClanAdmin:   clanAdmin,
	}
}

type joinResponse struct {
	Detail string `json:"detail"`
	Result string `json:"result"`
}

type transitionResponse struct {
	Detail string         `json:"detail"`
	Room   roomDetailView `json:"room"`
}

type evaluateResponse struct {
	Detail      string              `json:"detail"`
	Evaluations []*model.Evaluation `json:"evaluations"`
}
