package httpapi

import (
	"context"
	"net/http"

	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/service"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) listOpenRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.ListOpen(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRoomViews(rooms))
}

func (h *Handler) listMyRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.ListMine(r.Context(), actorFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRoomViews(rooms))
}

func (h *Handler) listRoomsByNickname(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.ListByManagerNickname(r.Context(), chi.URLParam(r, "nickname"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRoomViews(rooms))
}

func (h *Handler) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if !decode(w, r, &req) {
		return
	}

	actor := actorFrom(r.Context())
	room, err := h.rooms.Create(r.Context(), actor, req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.writeRoom(w, r, http.StatusCreated, actor, room.ID)
}

func (h *Handler) getRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "roomID", service.ErrRoomNotFound)
	if !ok {
		return
	}
	h.writeRoom(w, r, http.StatusOK, actorFrom(r.Context()), roomID)
}

func (h *Handler) updateRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "roomID", service.ErrRoomNotFound)
	if !ok {
		return
	}

	var req updateRoomRequest
	if !decode(w, r, &req) {
		return
	}

	actor := actorFrom(r.Context())
	if _, err := h.rooms.Update(r.Context(), actor, roomID, req.input()); err != nil {
		h.fail(w, r, err)
		return
	}

	h.writeRoom(w, r, http.StatusOK, actor, roomID)
}

func (h *Handler) deleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "roomID", service.ErrRoomNotFound)
	if !ok {
		return
	}

	if err := h.rooms.Delete(r.Context(), actorFrom(r.Context()), roomID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) verifyPassword(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "roomID", service.ErrRoomNotFound)
	if !ok {
		return
	}

	var req verifyPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.rooms.VerifyPassword(r.Context(), roomID, req.Password); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detailBody{Detail: "password accepted"})
}

func (h *Handler) confirmRoom(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "room confirmed", h.rooms.Confirm)
}

func (h *Handler) endRoom(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "room ended", h.rooms.End)
}

func (h *Handler) transition(
	w http.ResponseWriter,
	r *http.Request,
	detail string,
	apply func(ctx context.Context, actor *model.User, roomID int64) (*model.Room, error),
) {
	roomID, ok := pathID(w, r, "roomID", service.ErrRoomNotFound)
	if !ok {
		return
	}

	actor := actorFrom(r.Context())
	if _, err := apply(r.Context(), actor, roomID); err != nil {
		h.fail(w, r, err)
		return
	}

	room, err := h.rooms.Get(r.Context(), actor, roomID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionResponse{
		Detail: detail,
		Room:   newRoomDetailView(room.Room, room.AvailabilitySlots, room.UserIsClanAdmin),
	})
}

func (h *Handler) listClanRooms(w http.ResponseWriter, r *http.Request) {
	clanID, ok := pathID(w, r, "clanID", service.ErrClanNotFound)
	if !ok {
		return
	}

	oldestFirst := r.URL.Query().Get("sort") == "oldest"
	rooms, err := h.rooms.ListClanRooms(r.Context(), actorFrom(r.Context()), clanID, oldestFirst)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRoomViews(rooms))
}

func (h *Handler) createClanRoom(w http.ResponseWriter, r *http.Request) {
	clanID, ok := pathID(w, r, "clanID", service.ErrClanNotFound)
	if !ok {
		return
	}

	var req createRoomRequest
	if !decode(w, r, &req) {
		return
	}

	actor := actorFrom(r.Context())
	room, err := h.rooms.CreateInClan(r.Context(), actor, clanID, req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.writeRoom(w, r, http.StatusCreated, actor, room.ID)
}

// writeRoom перечитывает комнату целиком и отдаёт карточку
func (h *Handler) writeRoom(w http.ResponseWriter, r *http.Request, status int, actor *model.User, roomID int64) {
	room, err := h.rooms.Get(r.Context(), actor, roomID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, status, newRoomDetailView(room.Room, room.AvailabilitySlots, room.UserIsClanAdmin))
}
