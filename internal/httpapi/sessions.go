package httpapi

import (
	"fmt"
	"net/http"

	"github.com/Freeeeeet/jamroom/internal/service"
)

func (h *Handler) joinSession(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "roomID", service.ErrRoomNotFound)
	if !ok {
		return
	}
	sessionID, ok := pathID(w, r, "sessionID", service.ErrSessionNotFound)
	if !ok {
		return
	}

	result, err := h.sessions.Join(r.Context(), actorFrom(r.Context()), roomID, sessionID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	detail := "joined session"
	if result == service.JoinResultCancelled {
		detail = "left session"
	}
	writeJSON(w, http.StatusOK, joinResponse{Detail: detail, Result: string(result)})
}

func (h *Handler) leaveRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "roomID", service.ErrRoomNotFound)
	if !ok {
		return
	}

	if err := h.sessions.Leave(r.Context(), actorFrom(r.Context()), roomID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detailBody{Detail: "left room"})
}

func (h *Handler) kickMember(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "roomID", service.ErrRoomNotFound)
	if !ok {
		return
	}

	var req kickRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.sessions.Kick(r.Context(), actorFrom(r.Context()), roomID, req.Nickname); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detailBody{Detail: fmt.Sprintf("%s was removed from the room", req.Nickname)})
}

func (h *Handler) reserveSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r, "sessionID", service.ErrSessionNotFound)
	if !ok {
		return
	}

	res, err := h.reservations.Reserve(r.Context(), actorFrom(r.Context()), sessionID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) cancelReservation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r, "sessionID", service.ErrSessionNotFound)
	if !ok {
		return
	}

	if err := h.reservations.Cancel(r.Context(), actorFrom(r.Context()), sessionID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detailBody{Detail: "reservation cancelled"})
}
