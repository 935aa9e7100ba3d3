package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/jamroom/internal/service"
)

func (h *Handler) chatHistory(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "roomID", service.ErrRoomNotFound)
	if !ok {
		return
	}

	msgs, err := h.chat.History(r.Context(), roomID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *Handler) postChatMessage(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "roomID", service.ErrRoomNotFound)
	if !ok {
		return
	}

	var req chatRequest
	if !decode(w, r, &req) {
		return
	}

	msg, err := h.chat.Post(r.Context(), actorFrom(r.Context()), roomID, req.Message)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
