package httpapi

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/jamroom/internal/chart"
	"github.com/Freeeeeet/jamroom/internal/service"
	"go.uber.org/zap"
)

func (h *Handler) getAvailability(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "roomID", service.ErrRoomNotFound)
	if !ok {
		return
	}

	slots, err := h.availability.GetVotes(r.Context(), actorFrom(r.Context()), roomID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

// submitAvailability заменяет голоса актора; нераспознанные времена пропускаются
func (h *Handler) submitAvailability(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "roomID", service.ErrRoomNotFound)
	if !ok {
		return
	}

	var req availabilityRequest
	if !decode(w, r, &req) {
		return
	}

	slots, err := h.availability.SubmitVotes(r.Context(), actorFrom(r.Context()), roomID, req.times())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

// availabilityWeekChart отдаёт PNG недели опроса. Неделя берётся из ?date=YYYY-MM-DD,
// иначе неделя ближайшего слота, иначе текущая.
func (h *Handler) availabilityWeekChart(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "roomID", service.ErrRoomNotFound)
	if !ok {
		return
	}

	slots, err := h.availability.GetVotes(r.Context(), actorFrom(r.Context()), roomID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	now := time.Now().UTC()
	day := now
	if raw := r.URL.Query().Get("date"); raw != "" {
		day, err = time.Parse(time.DateOnly, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", "date must be YYYY-MM-DD")
			return
		}
	} else if len(slots) > 0 {
		day = slots[0].Time
	}

	img, err := chart.AvailabilityWeek(day, slots, now)
	if err != nil {
		loggerFrom(r.Context(), h.logger).Error("Failed to render availability chart",
			zap.Int64("room_id", roomID),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

func (h *Handler) submitEvaluations(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "roomID", service.ErrRoomNotFound)
	if !ok {
		return
	}

	var req evaluateRequest
	if !decode(w, r, &req) {
		return
	}

	evals, err := h.evaluations.Submit(r.Context(), actorFrom(r.Context()), roomID, req.ratings())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, evaluateResponse{Detail: "evaluations submitted", Evaluations: evals})
}

func (h *Handler) listEvaluations(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "roomID", service.ErrRoomNotFound)
	if !ok {
		return
	}

	evals, err := h.evaluations.ListByRoom(r.Context(), roomID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, evals)
}
