package httpapi

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/jamroom/internal/auth"
	"github.com/Freeeeeet/jamroom/internal/repository"
	"github.com/Freeeeeet/jamroom/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps зависимости HTTP слоя
type Deps struct {
	Store        repository.Store
	Auth         *auth.Manager
	Rooms        *service.RoomService
	Sessions     *service.SessionService
	Reservations *service.ReservationService
	Availability *service.AvailabilityService
	Evaluations  *service.EvaluationService
	Chat         *service.ChatService
	Logger       *zap.Logger

	CORSOrigins        []string
	RateLimitPerMinute int
}

// Handler содержит все HTTP обработчики
type Handler struct {
	store        repository.Store
	auth         *auth.Manager
	rooms        *service.RoomService
	sessions     *service.SessionService
	reservations *service.ReservationService
	availability *service.AvailabilityService
	evaluations  *service.EvaluationService
	chat         *service.ChatService
	logger       *zap.Logger
}

// NewRouter собирает chi роутер со всеми маршрутами API
func NewRouter(d Deps) http.Handler {
	h := &Handler{
		store:        d.Store,
		auth:         d.Auth,
		rooms:        d.Rooms,
		sessions:     d.Sessions,
		reservations: d.Reservations,
		availability: d.Availability,
		evaluations:  d.Evaluations,
		chat:         d.Chat,
		logger:       d.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(h.recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(observeDuration)

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(corsHandler(d.CORSOrigins))
		if d.RateLimitPerMinute > 0 {
			r.Use(httprate.LimitByIP(d.RateLimitPerMinute, time.Minute))
		}

		r.Get("/rooms", h.listOpenRooms)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Post("/rooms", h.createRoom)
			r.Get("/rooms/my", h.listMyRooms)
			r.Get("/rooms/my/{nickname}", h.listRoomsByNickname)

			r.Post("/rooms/sessions/{sessionID}/reserve", h.reserveSession)
			r.Post("/rooms/sessions/{sessionID}/cancel-reserve", h.cancelReservation)

			r.Route("/rooms/{roomID}", func(r chi.Router) {
				r.Get("/", h.getRoom)
				r.Patch("/", h.updateRoom)
				r.Delete("/", h.deleteRoom)

				r.Post("/verify-password", h.verifyPassword)
				r.Post("/confirm", h.confirmRoom)
				r.Post("/end", h.endRoom)

				r.Post("/sessions/{sessionID}/join", h.joinSession)
				r.Post("/leave", h.leaveRoom)
				r.Post("/kick", h.kickMember)

				r.Get("/availability", h.getAvailability)
				r.Post("/availability", h.submitAvailability)
				r.Get("/availability/week.png", h.availabilityWeekChart)

				r.Post("/evaluate", h.submitEvaluations)
				r.Get("/evaluations", h.listEvaluations)

				r.Get("/chat", h.chatHistory)
				r.Post("/chat", h.postChatMessage)
			})

			r.Get("/clans/{clanID}/rooms", h.listClanRooms)
			r.Post("/clans/{clanID}/rooms", h.createClanRoom)
		})
	})

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	allowCredentials := true
	for _, o := range origins {
		if o == "*" {
			allowCredentials = false
			break
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: allowCredentials,
		MaxAge:           300,
	})
}
