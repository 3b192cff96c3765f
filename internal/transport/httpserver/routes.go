package httpserver

import (
	"net/http"
	"time"

	"care-companion-go/internal/transport/httpserver/handler"
	"care-companion-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(handlers *handler.Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.NewCORS([]string{"http://localhost:5173"}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.Get("/cache/status", handlers.CacheStatus)
		r.Delete("/cache", handlers.CacheClear)

		r.Get("/users/{user_id}/conversations", handlers.ListConversations)
		r.Post("/users/{user_id}/conversations", handlers.CreateConversation)
		r.Get("/users/{user_id}/memoirs", handlers.ListMemoirs)
		r.Post("/users/{user_id}/memoirs", handlers.CreateMemoir)
		r.Get("/conversations/{conversation_id}/messages", handlers.ListMessages)
		r.Post("/conversations/{conversation_id}/messages", handlers.AppendMessage)

		r.Get("/schedules", handlers.ListSchedules)
		r.Post("/schedules", handlers.CreateSchedule)
		r.Put("/schedules/{id}", handlers.UpdateSchedule)
		r.Delete("/schedules/{id}", handlers.DeleteSchedule)
		r.Post("/schedules/{id}/complete", handlers.CompleteSchedule)
		r.Get("/elderly/{elderly_id}/schedules", handlers.ListElderlySchedules)
		r.Get("/elderly/{elderly_id}/schedules/upcoming", handlers.ListUpcomingSchedules)
	})

	return r
}
