package api

import (
	"github.com/go-chi/chi/v5"

	"SupportBot/internal/config"
	"SupportBot/internal/storage"
	"SupportBot/internal/telegram_api"
)

// ApiDependencies содержит зависимости для обработчиков API.
type ApiDependencies struct {
	Config *config.Config
	Store  storage.Store
	Bot    telegram_api.Sender
}

// SetupRoutes настраивает все маршруты для API дашборда.
func SetupRoutes(r *chi.Mux, deps ApiDependencies) {
	r.Get("/health", deps.HealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(deps.Config.DashboardToken))

		r.Get("/api/tickets", deps.GetTickets)
		r.Get("/api/tickets/export", deps.ExportTickets)
		r.Get("/api/tickets/{id}/messages", deps.GetTicketMessages)
		r.Post("/api/tickets/{id}/reply", deps.ReplyToTicket)
		r.Post("/api/tickets/{id}/close", deps.CloseTicket)
		r.Get("/api/stats", deps.GetStats)
	})
}
