package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/hivedesk/hivedesk-backend/internal/handlers"
	"github.com/hivedesk/hivedesk-backend/internal/middleware"
	"github.com/hivedesk/hivedesk-backend/internal/services"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Groups   *handlers.GroupHandler
	Direct   *handlers.DirectHandler
	Upload   *handlers.UploadHandler
	WS       *handlers.WSHandler
	Sessions *services.SessionService
}

func SetupRoutes(r *chi.Mux, h Handlers) {
	// WebSocket gateway authenticates itself (browser clients can't set
	// headers on the upgrade request).
	r.Get("/ws", h.WS.Serve)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.Sessions))

		// Group conversations
		r.Post("/api/groups", h.Groups.CreateGroup)
		r.Get("/api/groups", h.Groups.ListGroups)
		r.Get("/api/groups/{groupID}", h.Groups.GetGroup)
		r.Put("/api/groups/{groupID}", h.Groups.UpdateGroup)
		r.Delete("/api/groups/{groupID}", h.Groups.DeleteGroup)
		r.Post("/api/groups/{groupID}/leave", h.Groups.LeaveGroup)
		r.Put("/api/groups/{groupID}/mute", h.Groups.SetMuted)

		// Group messages
		r.Get("/api/groups/{groupID}/messages", h.Groups.ListMessages)
		r.With(middleware.SendRateLimit).Post("/api/groups/{groupID}/messages", h.Groups.SendMessage)
		r.Put("/api/groups/{groupID}/messages/{messageID}", h.Groups.EditMessage)
		r.Delete("/api/groups/{groupID}/messages/{messageID}", h.Groups.DeleteMessage)

		// Direct messages
		r.Get("/api/direct/conversations", h.Direct.ListConversations)
		r.Get("/api/direct/{userID}/messages", h.Direct.ListMessages)
		r.With(middleware.SendRateLimit).Post("/api/direct/{userID}/messages", h.Direct.SendMessage)
		r.Put("/api/direct/messages/{messageID}", h.Direct.EditMessage)
		r.Delete("/api/direct/messages/{messageID}", h.Direct.DeleteMessage)

		// File uploads
		r.Post("/api/upload", h.Upload.Upload)
	})
}
