package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/danieljharvey/chatbat/internal/apps"
	chatHandler "github.com/danieljharvey/chatbat/internal/handler/chat"
	chatService "github.com/danieljharvey/chatbat/internal/service/chat"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(appStore apps.Store, chatSvc *chatService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := chatHandler.New(chatSvc, appStore)

	r.Route("/api", func(api chi.Router) {
		h.RegisterRoutes(api)
	})

	return r
}
