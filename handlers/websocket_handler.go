package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/Dosada05/round-submissions/middleware"
	"github.com/Dosada05/round-submissions/notifications"
	"github.com/Dosada05/round-submissions/services"
)

type WebSocketHandler struct {
	hub           *notifications.Hub
	subscriptions services.SubscriptionService
	upgrader      websocket.Upgrader
	logger        *slog.Logger
}

// NewWebSocketHandler accepts connections from any origin when allowedOrigins
// is empty or contains "*".
func NewWebSocketHandler(hub *notifications.Hub, subscriptions services.SubscriptionService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub:           hub,
		subscriptions: subscriptions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
		},
		logger: logger,
	}
}

// ServeWs subscribes the connection to /ws/{channel}, where channel is
// "eventsChanged" or "event<id>Changed" for an event the requester may see.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	requester := middleware.IdentityFromContext(r.Context()).Requester()
	if err := h.subscriptions.AuthorizeChannel(r.Context(), channel, requester); err != nil {
		errorResult(w, r, h.logger, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.logger.WarnContext(r.Context(), "failed to upgrade websocket connection",
			slog.String("channel", channel), slog.Any("error", err))
		return
	}
	if !h.hub.Attach(conn, channel) {
		h.logger.WarnContext(r.Context(), "websocket hub stopped, connection dropped", slog.String("channel", channel))
	}
}
