package websocket

import (
	"log/slog"
	"net/http"
	"time"

	"chat-relay/domain/chat"
	"chat-relay/runtime"
	"chat-relay/services"

	"github.com/gorilla/websocket"
)

// CloseUnauthorized is the close code sent when the handshake fails
// verification. No protocol interaction happens after it.
const CloseUnauthorized = 4401

// Handler upgrades "GET /ws/{user_id}?token=..." requests and hands the
// authenticated connection to the dispatcher. The claimed identity in the
// path must match the identity the token was minted for, after normalization;
// otherwise the socket is closed with CloseUnauthorized and never registered.
type Handler struct {
	upgrader       websocket.Upgrader
	auth           services.IAuthService
	dispatcher     *runtime.Dispatcher
	writeTimeout   time.Duration
	maxMessageSize int64
	log            *slog.Logger
}

func NewHandler(
	auth services.IAuthService,
	dispatcher *runtime.Dispatcher,
	writeTimeout time.Duration,
	maxMessageSize int64,
	log *slog.Logger,
) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The browser client connects from a different origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		auth:           auth,
		dispatcher:     dispatcher,
		writeTimeout:   writeTimeout,
		maxMessageSize: maxMessageSize,
		log:            log,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claimed := chat.NormalizeIdentity(r.PathValue("user_id"))
	token := r.URL.Query().Get("token")

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	verified, ok := h.auth.VerifyToken(token)
	if !ok || claimed == "" || verified != claimed {
		h.log.Warn("unauthorized handshake", "claimed", claimed)
		deadline := time.Now().Add(h.writeTimeout)
		message := websocket.FormatCloseMessage(CloseUnauthorized, "unauthorized")
		_ = ws.WriteControl(websocket.CloseMessage, message, deadline)
		_ = ws.Close()
		return
	}

	ws.SetReadLimit(h.maxMessageSize)
	conn := NewConn(ws, h.writeTimeout)
	defer conn.Close()
	h.dispatcher.Run(claimed, conn)
}
