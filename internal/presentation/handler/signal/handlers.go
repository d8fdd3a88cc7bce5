package signal

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/virtualclassroom/backend/internal/infrastructure/configs"
	"github.com/virtualclassroom/backend/internal/infrastructure/json"
	"github.com/virtualclassroom/backend/internal/infrastructure/logging"
	"github.com/virtualclassroom/backend/internal/infrastructure/security"
	"github.com/virtualclassroom/backend/internal/presentation/utils"
	"github.com/virtualclassroom/backend/internal/relay"
)

type Handler struct {
	relay        *relay.Relay
	tokenManager *security.TokenManager
	cfg          configs.RelayConfig
	logger       logging.Logger
	upgrader     websocket.Upgrader
}

func NewHandler(
	rel *relay.Relay,
	tokenManager *security.TokenManager,
	cfg configs.RelayConfig,
	allowedOrigins []string,
	logger logging.Logger,
) *Handler {
	return &Handler{
		relay:        rel,
		tokenManager: tokenManager,
		cfg:          cfg,
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// ConnectHandler godoc
// @Summary      Open a signaling connection
// @Description  Upgrades to WebSocket; the client then drives room membership and SDP/ICE exchange over the socket
// @Tags         signal
// @Success      101 {object} map[string]interface{} "Switching Protocols"
// @Failure      400 {object} map[string]interface{} "Bad request - not a websocket handshake"
// @Failure      401 {object} map[string]interface{} "Unauthorized - connect token required"
// @Router       /signal [get]
func (h *Handler) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	if h.cfg.RequireToken {
		token := utils.ExtractBearerToken(r)
		if token == "" || h.tokenManager.Verify(token) != nil {
			json.WriteUnauthorizedError(w, "A valid connect token is required")
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Warn(logging.Signaling, logging.Join, "websocket upgrade failed", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	client := relay.NewClient(conn, uuid.NewString(), relay.Options{
		SendBuffer:      h.cfg.SendBuffer,
		MaxMessageBytes: h.cfg.MaxMessageBytes,
		PongTimeout:     h.cfg.PongTimeout,
		PingInterval:    h.cfg.PingInterval,
	})

	h.relay.Attach(client)

	go client.WritePump()
	go client.ReadPump(h.relay)
}

func originChecker(allowed []string) func(*http.Request) bool {
	allowAll := len(allowed) == 0
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			allowAll = true
		}
		set[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		if allowAll {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
