package realtime

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"waste-bin-monitor/pkg/utils"
)

var errUserMismatch = errors.New("token does not belong to the requested user")

// Handler upgrades HTTP requests into hub sessions.
type Handler struct {
	hub      *Hub
	auth     Authenticator
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, auth Authenticator, allowedOrigins []string, log *zap.Logger) *Handler {
	return &Handler{
		hub:  hub,
		auth: auth,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/ws", h.ServeWS)
}

func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(conn, h.hub, h.auth, h.log)
	h.log.Debug("Session connected", zap.String("session_id", client.ID()), zap.String("ip", c.ClientIP()))
	client.run()
}

// JWTAuthenticator verifies register tokens issued by the account service.
type JWTAuthenticator struct {
	Secret string
}

func (a JWTAuthenticator) Authenticate(token string) (string, error) {
	claims, err := utils.ValidateToken(token, a.Secret)
	if err != nil {
		return "", err
	}
	if claims.UserID == "" {
		return "", errors.New("token carries no user id")
	}
	return claims.UserID, nil
}
