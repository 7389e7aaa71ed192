package ws

import (
	"context"
	"net/http"
	"ridehailgo/internal/observability"
	"ridehailgo/internal/services/identity"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must be < pongWait
	maxMessageSize = 4096
)

type WsServer struct {
	hub         *Hub
	coordinator *Coordinator
	identitySvc identity.IIdentityService
	upgrader    websocket.Upgrader
}

func NewWsServer(hub *Hub, coordinator *Coordinator, identitySvc identity.IIdentityService) *WsServer {
	return &WsServer{
		hub:         hub,
		coordinator: coordinator,
		identitySvc: identitySvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true }, // dev-only
		},
	}
}

// ---------------------------------------------------------------------------
//  Public: Gin entry-points
// ---------------------------------------------------------------------------

func (s *WsServer) HandleRider(ginCtx *gin.Context) {
	s.handle(ginCtx, RoleRider, riderHandler{co: s.coordinator})
}

func (s *WsServer) HandleDriver(ginCtx *gin.Context) {
	s.handle(ginCtx, RoleDriver, driverHandler{co: s.coordinator})
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) handle(ginCtx *gin.Context, role Role, handler connHandler) {
	// The connection is accepted either way; a missing or stale token just
	// means an anonymous session with no subscriptions.
	user := s.resolveUser(ginCtx)

	rawConn, err := s.upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.upgrade", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(maxMessageSize)

	sess := newSession(&clientConn{rawConn: rawConn}, user, role)

	if err := handler.onConnect(ginCtx.Request.Context(), sess); err != nil {
		zap.L().Warn("ws.connect", zap.String("role", string(role)), zap.Error(err))
	}

	observability.ConnectionsActive.WithLabelValues(string(role)).Inc()
	done := make(chan struct{})
	go s.reader(sess, handler, done)
	go s.pinger(sess.conn, done)
}

func (s *WsServer) resolveUser(ginCtx *gin.Context) *identity.UserDTO {
	token := ginCtx.Query("token")
	if token == "" {
		auth := ginCtx.GetHeader("Authorization")
		token = strings.TrimPrefix(auth, "Token ")
	}
	if token == "" {
		return nil
	}
	user, err := s.identitySvc.ResolveToken(ginCtx.Request.Context(), token)
	if err != nil {
		zap.L().Debug("ws.token", zap.Error(err))
		return nil
	}
	return user
}

// reader is the connection's single sequential execution unit: one inbound
// message is fully processed before the next is read.
func (s *WsServer) reader(sess *session, handler connHandler, done chan<- struct{}) {
	conn := sess.conn
	defer func() {
		close(done)
		handler.onDisconnect(sess)
		conn.close()
		observability.ConnectionsActive.WithLabelValues(string(sess.role)).Dec()
	}()

	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.rawConn.ReadMessage()
		if err != nil {
			return // client closed or errored
		}
		observability.MessagesTotal.WithLabelValues(string(sess.role)).Inc()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = handler.onMessage(ctx, sess, data)
		cancel()

		// Failures stay local to the sending connection.
		if err != nil {
			_ = conn.writeJSON(ErrorBody{Error: err.Error()})
		}
	}
}

// pinger keeps the connection alive until the reader signals teardown via
// done; it does not outlive the connection.
func (s *WsServer) pinger(conn *clientConn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.write(websocket.PingMessage, nil); err != nil {
				conn.close()
				return
			}
		}
	}
}
