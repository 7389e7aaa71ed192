package http_server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"ridehailgo/internal/http/authhandler"
	"ridehailgo/internal/http/middleware"
	"ridehailgo/internal/http/triphandler"
	"ridehailgo/internal/services/identity"
	"ridehailgo/internal/services/trip"
	"ridehailgo/internal/ws"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type httpServer struct {
	listenPort  uint16
	srv         http.Server
	ln          net.Listener
	tripSvc     trip.ITripService
	identitySvc identity.IIdentityService
	wsSrv       *ws.WsServer
	ctx         context.Context
}

func NewHttpServer(ctx context.Context, listenPort uint16, wsSrv *ws.WsServer,
	tripSvc trip.ITripService, identitySvc identity.IIdentityService) *httpServer {
	return &httpServer{
		listenPort:  listenPort,
		wsSrv:       wsSrv,
		tripSvc:     tripSvc,
		identitySvc: identitySvc,
		ctx:         ctx,
	}
}

func (h *httpServer) Start() error {
	var err error
	listenAddr := fmt.Sprintf(":%d", h.listenPort)
	h.ln, err = net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	routerEngine := h.buildEngine()

	h.srv = http.Server{
		Handler: routerEngine,
	}

	return h.srv.Serve(h.ln)
}

func (h *httpServer) buildEngine() *gin.Engine {
	routerEngine := gin.New()
	routerEngine.Use(ginzap.RecoveryWithZap(zap.L(), true))

	routerEngine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// websocket endpoints, one per role; identity comes from the token, the
	// role from the path.
	routerEngine.GET("/ws/rider", h.wsSrv.HandleRider)
	routerEngine.GET("/ws/driver", h.wsSrv.HandleDriver)

	// REST API
	api := routerEngine.Group("/api")
	authed := routerEngine.Group("/api", middleware.TokenAuth(h.identitySvc))

	ah := authhandler.New(h.identitySvc)
	ah.Register(api, authed)

	th := triphandler.New(h.tripSvc)
	th.Register(authed)

	return routerEngine
}

// Dispose gracefully shuts the HTTP server down.
// It waits up to 10 s for in-flight requests to finish.
func (h *httpServer) Dispose() error {
	ctx, cancel := context.WithTimeout(h.ctx, 10*time.Second)
	defer cancel()

	if err := h.srv.Shutdown(ctx); err != nil {
		zap.L().Error("http_dispose", zap.Error(err))
		return err // e.g. active conns didn't finish in time
	}

	if ctx.Err() == context.DeadlineExceeded {
		zap.L().Error("http_dispose", zap.Error(errors.New("shutdown timed out")))
	}

	return nil
}
