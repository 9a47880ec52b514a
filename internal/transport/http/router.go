package httptransport

import (
	"log/slog"

	"github.com/ErlanBelekov/timer-trigger/internal/transport/http/handler"
	"github.com/ErlanBelekov/timer-trigger/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

// NewRouter wires the control API. With an empty jwtKey the control routes are
// open, which is only accepted for ENV=local.
func NewRouter(logger *slog.Logger, triggerHandler *handler.TriggerHandler, fireHandler *handler.FireHandler, jwtKey []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	var control []gin.HandlerFunc
	if len(jwtKey) > 0 {
		control = append(control, middleware.Auth(jwtKey))
	}

	t := r.Group("/trigger")
	t.GET("", triggerHandler.Status)

	protected := t.Group("", control...)
	protected.POST("/start", triggerHandler.Start)
	protected.POST("/stop", triggerHandler.Stop)

	fires := r.Group("/fires")
	fires.GET("", fireHandler.List)
	fires.GET("/:id", fireHandler.GetByID)

	return r
}
