package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/autoorder/internal/server/http/handlers"
	"github.com/polkiloo/autoorder/internal/server/http/middleware"
)

// maxRequestBody caps request bodies after decompression.
const maxRequestBody = 1 << 20

type Params struct {
	fx.In

	Facade handlers.FulfillmentFacade
	Health handlers.HealthChecker
	Logger *slog.Logger
}

// Setup configures gin router with handlers and middleware.
func Setup(p Params) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(p.Logger))
	engine.Use(middleware.DecompressRequest(maxRequestBody))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(p.Facade)
	autoOrderHandler := handlers.NewAutoOrderHandler(p.Facade, p.Facade)
	queueHandler := handlers.NewQueueHandler(p.Facade)
	orderHandler := handlers.NewOrderHandler(p.Facade)
	settingsHandler := handlers.NewSettingsHandler(p.Facade)
	healthHandler := handlers.NewHealthHandler(p.Health)

	engine.GET("/healthz", healthHandler.Check)
	engine.POST("/auto-order-complete", middleware.AuthRequired(p.Facade), autoOrderHandler.Handle)
	engine.POST("/auto-order-queue", middleware.AuthRequired(p.Facade), queueHandler.Handle)

	api := engine.Group("/api")
	user := api.Group("/user")
	user.POST("/register", authHandler.Register)
	user.POST("/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(p.Facade))
	authed.GET("/orders/:id", orderHandler.Get)
	authed.PUT("/suppliers/:supplier/credentials", settingsHandler.ConnectSupplier)
	authed.DELETE("/suppliers/:supplier/credentials", settingsHandler.DisconnectSupplier)
	authed.PUT("/integrations/shopify", settingsHandler.ConnectShopify)

	return engine
}
