package http

import (
	"github.com/EternisAI/dockpanel/internal/api/http/handler"
	"github.com/EternisAI/dockpanel/internal/api/http/middleware"
	"github.com/EternisAI/dockpanel/internal/apierror"
	"github.com/EternisAI/dockpanel/internal/auth"
	"github.com/EternisAI/dockpanel/internal/containers"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Guard      *auth.Guard
	Daemon     handler.InfoProvider
	Catalog    *containers.Catalog
	Controller *containers.Controller
	Mapper     *apierror.Mapper
}

// SetupRoute registers the API. Login is the only route reachable without a
// token.
func SetupRoute(engine *gin.Engine, srvs *Services) {
	engine.Use(middleware.RequestLogger())

	authHandler := handler.NewAuthHandler(srvs.Guard)
	engine.POST("/auth/login", authHandler.Login)

	protected := engine.Group("/", middleware.JWTAuth(srvs.Guard))

	systemHandler := handler.NewSystemHandler(srvs.Daemon, srvs.Mapper)
	protected.GET("/", systemHandler.Hello)
	protected.GET("/docker_info", systemHandler.DockerInfo)

	containersHandler := handler.NewContainersHandler(srvs.Catalog, srvs.Controller, srvs.Mapper)
	protected.GET("/containers", containersHandler.ListContainers)
	protected.POST("/container/:id/start", containersHandler.StartContainer)
	protected.POST("/container/:id/stop", containersHandler.StopContainer)
	protected.POST("/container/:id/restart", containersHandler.RestartContainer)
}
