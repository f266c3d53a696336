package router

import (
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/Males-For-Females-llc/dapps/internal/api"
	"github.com/Males-For-Females-llc/dapps/internal/api/handlers"
	"github.com/Males-For-Females-llc/dapps/internal/api/httperrors"
	"github.com/Males-For-Females-llc/dapps/internal/api/middleware"
)

// Init 初始化 echo 实例、中间件与路由
func Init(s *api.Server) {
	s.Echo = echo.New()
	s.Echo.Debug = false
	s.Echo.HideBanner = true
	s.Echo.HTTPErrorHandler = httperrors.ErrorHandler(s.Config.Echo.HideInternalServerErrorDetails)

	s.Echo.Use(echoMiddleware.Recover())
	s.Echo.Use(echoMiddleware.RequestID())
	s.Echo.Use(middleware.Logger())

	s.Router = &api.Router{
		Root:         s.Echo.Group(""),
		Management:   s.Echo.Group("/-"),
		APIV1Auth:    s.Echo.Group("/api/v1/auth"),
		APIV1Session: s.Echo.Group("/api/v1/session", middleware.Auth(s.JWT)),
	}

	s.Router.Routes = handlers.AttachAllRoutes(s)
}
