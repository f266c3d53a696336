package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/Males-For-Females-llc/dapps/internal/api"
	"github.com/Males-For-Females-llc/dapps/internal/api/handlers/delegation"
	"github.com/Males-For-Females-llc/dapps/internal/api/handlers/mgmt"
	"github.com/Males-For-Females-llc/dapps/internal/api/handlers/token"
)

// AttachAllRoutes 注册全部路由
func AttachAllRoutes(s *api.Server) []*echo.Route {
	return []*echo.Route{
		mgmt.GetHealthyRoute(s),
		mgmt.GetReadyRoute(s),
		mgmt.GetMetricsRoute(s),

		token.PostTokenRoute(s),

		delegation.PostCreateSessionRoute(s),
		delegation.PostRenewSessionRoute(s),
		delegation.DeleteSessionRoute(s),
		delegation.GetSessionRoute(s),
		delegation.GetBalanceRoute(s),
		delegation.PostActionRoute(s),
	}
}
