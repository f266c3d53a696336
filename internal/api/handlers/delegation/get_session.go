package delegation

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Males-For-Females-llc/dapps/internal/api"
	"github.com/Males-For-Females-llc/dapps/internal/api/httperrors"
	"github.com/Males-For-Females-llc/dapps/internal/util"
)

func GetSessionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Session.GET("", getSessionHandler(s))
}

func getSessionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		controller, err := ownerController(s, c)
		if err != nil {
			return err
		}

		snapshot, err := controller.Evaluate(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to evaluate session")
			return httperrors.FromDelegateError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, sessionResponse(snapshot))
	}
}
