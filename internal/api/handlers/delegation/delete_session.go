package delegation

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Males-For-Females-llc/dapps/internal/api"
	"github.com/Males-For-Females-llc/dapps/internal/api/httperrors"
	"github.com/Males-For-Females-llc/dapps/internal/util"
)

func DeleteSessionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Session.DELETE("", deleteSessionHandler(s))
}

func deleteSessionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		controller, err := ownerController(s, c)
		if err != nil {
			return err
		}

		if _, err := controller.Evaluate(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to evaluate session before revocation")
			return httperrors.FromDelegateError(err)
		}

		if err := controller.Revoke(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to revoke session")
			return httperrors.FromDelegateError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, sessionResponse(controller.Snapshot()))
	}
}
