package delegation

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Males-For-Females-llc/dapps/internal/api"
	"github.com/Males-For-Females-llc/dapps/internal/api/httperrors"
	"github.com/Males-For-Females-llc/dapps/internal/types"
	"github.com/Males-For-Females-llc/dapps/internal/util"
)

func PostRenewSessionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Session.POST("/renew", postRenewSessionHandler(s))
}

func postRenewSessionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.PostRenewSessionPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		controller, err := ownerController(s, c)
		if err != nil {
			return err
		}

		// 续期前重新求值：过期是随读取发生的时间迁移
		if _, err := controller.Evaluate(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to evaluate session before renewal")
			return httperrors.FromDelegateError(err)
		}

		duration := time.Duration(body.DurationSeconds) * time.Second

		if _, err := controller.Renew(ctx, duration); err != nil {
			log.Warn().Err(err).Msg("Failed to renew session")
			return httperrors.FromDelegateError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, sessionResponse(controller.Snapshot()))
	}
}
