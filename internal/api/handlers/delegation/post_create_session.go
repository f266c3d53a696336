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

func PostCreateSessionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Session.POST("", postCreateSessionHandler(s))
}

func postCreateSessionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.PostCreateSessionPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		controller, err := ownerController(s, c)
		if err != nil {
			return err
		}

		actions := body.AllowedActions
		if len(actions) == 0 {
			actions = s.Config.Delegate.AllowedActions
		}

		duration := time.Duration(body.DurationSeconds) * time.Second

		if _, err := controller.Create(ctx, actions, duration); err != nil {
			log.Warn().Err(err).Msg("Failed to create session")
			return httperrors.FromDelegateError(err)
		}

		return util.ValidateAndReturn(c, http.StatusCreated, sessionResponse(controller.Snapshot()))
	}
}
