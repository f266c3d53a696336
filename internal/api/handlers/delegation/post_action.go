package delegation

import (
	"net/http"

	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"

	"github.com/Males-For-Females-llc/dapps/internal/api"
	"github.com/Males-For-Females-llc/dapps/internal/api/httperrors"
	"github.com/Males-For-Females-llc/dapps/internal/types"
	"github.com/Males-For-Females-llc/dapps/internal/util"
)

func PostActionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Session.POST("/actions", postActionHandler(s))
}

func postActionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.PostActionPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		controller, err := ownerController(s, c)
		if err != nil {
			return err
		}

		// 提交前重新求值，让过期会话在签名前就被拒绝
		if _, err := controller.Evaluate(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to evaluate session before action")
			return httperrors.FromDelegateError(err)
		}

		receipt, err := controller.SendAction(ctx, swag.StringValue(body.Action), []byte(body.Payload))
		if err != nil {
			log.Warn().Err(err).Str("action", swag.StringValue(body.Action)).Msg("Failed to send action")
			return httperrors.FromDelegateError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.ActionResponse{
			TxHash:      swag.String(receipt.TxHash),
			BlockNumber: int64(receipt.BlockNumber),
			Timestamp:   strfmt.DateTime(receipt.Timestamp),
		})
	}
}
