package delegation

import (
	"net/http"
	"strconv"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"

	"github.com/Males-For-Females-llc/dapps/internal/api"
	"github.com/Males-For-Females-llc/dapps/internal/api/httperrors"
	"github.com/Males-For-Females-llc/dapps/internal/types"
	"github.com/Males-For-Females-llc/dapps/internal/util"
)

func GetBalanceRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Session.GET("/balance", getBalanceHandler(s))
}

// getBalanceHandler 每次请求都重新读取链上余额：余额会因无关交易变化，
// 客户端从不缓存
func getBalanceHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		controller, err := ownerController(s, c)
		if err != nil {
			return err
		}

		voucher, err := controller.Balance(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to query voucher balance")
			return httperrors.FromDelegateError(err)
		}

		var voucherID string
		var balance uint64
		if voucher != nil {
			voucherID = voucher.ID
			balance = voucher.RemainingBalance
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.BalanceResponse{
			VoucherID: voucherID,
			Raw:       swag.String(strconv.FormatUint(balance, 10)),
			Formatted: swag.String(s.Formatter.Format(balance)),
		})
	}
}
