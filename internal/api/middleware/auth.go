package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Males-For-Females-llc/dapps/internal/api/httperrors"
	"github.com/Males-For-Females-llc/dapps/internal/auth"
	"github.com/Males-For-Females-llc/dapps/internal/types"
	"github.com/Males-For-Females-llc/dapps/internal/util"
)

const walletAddressContextKey = "wallet_address"

// Auth 校验 Bearer Token 并把钱包地址写入请求上下文
func Auth(jwtManager *auth.JWTManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return httperrors.NewHTTPError(http.StatusUnauthorized, types.PublicHTTPErrorTypeGeneric, "missing bearer token")
			}

			claims, err := jwtManager.Validate(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				util.LogFromEchoContext(c).Debug().Err(err).Msg("Rejected invalid token")
				return httperrors.NewHTTPError(http.StatusUnauthorized, types.PublicHTTPErrorTypeGeneric, "invalid token")
			}

			c.Set(walletAddressContextKey, claims.WalletAddress)
			return next(c)
		}
	}
}

// WalletAddress 读取鉴权中间件写入的钱包地址
func WalletAddress(c echo.Context) string {
	address, _ := c.Get(walletAddressContextKey).(string)
	return address
}
