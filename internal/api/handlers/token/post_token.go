package token

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Males-For-Females-llc/dapps/internal/api"
	"github.com/Males-For-Females-llc/dapps/internal/api/httperrors"
	"github.com/Males-For-Females-llc/dapps/internal/types"
	"github.com/Males-For-Females-llc/dapps/internal/util"
)

// PostTokenPayload 令牌签发请求
type PostTokenPayload struct {
	WalletAddress *string `json:"wallet_address"`
}

// Validate 校验请求负载
func (p *PostTokenPayload) Validate() error {
	if swag.StringValue(p.WalletAddress) == "" {
		return errors.New("wallet_address is required")
	}
	return nil
}

func PostTokenRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Auth.POST("/token", postTokenHandler(s))
}

// postTokenHandler 为钱包地址签发会话令牌。
// TODO: 生产部署应改为钱包签名挑战换取令牌，而不是直接信任地址。
func postTokenHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body PostTokenPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		if s.Config.Auth.JWTSecret == "" {
			return httperrors.NewHTTPError(http.StatusServiceUnavailable, types.PublicHTTPErrorTypeGeneric, "token issuance is not configured")
		}

		tokenString, err := s.JWT.Generate(swag.StringValue(body.WalletAddress))
		if err != nil {
			util.LogFromEchoContext(c).Error().Err(err).Msg("Failed to generate token")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "failed to generate token")
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.GetTokenResponse{Token: swag.String(tokenString)})
	}
}
