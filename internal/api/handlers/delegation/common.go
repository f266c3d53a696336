package delegation

import (
	"net/http"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"

	"github.com/Males-For-Females-llc/dapps/internal/api"
	"github.com/Males-For-Females-llc/dapps/internal/api/httperrors"
	"github.com/Males-For-Females-llc/dapps/internal/api/middleware"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/display"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/session"
	"github.com/Males-For-Females-llc/dapps/internal/types"
)

// ownerController 取出请求方的会话控制器
func ownerController(s *api.Server, c echo.Context) (*session.Controller, error) {
	owner := middleware.WalletAddress(c)
	if owner == "" {
		return nil, httperrors.NewHTTPError(http.StatusUnauthorized, types.PublicHTTPErrorTypeGeneric, "missing wallet address")
	}

	controller, err := s.Sessions.Controller(owner)
	if err != nil {
		return nil, httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "failed to resolve session controller")
	}

	return controller, nil
}

// sessionResponse 把会话快照转成对外视图
func sessionResponse(snapshot *session.Snapshot) *types.SessionResponse {
	resp := &types.SessionResponse{
		State: swag.String(string(snapshot.State)),
	}

	auth := snapshot.Authorization
	if auth == nil {
		return resp
	}

	resp.Mode = string(auth.Mode)
	resp.DelegatedAddress = auth.DelegatedAddress
	resp.TargetProgram = auth.TargetProgram
	resp.AllowedActions = auth.AllowedActions
	resp.ExpiresAt = strfmt.DateTime(auth.ExpiresAt)

	if remaining := auth.ExpiresAt.Sub(snapshot.ChainNow); remaining > 0 {
		resp.RemainingSeconds = int64(remaining / time.Second)
		resp.Countdown = display.SplitRemaining(remaining).String()
	}

	return resp
}
