package httperrors

import (
	"fmt"
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"

	"github.com/Males-For-Females-llc/dapps/internal/delegate/session"
	"github.com/Males-For-Females-llc/dapps/internal/types"
)

// HTTPError 携带对外负载的 HTTP 错误
type HTTPError struct {
	types.PublicHTTPError
	Internal error `json:"-"`
}

// NewHTTPError 创建 HTTP 错误
func NewHTTPError(code int, errType, title string) *HTTPError {
	return &HTTPError{
		PublicHTTPError: types.PublicHTTPError{
			Code:  swag.Int64(int64(code)),
			Type:  swag.String(errType),
			Title: swag.String(title),
		},
	}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTPError %d (%s): %s", swag.Int64Value(e.Code), swag.StringValue(e.Type), swag.StringValue(e.Title))
}

// FromDelegateError 将委托域错误映射为 HTTP 错误
func FromDelegateError(err error) *HTTPError {
	var domainErr *session.Error
	if !session.AsError(err, &domainErr) {
		if session.IsInvalidTransition(err) {
			return NewHTTPError(http.StatusConflict, types.PublicHTTPErrorTypeInvalidTransition, "operation is not legal in the current session state")
		}
		return NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "delegation operation failed")
	}

	switch domainErr.Type {
	case session.ErrTypeInvalidRequest:
		return NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeInvalidRequest, domainErr.Message)
	case session.ErrTypeSessionBusy:
		return NewHTTPError(http.StatusConflict, types.PublicHTTPErrorTypeSessionBusy, domainErr.Message)
	case session.ErrTypeKeyLost:
		return NewHTTPError(http.StatusConflict, types.PublicHTTPErrorTypeKeyLost, domainErr.Message)
	case session.ErrTypeInsufficientVoucher:
		return NewHTTPError(http.StatusPaymentRequired, types.PublicHTTPErrorTypeInsufficientFunds, domainErr.Message)
	case session.ErrTypeInconsistentState:
		return NewHTTPError(http.StatusConflict, types.PublicHTTPErrorTypeInconsistentState, domainErr.Message)
	case session.ErrTypeAuthorization:
		return NewHTTPError(http.StatusBadGateway, types.PublicHTTPErrorTypeGeneric, domainErr.Message)
	default:
		return NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, domainErr.Message)
	}
}

// HandlerFunc 渲染 HTTPError 的 echo 错误处理器
func ErrorHandler(hideInternalDetails bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var httpErr *HTTPError
		switch e := err.(type) {
		case *HTTPError:
			httpErr = e
		case *echo.HTTPError:
			title := http.StatusText(e.Code)
			if msg, ok := e.Message.(string); ok && !hideInternalDetails {
				title = msg
			}
			httpErr = NewHTTPError(e.Code, types.PublicHTTPErrorTypeGeneric, title)
		default:
			title := "Internal Server Error"
			if !hideInternalDetails {
				title = err.Error()
			}
			httpErr = NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, title)
		}

		if writeErr := c.JSON(int(swag.Int64Value(httpErr.Code)), httpErr.PublicHTTPError); writeErr != nil {
			c.Logger().Error(writeErr)
		}
	}
}
