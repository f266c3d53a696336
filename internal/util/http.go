package util

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Validatable 可自校验的请求负载
type Validatable interface {
	Validate() error
}

// BindAndValidateBody binds the request body into v and runs its Validate
// method when implemented. Returns an echo HTTPError on failure so handlers
// can return it directly.
func BindAndValidateBody(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	if validatable, ok := v.(Validatable); ok {
		if err := validatable.Validate(); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	return nil
}

// ValidateAndReturn validates the response payload when possible and writes
// it as JSON with the given status code.
func ValidateAndReturn(c echo.Context, code int, v interface{}) error {
	if validatable, ok := v.(Validatable); ok {
		if err := validatable.Validate(); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "invalid response payload")
		}
	}

	return c.JSON(code, v)
}
