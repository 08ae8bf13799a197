package handler

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"taskboard/internal/errors"
)

// MessageResponse is a plain confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewErrorHandler renders every error returned by a handler or middleware as
// an errors.ErrorResponse. Server side failures are logged; their cause is
// only exposed in the detail field when dev is true.
func NewErrorHandler(logger *zap.Logger, dev bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorResponse(err, dev)
		if status >= http.StatusInternalServerError {
			req := c.Request()
			logger.Error("request failed",
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.Error(err),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Warn("write error response", zap.Error(err))
		}
	}
}

func errorResponse(err error, dev bool) (int, errors.ErrorResponse) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		httpErr := errors.MapErrorToHTTP(appErr)
		resp := httpErr.ToErrorResponse()
		if dev && appErr.Err != nil {
			resp.Detail = appErr.Err.Error()
		}
		return httpErr.StatusCode, resp
	}

	var he *echo.HTTPError
	if stderrors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		resp := errors.ErrorResponse{Error: msg, Code: codeForStatus(he.Code)}
		if he.Code >= http.StatusInternalServerError {
			resp.Error = "internal server error"
		}
		if dev && he.Internal != nil {
			resp.Detail = he.Internal.Error()
		}
		return he.Code, resp
	}

	resp := errors.MapErrorToHTTP(err).ToErrorResponse()
	if dev {
		resp.Detail = err.Error()
	}
	return http.StatusInternalServerError, resp
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "VALIDATION_ERROR"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusUnsupportedMediaType:
		return "UNSUPPORTED_MEDIA_TYPE"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	}
	if status >= http.StatusInternalServerError {
		return "INTERNAL_ERROR"
	}
	return "HTTP_ERROR"
}

// invalidBody is returned when a request body cannot be decoded.
func invalidBody(err error) error {
	return &errors.AppError{Kind: errors.KindValidation, Message: "invalid request body", Err: err}
}
