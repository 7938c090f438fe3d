package skyagent

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/saaga0h/jeeves-sky/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// asHTTPError maps an error to its response. AppError codes pick the status.
func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}

	if code := apperrors.CodeOf(err); code != "" {
		return &HTTPError{
			Status:  statusForCode(code),
			Code:    code,
			Message: err.Error(),
			Err:     err,
		}
	}

	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

func statusForCode(code string) int {
	switch code {
	case apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.CodeUnknownLocation:
		return http.StatusNotFound
	case apperrors.CodeProviderError, apperrors.CodeArchiveError:
		return http.StatusBadGateway
	case apperrors.CodeArchiveDisabled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
