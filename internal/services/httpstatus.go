package services

import (
	"errors"
	"net/http"

	waerrors "waconsole/pkg/errors"
)

// HTTPStatus maps service errors onto response codes.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, waerrors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, waerrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, waerrors.ErrAlreadyExists), errors.Is(err, waerrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, waerrors.ErrProviderRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, waerrors.ErrProviderUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, waerrors.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
