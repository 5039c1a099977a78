package render

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/objexa/service/common/render"
	"github.com/objexa/service/portal"
)

// ErrorStatusCode translates error into HTTP status code.
func ErrorStatusCode(err error) int {
	err = errors.Cause(err)
	switch err {
	case portal.ErrConnection:
		return http.StatusServiceUnavailable
	case portal.ErrSubmissionInFlight:
		return http.StatusConflict
	case portal.ErrNotAuthenticated:
		return http.StatusUnauthorized
	case portal.ErrNoVerification, portal.ErrEmailNotRegistered:
		return http.StatusNotFound
	case portal.ErrEmailLookup:
		return http.StatusBadGateway
	case portal.ErrInvalidFlow:
		return http.StatusBadRequest
	}

	switch e := err.(type) {
	case *portal.ValidationError:
		return http.StatusBadRequest
	case *portal.ProviderError:
		switch e.Kind {
		case portal.KindInvalidCredentials:
			return http.StatusUnauthorized
		case portal.KindUnverified:
			return http.StatusForbidden
		case portal.KindAlreadyRegistered:
			return http.StatusConflict
		case portal.KindNetwork:
			return http.StatusBadGateway
		}
		return http.StatusBadRequest
	case *portal.NetworkError, *portal.PersistenceError:
		return http.StatusBadGateway
	case *portal.CooldownError:
		return http.StatusTooManyRequests
	}

	// Just incase there's something sensitive in the error
	return http.StatusInternalServerError
}

// Error renders err with the portal's status mapping.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	render.Error(w, r, err, ErrorStatusCode)
}
