package render

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/weaveworks/common/logging"
	"github.com/weaveworks/common/user"
)

// WithMetadata is the interface errors should implement if they want to
// include other information when rendered via the API.
type WithMetadata interface {
	Metadata() map[string]interface{}
}

// Error renders a specific error to the API
func Error(w http.ResponseWriter, r *http.Request, err error, errorStatusCode func(error) int) {
	code := errorStatusCode(err)
	logger := user.LogWith(r.Context(), logging.Global())
	if code >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	} else {
		logger.Debugf("%s %s: %v", r.Method, r.URL.Path, err)
	}

	m := map[string]interface{}{}
	errstr := err.Error()
	if code == http.StatusInternalServerError {
		errstr = "An internal server error occurred"
	} else if err, ok := errors.Cause(err).(WithMetadata); ok {
		for k, v := range err.Metadata() {
			m[k] = v
		}
	}

	m["message"] = errstr
	JSON(w, code, map[string][]map[string]interface{}{
		"errors": {m},
	})
}
