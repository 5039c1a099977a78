package render

import (
	"encoding/json"
	"net/http"

	"github.com/weaveworks/common/logging"
)

// JSON renders a value as a JSON response with the given status code.
func JSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Global().Errorf("Error encoding response: %v", err)
	}
}
