package http

import (
	"net"
	"net/http"
	"strings"

	"github.com/weaveworks/common/logging"
	"github.com/weaveworks/common/user"
)

// HostFromRequest is the client's address. Behind our ingress that is the
// first X-Forwarded-For entry; otherwise the host part of RemoteAddr.
func HostFromRequest(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		user.LogWith(r.Context(), logging.Global()).Errorf("Error splitting '%s': %v", r.RemoteAddr, err)
		return r.RemoteAddr
	}
	return host
}
