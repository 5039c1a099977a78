package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/weaveworks/common/logging"
	"github.com/weaveworks/common/user"

	"github.com/objexa/service/common"
	"github.com/objexa/service/portal/sessions"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var websocketsActive = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: common.PrometheusNamespace,
	Name:      "portal_websockets_active",
	Help:      "Verification status websockets currently open.",
})

func init() {
	prometheus.MustRegister(websocketsActive)
}

func (a *API) verification(v *sessions.Visitor, w http.ResponseWriter, r *http.Request) {
	status, session := a.flow.Verification(r.Context(), v)
	a.respond(w, r, v, session, status)
}

func (a *API) resendVerification(v *sessions.Visitor, w http.ResponseWriter, r *http.Request) {
	status, err := a.flow.Resend(r.Context(), v)
	if err != nil {
		renderError(w, r, err)
		return
	}
	a.respond(w, r, v, nil, status)
}

func (a *API) cancelVerification(v *sessions.Visitor, w http.ResponseWriter, r *http.Request) {
	status := a.flow.CancelVerification(r.Context(), v)
	a.respond(w, r, v, nil, status)
}

func (a *API) teardown(v *sessions.Visitor, w http.ResponseWriter, r *http.Request) {
	a.flow.Teardown(v)
	a.respond(w, r, v, nil, nil)
}

func (a *API) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || a.origin == "" {
				return true
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false
			}
			site, err := url.Parse(a.origin)
			return err == nil && u.Host == site.Host
		},
	}
}

// watchVerification streams status snapshots until the page goes away. The
// session itself is only handed out by the verification endpoint, which can
// set the cookie.
func (a *API) watchVerification(v *sessions.Visitor, w http.ResponseWriter, r *http.Request) {
	logger := user.LogWith(r.Context(), logging.Global())
	c, err := a.upgrader().Upgrade(w, r, nil)
	if err != nil {
		logger.Debugf("cannot upgrade websocket: %v", err)
		return
	}
	defer c.Close()
	websocketsActive.Inc()
	defer websocketsActive.Dec()

	updates, cancel := a.flow.Watch(v)
	defer cancel()

	closed := make(chan struct{})
	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				close(closed)
				return
			}
		}
	}()

	c.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.WriteJSON(a.flow.VerificationStatus(v)); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case s, ok := <-updates:
			if !ok {
				c.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteJSON(s); err != nil {
				logger.Debugf("cannot write to websocket: %v", err)
				return
			}
		case <-ticker.C:
			if err := c.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
