package api

import (
	"encoding/json"
	"flag"
	"net/http"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/weaveworks/common/logging"
	"github.com/weaveworks/common/user"
	"golang.org/x/time/rate"

	"github.com/objexa/service/common"
	commonhttp "github.com/objexa/service/common/http"
	"github.com/objexa/service/common/render"
	"github.com/objexa/service/mailer/emailer"
)

var requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: common.PrometheusNamespace,
	Subsystem: "mailer",
	Name:      "requests_total",
	Help:      "Email function requests, by function and outcome.",
}, []string{"function", "outcome"})

func init() {
	prometheus.MustRegister(requestsTotal)
}

// Config for the mailer API.
type Config struct {
	AuthTokens common.ArrayFlags
	RateLimit  float64
	RateBurst  int
	CacheSize  int
}

// RegisterFlags sets up config for the mailer API.
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	f.Var(&cfg.AuthTokens, "auth-token", "Bearer token callers must present. Repeatable. None disables the check.")
	f.Float64Var(&cfg.RateLimit, "rate-limit", 1, "Requests per second allowed from each client host. 0 disables limiting.")
	f.IntVar(&cfg.RateBurst, "rate-burst", 5, "Burst of requests allowed from each client host")
	f.IntVar(&cfg.CacheSize, "rate-limit.hosts", 1024, "Number of client hosts to track for rate limiting")
}

// API implements the email functions.
type API struct {
	emailer  emailer.Emailer
	tokens   map[string]struct{}
	limiters gcache.Cache
	http.Handler
}

// New creates a new API
func New(cfg Config, em emailer.Emailer) *API {
	tokens := map[string]struct{}{}
	for _, t := range cfg.AuthTokens {
		tokens[t] = struct{}{}
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = 1024
	}
	a := &API{
		emailer: em,
		tokens:  tokens,
		limiters: gcache.New(size).LRU().Expiration(10 * time.Minute).
			LoaderFunc(func(interface{}) (interface{}, error) {
				if cfg.RateLimit <= 0 {
					return rate.NewLimiter(rate.Inf, 0), nil
				}
				return rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst), nil
			}).Build(),
	}
	r := mux.NewRouter()
	a.RegisterRoutes(r)
	a.Handler = r
	return a
}

// RegisterRoutes registers the mailer HTTP routes to the provided Router.
func (a *API) RegisterRoutes(r *mux.Router) {
	for _, route := range []struct {
		name, path string
		handler    http.HandlerFunc
	}{
		{"send_demo_confirmation", "/send-demo-confirmation", a.function("send-demo-confirmation", a.demoConfirmation)},
		{"send_password_reset_confirmation", "/send-password-reset-confirmation", a.function("send-password-reset-confirmation", a.passwordResetConfirmation)},
	} {
		r.Handle(route.path, route.handler).Methods("POST", "OPTIONS").Name(route.name)
	}
}

type response struct {
	Success bool   `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// function wraps an email function with the CORS, auth and rate limit checks
// every function shares.
func (a *API) function(name string, send func(*http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == "OPTIONS" {
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.WriteHeader(http.StatusOK)
			return
		}

		logger := user.LogWith(r.Context(), logging.Global())
		if !a.authorized(r) {
			requestsTotal.WithLabelValues(name, "unauthorized").Inc()
			render.JSON(w, http.StatusUnauthorized, response{Error: "Unauthorized"})
			return
		}
		if !a.allow(r) {
			requestsTotal.WithLabelValues(name, "limited").Inc()
			render.JSON(w, http.StatusTooManyRequests, response{Error: "Too many requests"})
			return
		}
		if err := send(r); err != nil {
			logger.Errorf("Error sending email: %v", err)
			requestsTotal.WithLabelValues(name, "error").Inc()
			render.JSON(w, http.StatusInternalServerError, response{Error: err.Error()})
			return
		}
		requestsTotal.WithLabelValues(name, "success").Inc()
		render.JSON(w, http.StatusOK, response{Success: true})
	}
}

// authorized checks the bearer token. No configured tokens means no check.
func (a *API) authorized(r *http.Request) bool {
	if len(a.tokens) == 0 {
		return true
	}
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return false
	}
	_, ok := a.tokens[strings.TrimPrefix(header, "Bearer ")]
	return ok
}

func (a *API) allow(r *http.Request) bool {
	v, err := a.limiters.Get(commonhttp.HostFromRequest(r))
	if err != nil {
		return true
	}
	return v.(*rate.Limiter).Allow()
}

func decode(r *http.Request, dest interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dest)
}
