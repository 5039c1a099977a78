package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objexa/service/mailer/api"
	"github.com/objexa/service/portal/confirm"
)

type recordingEmailer struct {
	demos  []confirm.DemoConfirmation
	resets []confirm.ResetConfirmation
	err    error
}

func (r *recordingEmailer) DemoConfirmation(_ context.Context, c confirm.DemoConfirmation) error {
	r.demos = append(r.demos, c)
	return r.err
}

func (r *recordingEmailer) PasswordResetConfirmation(_ context.Context, c confirm.ResetConfirmation) error {
	r.resets = append(r.resets, c)
	return r.err
}

func request(t *testing.T, a http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.RemoteAddr = "203.0.113.9:4000"
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.ServeHTTP(w, r)
	var resp map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestSendDemoConfirmation(t *testing.T) {
	em := &recordingEmailer{}
	a := api.New(api.Config{AuthTokens: []string{"secret"}}, em)

	w, resp := request(t, a, "POST", "/send-demo-confirmation", "secret",
		`{"name":"Jane","email":"jane@clinic.test","phone":"4155552671","practice_name":"Bright Smiles"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"success": true}, resp)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, []confirm.DemoConfirmation{{
		Name:         "Jane",
		Email:        "jane@clinic.test",
		Phone:        "4155552671",
		PracticeName: "Bright Smiles",
	}}, em.demos)
}

func TestSendPasswordResetConfirmation(t *testing.T) {
	em := &recordingEmailer{}
	a := api.New(api.Config{}, em)

	w, _ := request(t, a, "POST", "/send-password-reset-confirmation", "", `{"email":"jane@clinic.test"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []confirm.ResetConfirmation{{Email: "jane@clinic.test"}}, em.resets)
}

func TestPreflight(t *testing.T) {
	a := api.New(api.Config{AuthTokens: []string{"secret"}}, &recordingEmailer{})

	w, _ := request(t, a, "OPTIONS", "/send-demo-confirmation", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestUnauthorized(t *testing.T) {
	em := &recordingEmailer{}
	a := api.New(api.Config{AuthTokens: []string{"secret"}}, em)

	for _, token := range []string{"", "wrong"} {
		w, resp := request(t, a, "POST", "/send-password-reset-confirmation", token, `{"email":"jane@clinic.test"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthorized", resp["error"])
	}
	assert.Empty(t, em.resets)
}

func TestFailures(t *testing.T) {
	em := &recordingEmailer{err: assert.AnError}
	a := api.New(api.Config{}, em)

	w, resp := request(t, a, "POST", "/send-demo-confirmation", "", `{"email":"jane@clinic.test"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, assert.AnError.Error(), resp["error"])

	w, resp = request(t, a, "POST", "/send-demo-confirmation", "", `{"name":"Jane"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "email is required", resp["error"])

	w, _ = request(t, a, "POST", "/send-demo-confirmation", "", `not json`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRateLimit(t *testing.T) {
	em := &recordingEmailer{}
	a := api.New(api.Config{RateLimit: 0.001, RateBurst: 2}, em)

	for i := 0; i < 2; i++ {
		w, _ := request(t, a, "POST", "/send-password-reset-confirmation", "", `{"email":"jane@clinic.test"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w, resp := request(t, a, "POST", "/send-password-reset-confirmation", "", `{"email":"jane@clinic.test"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests", resp["error"])
	assert.Len(t, em.resets, 2)
}
