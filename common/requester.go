package common

import (
	"context"
	"net/http"
	"time"

	"github.com/opentracing-contrib/go-stdlib/nethttp"
	"github.com/opentracing/opentracing-go"
	"github.com/weaveworks/common/http/client"
)

type contextKey int

const bearerTokenKey contextKey = 0

// WithBearerToken attaches a token which HeaderRequester sends as
// `Authorization: Bearer <token>`, overriding any static Authorization header.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenKey, token)
}

// BearerToken returns the token attached with WithBearerToken.
func BearerToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerTokenKey).(string)
	return token, ok && token != ""
}

// HeaderRequester sets static headers on every request before handing it on.
type HeaderRequester struct {
	next    client.Requester
	headers http.Header
}

// NewHeaderRequester wraps next so each request carries headers.
func NewHeaderRequester(next client.Requester, headers http.Header) *HeaderRequester {
	return &HeaderRequester{next: next, headers: headers}
}

// Do implements client.Requester.
func (h *HeaderRequester) Do(r *http.Request) (*http.Response, error) {
	for k, vs := range h.headers {
		r.Header.Del(k)
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	if token, ok := BearerToken(r.Context()); ok {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return h.next.Do(r)
}

// TracingRequester puts each request in a client span. The underlying
// http.Client must use a *nethttp.Transport for the span to be recorded.
type TracingRequester struct {
	next client.Requester
}

// NewTracingRequester wraps next with request tracing.
func NewTracingRequester(next client.Requester) *TracingRequester {
	return &TracingRequester{next: next}
}

// Do implements client.Requester.
func (t *TracingRequester) Do(r *http.Request) (*http.Response, error) {
	r, ht := nethttp.TraceRequest(opentracing.GlobalTracer(), r)
	defer ht.Finish()
	return t.next.Do(r)
}

// NewTracedHTTPClient is an http.Client whose requests can be traced with
// TracingRequester.
func NewTracedHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &nethttp.Transport{},
	}
}
