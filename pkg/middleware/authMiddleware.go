package middleware

import (
	"net/http"
	"time"

	"spark-client/pkg/metrics"

	"go.uber.org/zap"
)

// TokenSource yields the current bearer token, if any.
type TokenSource interface {
	Token() (string, bool)
}

// Bearer adds "Authorization: Bearer <token>" to every request while the
// session holds a token. Requests without a session go out unchanged.
type Bearer struct {
	Tokens TokenSource
	Next   http.RoundTripper
}

func (b *Bearer) RoundTrip(r *http.Request) (*http.Response, error) {
	token, ok := b.Tokens.Token()
	if !ok || r.Header.Get("Authorization") != "" {
		return next(b.Next).RoundTrip(r)
	}

	// RoundTrippers must not modify the caller's request
	clone := r.Clone(r.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return next(b.Next).RoundTrip(clone)
}

// Logging records every request with its status and duration, and counts it.
type Logging struct {
	Log  *zap.Logger
	Next http.RoundTripper
}

func (l *Logging) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := next(l.Next).RoundTrip(r)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	metrics.APIRequests.WithLabelValues(r.Method, metrics.StatusClass(status)).Inc()

	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Duration("took", time.Since(start)),
	}
	if err != nil {
		l.Log.Debug("request failed", append(fields, zap.Error(err))...)
	} else {
		l.Log.Debug("request", fields...)
	}
	return resp, err
}

func next(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		return http.DefaultTransport
	}
	return rt
}

// Chain builds the client transport: logging, then bearer auth, then base.
func Chain(tokens TokenSource, log *zap.Logger, base http.RoundTripper) http.RoundTripper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logging{Log: log, Next: &Bearer{Tokens: tokens, Next: base}}
}
