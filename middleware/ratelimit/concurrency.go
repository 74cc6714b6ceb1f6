package ratelimit

import (
	"net/http"
	"time"

	"leaderboard-service/middleware/ratelimit/application"
	"leaderboard-service/middleware/ratelimit/infra"
)

// ConcurrencyOptions limita quantas requisições ficam em voo ao mesmo tempo.
// Max <= 0 desliga o limite.
type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	RejectMessage  string
	AcquireTimeout time.Duration
}

func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	if opts.RejectMessage == "" {
		opts.RejectMessage = "Server busy. Try again shortly."
	}

	svc := application.ConcurrencyService{
		Pool:           infra.NewChanPool(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Acquire(r.Context())
			if !ok {
				writeReject(w, opts.RejectStatus, opts.RejectMessage)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
