package ratelimit

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/omnipay-inventory/internal/common"
)

// NewIPLimiter builds a fixed-window limiter keyed by client IP. rate uses
// the "<limit>-<period>" format, e.g. "50-S" or "1000-H".
func NewIPLimiter(rdb *redis.Client, rate string, trustForwarded bool) (*limiter.Limiter, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", rate, err)
	}
	store, err := limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: "ratelimit:ip"})
	if err != nil {
		return nil, fmt.Errorf("limiter store: %w", err)
	}
	return limiter.New(store, parsed, limiter.WithTrustForwardHeader(trustForwarded)), nil
}

// IPMiddleware applies l to every request and answers 429 with the JSON
// error envelope once the window is exhausted.
func IPMiddleware(l *limiter.Limiter) func(http.Handler) http.Handler {
	mw := stdlib.NewMiddleware(l,
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, try again later", nil)
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			log.Ctx(r.Context()).Error().Err(err).Msg("ip rate limiter failed")
			common.JSONError(w, http.StatusServiceUnavailable, "RATE_LIMITER_UNAVAILABLE", "service temporarily unavailable", nil)
		}),
	)
	return mw.Handler
}
