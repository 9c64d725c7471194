package middleware

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/hris-approval-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit throttles callers to rate (e.g. "60-M"). Authenticated callers
// are keyed by user id, anonymous ones by client IP.
func RateLimit(rate string) (func(http.Handler) http.Handler, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", rate, err)
	}

	instance := limiter.New(memory.NewStore(), parsed, limiter.WithTrustForwardHeader(true))

	mw := stdlib.NewMiddleware(instance,
		stdlib.WithKeyGetter(func(r *http.Request) string {
			_, claims, _ := jwtauth.FromContext(r.Context())
			if userID, ok := claims["user_id"].(string); ok && userID != "" {
				return "user:" + userID
			}
			return "ip:" + instance.GetIPKey(r)
		}),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			response.TooManyRequests(w, "Rate limit exceeded")
		}),
	)

	return mw.Handler, nil
}
