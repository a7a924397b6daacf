package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
)

type callerSlot struct {
	userID string
}

func noteCaller(ctx context.Context, userID string) {
	if slot, ok := ctx.Value(ctxCaller).(*callerSlot); ok {
		slot.userID = userID
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) code() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"method": r.Method,
					"path":   r.URL.Path,
				})
			}

			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			// Auth runs deeper in the chain and records the caller in this slot.
			caller := &callerSlot{}
			next.ServeHTTP(rec, r.WithContext(context.WithValue(ctx, ctxCaller, caller)))

			if logg != nil {
				fields := map[string]any{
					"status":      rec.code(),
					"duration_ms": time.Since(start).Milliseconds(),
				}
				if caller.userID != "" {
					fields["user_id"] = caller.userID
				}
				ctx = logg.WithFields(ctx, fields)
				logg.Info(ctx, "request.complete")
			}
		})
	}
}
