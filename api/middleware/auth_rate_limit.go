package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/foodhaul-backend/api/responses"
	"github.com/angelmondragon/foodhaul-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
)

// maxIdentityPeek bounds how much of a login or register body is buffered to find the account.
const maxIdentityPeek = 16 << 10

type windowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy throttles one family of auth endpoints. The admin, vendor, customer and
// delivery logins share the "login" policy, so switching surfaces does not reset the counters.
type AuthRateLimitPolicy struct {
	Name         string
	Window       time.Duration
	IPLimit      int
	AccountLimit int
}

// LoginRateLimit is the policy for every role's login route.
func LoginRateLimit(cfg config.AuthRateLimitConfig) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{Name: "login", Window: cfg.LoginWindow, IPLimit: cfg.LoginIPLimit, AccountLimit: cfg.LoginEmailLimit}
}

// RegisterRateLimit is the policy for customer and delivery partner sign-up.
func RegisterRateLimit(cfg config.AuthRateLimitConfig) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{Name: "register", Window: cfg.RegisterWindow, IPLimit: cfg.RegisterIPLimit, AccountLimit: cfg.RegisterEmailLimit}
}

func (p AuthRateLimitPolicy) active() bool {
	return p.Window > 0 && (p.IPLimit > 0 || p.AccountLimit > 0)
}

func (p AuthRateLimitPolicy) scope(kind, value string) string {
	name := strings.ToLower(strings.TrimSpace(p.Name))
	if name == "" {
		name = "auth"
	}
	return kind + ":" + name + ":" + value
}

// AuthRateLimit counts attempts per client IP and per account (email, else phone) in fixed
// windows and answers 429 with Retry-After once either counter passes its limit.
func AuthRateLimit(policy AuthRateLimitPolicy, limiter windowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.active() || limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if ip := clientIP(r); policy.IPLimit > 0 && ip != "" {
				if !checkWindow(ctx, w, logg, limiter, policy, "ip", ip, policy.IPLimit) {
					return
				}
			}

			if policy.AccountLimit > 0 {
				account, err := peekAccount(r)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
					return
				}
				if account != "" && !checkWindow(ctx, w, logg, limiter, policy, "acct", hashAccount(account), policy.AccountLimit) {
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func checkWindow(ctx context.Context, w http.ResponseWriter, logg *logger.Logger, limiter windowLimiter, policy AuthRateLimitPolicy, kind, value string, limit int) bool {
	allowed, count, err := limiter.FixedWindowAllow(ctx, policy.scope(kind, value), int64(limit), policy.Window)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
		return false
	}
	if allowed {
		return true
	}
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"policy":   policy.Name,
			"kind":     kind,
			"attempts": count,
			"limit":    limit,
		}), "auth.rate_limited")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(policy.Window.Round(time.Second).Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
	return false
}

// peekAccount reads the head of the body for the account identity and restores the stream for
// the next handler.
func peekAccount(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}
	head, err := io.ReadAll(io.LimitReader(r.Body, maxIdentityPeek))
	if err != nil {
		return "", err
	}
	r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(head), r.Body), Closer: r.Body}

	var body struct {
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if json.Unmarshal(head, &body) != nil {
		return "", nil
	}
	if email := strings.ToLower(strings.TrimSpace(body.Email)); email != "" {
		return "email:" + email, nil
	}
	if phone := strings.TrimSpace(body.Phone); phone != "" {
		return "phone:" + phone, nil
	}
	return "", nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

func hashAccount(account string) string {
	sum := sha256.Sum256([]byte(account))
	return hex.EncodeToString(sum[:16])
}

// clientIP prefers the first parseable X-Forwarded-For hop, then X-Real-IP, then the peer.
func clientIP(r *http.Request) string {
	for _, hop := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := net.ParseIP(strings.TrimSpace(hop)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
