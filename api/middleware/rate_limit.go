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

	"github.com/angelmondragon/vapevault-backend/api/responses"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
)

// WindowCounter counts hits per scope in fixed windows.
type WindowCounter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy throttles one traffic surface by client IP and, for
// credential endpoints, by the email in the JSON body.
type RateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
	storefront bool
}

// NewRateLimitPolicy returns a policy; a zero limit disables that dimension.
func NewRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) RateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "default"
	}
	return RateLimitPolicy{name: name, window: window, ipLimit: ipLimit, emailLimit: emailLimit}
}

// WithStorefrontErrors answers rejections with the flat {error} body.
func (p RateLimitPolicy) WithStorefrontErrors() RateLimitPolicy {
	p.storefront = true
	return p
}

func (p RateLimitPolicy) active() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

type limitCheck struct {
	dimension string
	value     string
	limit     int
}

func (p RateLimitPolicy) checks(r *http.Request) ([]limitCheck, error) {
	var out []limitCheck
	if p.ipLimit > 0 {
		if ip := clientIP(r); ip != "" {
			out = append(out, limitCheck{"ip", ip, p.ipLimit})
		}
	}
	if p.emailLimit > 0 {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		if email := emailFromBody(body); email != "" {
			sum := sha256.Sum256([]byte(email))
			out = append(out, limitCheck{"email", hex.EncodeToString(sum[:]), p.emailLimit})
		}
	}
	return out, nil
}

// RateLimit rejects requests once any dimension of policy exceeds its limit
// inside the current window.
func RateLimit(policy RateLimitPolicy, counter WindowCounter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.active() || counter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			checks, err := policy.checks(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			for _, c := range checks {
				scope := c.dimension + ":" + policy.name + ":" + c.value
				ok, hits, err := counter.FixedWindowAllow(ctx, scope, int64(c.limit), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !ok {
					policy.reject(ctx, logg, w, c, hits)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (p RateLimitPolicy) reject(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, c limitCheck, hits int64) {
	if logg != nil {
		key := c.dimension
		if c.dimension == "email" {
			key = "email_hash"
		}
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"policy":   p.name,
			"scope":    c.dimension,
			key:        c.value,
			"attempts": hits,
			"limit":    c.limit,
		}), "rate_limit.blocked")
	}

	w.Header().Set("Retry-After", strconv.Itoa(int(p.window.Round(time.Second)/time.Second)))
	err := pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded")
	if p.storefront {
		responses.WriteStorefrontError(ctx, nil, w, err, "Too many requests")
		return
	}
	responses.WriteError(ctx, nil, w, err)
}

// clientIP trusts the first X-Forwarded-For hop, then X-Real-IP, then the
// socket address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func emailFromBody(body []byte) string {
	var payload struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(payload.Email))
}
