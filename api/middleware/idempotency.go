package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/vapevault-backend/api/responses"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/vapevault-backend/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"

	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
	inFlightTTL            = 2 * time.Minute
)

// idempotentRoutes lists the writes that require an Idempotency-Key. Checkout
// keys live longest since a duplicate order is the costliest replay.
var idempotentRoutes = []struct {
	method string
	match  func(path string) bool
	ttl    time.Duration
}{
	{http.MethodPost, exact("/api/v1/checkout"), criticalIdempotencyTTL},
	{http.MethodPost, wrapped("/api/v1/products/", "/reviews"), defaultIdempotencyTTL},
	{http.MethodPost, exact("/api/admin/v1/products"), defaultIdempotencyTTL},
	{http.MethodPost, wrapped("/api/admin/v1/", "/batch"), defaultIdempotencyTTL},
}

type storedResponse struct {
	InFlight    bool   `json:"in_flight,omitempty"`
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency replays the first response recorded for a caller's key. A
// repeat with a different body is rejected, as is one that arrives while the
// first is still running. 5xx responses are not kept so the client can retry.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := routeTTL(r.Method, routePattern(r))
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}
			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(strings.NewReader(string(body)))

			hash := requestHash(r.Method, body)
			key := store.IdempotencyKey(idempotencyScope(r), clientKey)

			claimed, prior, err := claimKey(ctx, store, key, hash)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if !claimed {
				replay(ctx, logg, w, prior, hash)
				return
			}

			rec := newRecorder(w, true)
			next.ServeHTTP(rec, r)

			if rec.Status() >= http.StatusInternalServerError {
				if err := store.Del(ctx, key); err != nil {
					logWarn(ctx, logg, "idempotency.release_failed", err)
				}
				return
			}
			done := storedResponse{
				RequestHash: hash,
				Status:      rec.Status(),
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.capture.Bytes(),
			}
			if err := save(ctx, store, key, done, ttl); err != nil {
				logWarn(ctx, logg, "idempotency.persist_failed", err)
			}
		})
	}
}

// claimKey marks key as in flight. When another request already owns it the
// stored record is returned instead.
func claimKey(ctx context.Context, store pkgredis.IdempotencyStore, key, hash string) (bool, *storedResponse, error) {
	existing, err := load(ctx, store, key)
	if err != nil || existing != nil {
		return false, existing, err
	}
	payload, err := json.Marshal(storedResponse{InFlight: true, RequestHash: hash})
	if err != nil {
		return false, nil, err
	}
	ok, err := store.SetNX(ctx, key, string(payload), inFlightTTL)
	if err != nil {
		return false, nil, err
	}
	if ok {
		return true, nil, nil
	}
	existing, err = load(ctx, store, key)
	if err == nil && existing == nil {
		existing = &storedResponse{InFlight: true, RequestHash: hash}
	}
	return false, existing, err
}

func replay(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, prior *storedResponse, hash string) {
	switch {
	case prior.RequestHash != hash:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case prior.InFlight:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is still in progress"))
	default:
		if prior.ContentType != "" {
			w.Header().Set("Content-Type", prior.ContentType)
		}
		w.Header().Set(replayedHeader, "true")
		w.WriteHeader(prior.Status)
		_, _ = w.Write(prior.Body)
	}
}

func load(ctx context.Context, store pkgredis.IdempotencyStore, key string) (*storedResponse, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) || (err == nil && raw == "") {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec storedResponse
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// save overwrites the in-flight marker with the finished response; the key
// stays claimed throughout.
func save(ctx context.Context, store pkgredis.IdempotencyStore, key string, rec storedResponse, ttl time.Duration) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, string(payload), ttl)
}

// idempotencyScope keys are per caller and per concrete path, so the same
// client key may be reused across different products or batches.
func idempotencyScope(r *http.Request) string {
	return strings.Join([]string{UserIDFromContext(r.Context()), r.Method, r.URL.Path}, "|")
}

func requestHash(method string, body []byte) string {
	sum := sha256.New()
	sum.Write([]byte(method))
	sum.Write([]byte{0})
	sum.Write(body)
	return hex.EncodeToString(sum.Sum(nil))
}

// routePattern returns the matched chi pattern, or the raw path while a
// sub-router has not resolved its route yet.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" && !strings.HasSuffix(pattern, "*") {
			return pattern
		}
	}
	return r.URL.Path
}

func routeTTL(method, path string) (time.Duration, bool) {
	if path == "" {
		return 0, false
	}
	for _, route := range idempotentRoutes {
		if route.method == method && route.match(path) {
			return route.ttl, true
		}
	}
	return 0, false
}

func exact(path string) func(string) bool {
	return func(p string) bool { return p == path }
}

func wrapped(prefix, suffix string) func(string) bool {
	return func(p string) bool {
		return len(p) > len(prefix)+len(suffix) && strings.HasPrefix(p, prefix) && strings.HasSuffix(p, suffix)
	}
}

func logWarn(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil {
		return
	}
	logg.Warn(logg.WithField(ctx, "error", err.Error()), msg)
}
