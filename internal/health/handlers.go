// Package health exposes the liveness and readiness probes. Readiness means
// both stores of record are reachable: Postgres, which holds the quote tree,
// and Redis, which backs the idempotency and rate-limit middlewares.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/quotesapp/backend-quotes/internal/common"
)

// Checker probes the service's two runtime dependencies.
type Checker interface {
	PingDB(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Handler serves the probe endpoints.
type Handler struct {
	Checker      Checker
	DBTimeout    time.Duration
	RedisTimeout time.Duration
}

// Live answers as long as the process is serving requests.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports per-dependency status and 503s when either store is down,
// so the balancer stops routing quote traffic here.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.Checker == nil {
		common.JSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded"})
		return
	}
	ctx := r.Context()
	checks := map[string]string{
		"postgres": "ok",
		"redis":    "ok",
	}
	if err := h.Checker.PingDB(ctx, h.dbTimeout()); err != nil {
		checks["postgres"] = err.Error()
	}
	if err := h.Checker.PingRedis(ctx, h.redisTimeout()); err != nil {
		checks["redis"] = err.Error()
	}
	status := "ready"
	code := http.StatusOK
	if checks["postgres"] != "ok" || checks["redis"] != "ok" {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, map[string]any{"status": status, "checks": checks})
}

func (h Handler) dbTimeout() time.Duration {
	if h.DBTimeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.DBTimeout
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
