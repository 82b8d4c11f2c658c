// Package health serves liveness and database readiness endpoints.
package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/auth"
	"github.com/ovaphlow/pitchfork/service-engine-oil/pkg/utilities"
)

const version = "1.0.0"

// Pinger is satisfied by *sql.DB and *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	db      Pinger
	env     string
	started time.Time
	timeout time.Duration
	logger  *zap.SugaredLogger
}

func NewHandler(logger *zap.SugaredLogger, db Pinger, env string) *Handler {
	return &Handler{db: db, env: env, started: time.Now(), timeout: 2 * time.Second, logger: logger}
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

func (h *Handler) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.db.PingContext(ctx)
}

// System reports service, authentication and database status. The caller
// is identified when optional authentication resolved a principal.
func (h *Handler) System(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	dbStatus := "connected"
	if err := h.ping(r.Context()); err != nil {
		h.logger.Warnw("database ping failed", "err", err)
		dbStatus = "disconnected"
	}

	p, authenticated := auth.PrincipalFromContext(r.Context())
	request := map[string]any{
		"hasAuthCookies":  auth.HasAuthCookies(r),
		"isAuthenticated": authenticated,
		"tokenSource":     nil,
		"user":            nil,
	}
	if authenticated {
		request["tokenSource"] = auth.SourceFromContext(r.Context())
		request["user"] = map[string]string{"id": p.ID, "username": p.Username}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	utilities.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "System health check completed",
		"data": map[string]any{
			"status":      "healthy",
			"timestamp":   now(),
			"uptime":      time.Since(h.started).Seconds(),
			"version":     version,
			"environment": h.env,
			"services": map[string]any{
				"api": map[string]any{
					"status":       "online",
					"responseTime": time.Since(start).Milliseconds(),
				},
				"authentication": map[string]any{
					"status":         "online",
					"cookieSupport":  true,
					"headerFallback": true,
				},
				"database": map[string]any{
					"status": dbStatus,
					"type":   "postgresql",
				},
			},
			"request": request,
			"memory": map[string]any{
				"used":  mem.HeapAlloc / 1024 / 1024,
				"total": mem.HeapSys / 1024 / 1024,
				"unit":  "MB",
			},
		},
	})
}

// Simple is a load-balancer check with no dependencies.
func (h *Handler) Simple(w http.ResponseWriter, r *http.Request) {
	utilities.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "timestamp": now()})
}

func (h *Handler) Database(w http.ResponseWriter, r *http.Request) {
	if err := h.ping(r.Context()); err != nil {
		h.logger.Errorw("database health check failed", "err", err)
		utilities.WriteJSON(w, http.StatusInternalServerError, map[string]any{
			"success":   false,
			"status":    "unhealthy",
			"message":   "Database connection failed",
			"error":     "DATABASE_CONNECTION_ERROR",
			"timestamp": now(),
		})
		return
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  "healthy",
		"message": "Database connection is healthy",
		"database": map[string]string{
			"type":   "postgresql",
			"status": "connected",
		},
		"timestamp": now(),
	})
}
