package router

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/aircraft"
	aircraftrepo "github.com/ovaphlow/pitchfork/service-engine-oil/internal/aircraft/repo"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/auth"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/config"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/consumption"
	consumptionrepo "github.com/ovaphlow/pitchfork/service-engine-oil/internal/consumption/repo"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/engine"
	enginerepo "github.com/ovaphlow/pitchfork/service-engine-oil/internal/engine/repo"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/health"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-engine-oil/pkg/utilities"
)

// RegisterRoutes wires repositories, services and handlers onto a ServeMux
// and wraps it with the request middleware chain.
func RegisterRoutes(logger *zap.SugaredLogger, cfg *config.Config, db *sqlx.DB) http.Handler {
	mux := http.NewServeMux()

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)
	gate := auth.NewGate(logger, auth.NewExtractor(logger, auth.DefaultCookieNames), verifier)
	authHandler := auth.NewHandler(logger, gate, auth.Cookies{Production: cfg.Production()})

	aircraftStore := aircraftrepo.NewAircraftRepo(db)
	engineStore := enginerepo.NewEngineRepo(db)
	recordStore := consumptionrepo.NewConsumptionRepo(db)
	aggregator := consumption.NewAggregator(logger, consumptionrepo.NewPostgresRateStore(db))

	aircraftHandler := aircraft.NewHandler(logger, aircraft.NewService(logger, aircraftStore, engineStore))
	engineHandler := engine.NewHandler(logger, engine.NewService(logger, engineStore, aircraftStore, recordStore))
	consumptionHandler := consumption.NewHandler(logger,
		consumption.NewService(logger, recordStore, engineStore, aircraftStore, aggregator))
	healthHandler := health.NewHandler(logger, db, cfg.Env)

	// reads need a verified principal; mutations also need two-factor
	read := func(h http.HandlerFunc) http.Handler { return gate.Require(h) }
	write := func(h http.HandlerFunc) http.Handler { return gate.Require(auth.RequireTwoFactor(h)) }

	mux.Handle("GET /metrics", metrics.Handler())

	mux.Handle("GET /api/health", gate.OptionalAuth(http.HandlerFunc(healthHandler.System)))
	mux.HandleFunc("GET /api/health/simple", healthHandler.Simple)
	mux.HandleFunc("GET /api/health/database", healthHandler.Database)

	mux.Handle("/api/auth/", http.StripPrefix("/api/auth", authHandler.Routes()))

	mux.HandleFunc("GET /api", info)
	mux.HandleFunc("GET /api/debug/cookies", debugCookies(cfg.Production()))

	mux.Handle("GET /api/aircraft", read(aircraftHandler.List))
	mux.Handle("GET /api/aircraft/{id}", read(aircraftHandler.Get))
	mux.Handle("POST /api/aircraft", write(aircraftHandler.Create))
	mux.Handle("PATCH /api/aircraft/{id}", write(aircraftHandler.Update))
	mux.Handle("DELETE /api/aircraft/{id}", write(aircraftHandler.Delete))

	mux.Handle("GET /api/engine", read(engineHandler.List))
	mux.Handle("GET /api/engine/{id}", read(engineHandler.Get))
	mux.Handle("GET /api/engine/aircraft/{aircraft_id}", read(engineHandler.ListByAircraft))
	mux.Handle("POST /api/engine", write(engineHandler.Create))
	mux.Handle("PATCH /api/engine/{id}", write(engineHandler.Update))
	mux.Handle("DELETE /api/engine/{id}", write(engineHandler.Delete))

	mux.Handle("GET /api/oil-consumptions", read(consumptionHandler.List))
	mux.Handle("GET /api/oil-consumptions/{id}", read(consumptionHandler.Get))
	mux.Handle("GET /api/oil-consumptions/engine/{engine_id}", read(consumptionHandler.ListByEngine))
	mux.Handle("POST /api/oil-consumptions", write(consumptionHandler.Create))
	mux.Handle("PATCH /api/oil-consumptions/{id}", write(consumptionHandler.Update))
	mux.Handle("DELETE /api/oil-consumptions/{id}", write(consumptionHandler.Delete))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		utilities.WriteError(w, http.StatusNotFound, "Route not found", "")
	})

	var handler http.Handler = mux
	handler = CORSMiddleware(cfg.Server.FrontendURL)(handler)
	handler = SecurityHeadersMiddleware()(handler)
	handler = MetricsMiddleware()(handler)
	handler = LoggingMiddleware(logger)(handler)
	handler = RequestIDMiddleware()(handler)
	return handler
}

func info(w http.ResponseWriter, r *http.Request) {
	utilities.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Aircraft engine oil consumption API",
		"version": "1.0.0",
		"status":  "online",
		"authentication": map[string]any{
			"supported": []string{"HttpOnly Cookies", "Authorization Header"},
			"primary":   "HttpOnly Cookies",
			"fallback":  "Authorization Header",
		},
		"endpoints": map[string]string{
			"auth":            "/api/auth/*",
			"aircraft":        "/api/aircraft/*",
			"engines":         "/api/engine/*",
			"oilConsumptions": "/api/oil-consumptions/*",
		},
	})
}

// debugCookies echoes the request's cookies and auth headers. It answers 404
// in production.
func debugCookies(production bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if production {
			utilities.WriteError(w, http.StatusNotFound, "Not found", "")
			return
		}
		cookies := map[string]string{}
		names := []string{}
		for _, ck := range r.Cookies() {
			cookies[ck.Name] = ck.Value
			names = append(names, ck.Name)
		}
		utilities.WriteJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Debug cookies information",
			"data": map[string]any{
				"cookies": cookies,
				"headers": map[string]string{
					"cookie":        r.Header.Get("Cookie"),
					"authorization": r.Header.Get("Authorization"),
					"user-agent":    r.UserAgent(),
					"origin":        r.Header.Get("Origin"),
					"referer":       r.Referer(),
				},
				"cookieNames": names,
				"hasCookies":  len(names) > 0,
				"timestamp":   time.Now().UTC().Format(time.RFC3339),
			},
		})
	}
}
