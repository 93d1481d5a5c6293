package controllers

import (
	"net/http"

	"github.com/aferreira-dev/socialio-backend/api/responses"
	"github.com/aferreira-dev/socialio-backend/pkg/config"
	"github.com/aferreira-dev/socialio-backend/pkg/db"
	pkgerrors "github.com/aferreira-dev/socialio-backend/pkg/errors"
	"github.com/aferreira-dev/socialio-backend/pkg/logger"
	"github.com/aferreira-dev/socialio-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Socialio-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the primary store and the fast store before reporting
// readiness.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Socialio-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				checks["database"] = "down"
				healthy = false
			} else {
				checks["database"] = "up"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				checks["redis"] = "down"
				healthy = false
			} else {
				checks["redis"] = "up"
			}
		}

		if !healthy {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(checks)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
