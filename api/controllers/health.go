package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/vidora/vidora-backend/api/responses"
	"github.com/vidora/vidora-backend/pkg/config"
	pkgerrors "github.com/vidora/vidora-backend/pkg/errors"
	"github.com/vidora/vidora-backend/pkg/logger"
)

const (
	envHeader          = "X-Vidora-Env"
	readinessTimeout   = 3 * time.Second
	readinessStatusOK  = "ok"
	readinessStatusErr = "unavailable"
)

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency. Any failure answers 503 with the
// per-dependency status in the details.
func HealthReady(cfg *config.Config, deps map[string]Pinger, logg *logger.Logger) http.HandlerFunc {
	names := make([]string, 0, len(deps))
	for name, dep := range deps {
		if dep != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		status := make(map[string]string, len(names))
		healthy := true
		for _, name := range names {
			if err := deps[name].Ping(ctx); err != nil {
				healthy = false
				status[name] = readinessStatusErr
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{"dependency": name, "error": err.Error()}), "health.dependency_unavailable")
				}
				continue
			}
			status[name] = readinessStatusOK
		}

		if !healthy {
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeUpstreamUnavailable, "dependencies unavailable").WithDetails(status))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "dependencies": status})
	}
}
