// Package app wires configuration into a runnable service: gateway, stores,
// engine and HTTP API.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/parkpro/assistant/internal/booking"
	"github.com/parkpro/assistant/internal/config"
	"github.com/parkpro/assistant/internal/dialogue"
	"github.com/parkpro/assistant/internal/gateway"
	"github.com/parkpro/assistant/internal/httpapi"
	"github.com/parkpro/assistant/internal/memory"
	"github.com/parkpro/assistant/internal/observability"
	"github.com/parkpro/assistant/internal/personality"
	"github.com/parkpro/assistant/internal/session"
)

type BuildResult struct {
	Config   config.Config
	API      *httpapi.Server
	Sessions *session.Store
	Engine   *dialogue.Engine
	Metrics  *observability.Metrics

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config, log *zap.Logger) (*BuildResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	archive, err := memory.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("memory store init failed: %w", err)
	}

	var gw gateway.Gateway
	if strings.TrimSpace(cfg.BackendBaseURL) == "" {
		log.Info("no backend configured, using mock gateway")
		gw = gateway.NewMock()
	} else {
		gw = gateway.NewHTTP(cfg.BackendBaseURL, cfg.BackendTimeout, log)
	}

	sessions := session.NewStore(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ *session.Session) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.Len()))
	})

	machine := booking.New(gw, time.Now, log)
	persona := personality.New(cfg.PersonalityEnabled, cfg.PersonalitySeed)
	engine := dialogue.New(sessions, gw, machine, archive, persona, metrics, log)

	api := httpapi.New(cfg, engine, sessions, metrics, log)

	cleanup := func() error {
		return archive.Close()
	}

	return &BuildResult{
		Config:   cfg,
		API:      api,
		Sessions: sessions,
		Engine:   engine,
		Metrics:  metrics,
		Cleanup:  cleanup,
	}, nil
}
