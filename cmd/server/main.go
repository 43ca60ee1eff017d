// Copyright 2026 The Yaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yaasproject/yaas/internal/audit"
	"github.com/yaasproject/yaas/internal/config"
	"github.com/yaasproject/yaas/internal/identity"
	"github.com/yaasproject/yaas/internal/oauth"
	"github.com/yaasproject/yaas/internal/observability/logger"
	"github.com/yaasproject/yaas/internal/observability/metrics"
	"github.com/yaasproject/yaas/internal/observability/tracing"
	"github.com/yaasproject/yaas/internal/org"
	"github.com/yaasproject/yaas/internal/password"
	"github.com/yaasproject/yaas/internal/store/postgres"
	transportHTTP "github.com/yaasproject/yaas/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting yaas identity backend")

	ctx := context.Background()

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
		os.Exit(1)
	}
	counters, err := meter.NewAuthCounters()
	if err != nil {
		slog.Error("failed to create counters", logger.Error(err))
		os.Exit(1)
	}

	db, err := postgres.New(ctx, postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	userRepo := postgres.NewUserRepository(db)
	orgRepo := postgres.NewOrgRepository(db)
	memberRepo := postgres.NewMembershipRepository(db)
	appRepo := postgres.NewAppRepository(db)
	codeRepo := postgres.NewCodeRepository(db)
	bootstrapRepo := postgres.NewBootstrapRepository(db)

	auditLogger := audit.NewSlogLogger()
	hasher := password.NewHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)

	identityService := identity.NewService(
		userRepo,
		orgRepo,
		memberRepo,
		hasher,
		cfg.Security.JWTSecret,
		auditLogger,
	)
	oauthService := oauth.NewService(appRepo, codeRepo, auditLogger, cfg.Security.CodeLifetime)
	orgService := org.NewService(orgRepo, memberRepo, auditLogger)

	bootstrapper := identity.NewBootstrapper(bootstrapRepo, hasher, auditLogger, "Superuser")
	if _, err := bootstrapper.EnsureSetupKey(ctx); err != nil {
		slog.Error("failed to prepare superuser setup", logger.Error(err))
		os.Exit(1)
	}

	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	defer rateLimiter.Stop()

	handler := transportHTTP.NewHandler(
		identityService,
		oauthService,
		orgService,
		bootstrapper,
		counters,
		cfg.Security.JWTSecret,
	)
	router := transportHTTP.NewRouter(handler, rateLimiter)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Sweep expired authorization codes in the background.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			n, err := codeRepo.DeleteExpired(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "failed to sweep expired codes", logger.Error(err))
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "swept expired authorization codes", slog.Int64("count", n))
			}
		}
	}()

	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", logger.Error(err))
		os.Exit(1)
	}

	slog.Info("server stopped")
}
