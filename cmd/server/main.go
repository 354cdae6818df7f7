// Command server runs the CollegeNetwork identity and onboarding API.
//
// Wiring only: stores are chosen from the environment (in-memory by default,
// PostgreSQL and Redis when configured), then services, transport, and the
// server lifecycle are assembled. Business logic lives in internal packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	accountstore "collegenet/internal/account/store"
	authservice "collegenet/internal/auth"
	collegeservice "collegenet/internal/college/service"
	collegestore "collegenet/internal/college/store"
	"collegenet/internal/notify"
	"collegenet/internal/onboarding"
	otpservice "collegenet/internal/otp/service"
	otpstore "collegenet/internal/otp/store"
	"collegenet/internal/platform/config"
	"collegenet/internal/platform/httpserver"
	"collegenet/internal/platform/logger"
	"collegenet/internal/platform/metrics"
	platformredis "collegenet/internal/platform/redis"
	"collegenet/internal/token"
	httptransport "collegenet/internal/transport/http"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Stores. In-memory is the default so the server runs with zero infra;
	// DATABASE_URL and REDIS_URL upgrade persistence piecewise.
	var (
		colleges collegestore.CollegeStore = collegestore.NewInMemoryCollegeStore()
		pending  collegestore.PendingStore = collegestore.NewInMemoryPendingStore()
		accounts accountstore.Store        = accountstore.NewInMemoryStore()
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		colleges = collegestore.NewPostgresCollegeStore(pool)
		pending = collegestore.NewPostgresPendingStore(pool)
		accounts = accountstore.NewPostgresStore(pool)
		log.Info("using postgres stores")
	}

	var codes otpstore.Store
	memoryCodes := otpstore.NewInMemoryStore()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		codes = otpstore.NewRedisStore(redisClient)
		log.Info("using redis otp store")
	} else {
		codes = memoryCodes
	}

	var notifier notify.Notifier
	if cfg.SMTP.Host != "" {
		notifier = notify.NewSMTPNotifier(cfg.SMTP)
		log.Info("using smtp notifier", "host", cfg.SMTP.Host)
	} else {
		notifier = notify.LogNotifier{Logger: log}
		log.Warn("SMTP not configured, codes will be logged instead of mailed")
	}

	tokens, err := token.New(cfg.JWTSigningKey, "collegenet", cfg.SessionTTL)
	if err != nil {
		log.Error("failed to build token service", "error", err)
		os.Exit(1)
	}

	collegeSvc := collegeservice.New(colleges, pending,
		collegeservice.WithNotifier(notifier),
		collegeservice.WithLogger(log),
		collegeservice.WithMetrics(m),
	)
	ledger := otpservice.New(codes, notifier,
		otpservice.WithTTL(cfg.OTPTTL),
		otpservice.WithLogger(log),
		otpservice.WithMetrics(m),
	)
	onboardingSvc := onboarding.New(collegeSvc, ledger, accounts, tokens,
		onboarding.WithLogger(log),
		onboarding.WithMetrics(m),
	)
	authSvc := authservice.New(accounts, ledger, tokens, authservice.WithLogger(log))

	router := httptransport.NewRouter(httptransport.Deps{
		Colleges:   collegeSvc,
		Onboarding: onboardingSvc,
		Auth:       authSvc,
		Validator:  token.MiddlewareAdapter{Service: tokens},
		Logger:     log,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if redisClient == nil {
		// Redis expires keys on its own; the in-memory store needs a janitor.
		g.Go(func() error {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case now := <-ticker.C:
					if removed := memoryCodes.Sweep(now); removed > 0 {
						log.Debug("swept expired codes", "removed", removed)
					}
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
