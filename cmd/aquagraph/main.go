// Package main provides the entrypoint for the AquaGraph server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/aquagraph/aquagraph/internal/api"
	"github.com/aquagraph/aquagraph/internal/api/handler"
	"github.com/aquagraph/aquagraph/internal/api/middleware"
	"github.com/aquagraph/aquagraph/internal/archive"
	"github.com/aquagraph/aquagraph/internal/archive/openmeteo"
	"github.com/aquagraph/aquagraph/internal/auth"
	"github.com/aquagraph/aquagraph/internal/chart"
	"github.com/aquagraph/aquagraph/internal/config"
	"github.com/aquagraph/aquagraph/internal/database"
	"github.com/aquagraph/aquagraph/internal/form"
	"github.com/aquagraph/aquagraph/internal/geo"
	"github.com/aquagraph/aquagraph/internal/history"
	"github.com/aquagraph/aquagraph/internal/i18n"
	"github.com/aquagraph/aquagraph/internal/provider/resilience"
	"github.com/aquagraph/aquagraph/internal/session"
	"github.com/aquagraph/aquagraph/internal/submit"
	"github.com/aquagraph/aquagraph/internal/telemetry"
	"github.com/aquagraph/aquagraph/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "aquagraph"

func main() {
	configDir := flag.String("config", "", "directory holding "+config.DefaultFile)
	mintSubject := flag.String("mint-admin-token", "", "print an admin token for `subject` and exit")
	mintTTL := flag.Duration("admin-token-ttl", auth.AdminTokenExpiry, "lifetime of a minted admin token")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aquagraph: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg)

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: cfg.Auth.SigningKey,
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
	})

	if *mintSubject != "" {
		token, expiresAt, err := jwtService.GenerateAdminToken(*mintSubject, *mintTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to mint admin token")
		}
		fmt.Println(token)
		log.Info().Str("subject", *mintSubject).Time("expires_at", expiresAt).Msg("admin token minted")
		return
	}

	if err := run(cfg, log, jwtService); err != nil {
		log.Fatal().Err(err).Msg("aquagraph stopped with error")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	zerolog.SetGlobalLevel(cfg.LogLevel())

	var log zerolog.Logger
	if cfg.Log.Pretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log = zerolog.New(os.Stdout)
	}
	return log.With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()
}

func run(cfg *config.Config, log zerolog.Logger, jwtService *auth.JWTService) error {
	log.Info().
		Str("build_time", BuildTime).
		Str("environment", cfg.Environment).
		Msg("starting AquaGraph")
	if cfg.UsesDevSigningKey() {
		log.Warn().Msg("using default admin signing key - not secure for production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()
	if cfg.Telemetry.Enabled {
		log.Info().Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	// History: postgres when configured, otherwise a bounded in-memory log.
	var (
		historyRepo history.Repository
		dbPinger    handler.Pinger
	)
	pool, err := database.Connect(ctx, database.Config{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		historyRepo = history.NewInMemoryRepository(cfg.History.Capacity)
		log.Info().Int("capacity", cfg.History.Capacity).Msg("history kept in memory")
	case err != nil:
		return fmt.Errorf("connecting to database: %w", err)
	default:
		defer pool.Close()
		pgRepo := history.NewPostgresRepository(pool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("preparing history schema: %w", err)
		}
		historyRepo = pgRepo
		dbPinger = pool
		log.Info().Msg("database connected")
	}

	localizer, err := i18n.New(cfg.Locale)
	if err != nil {
		return fmt.Errorf("loading translations: %w", err)
	}
	log.Info().Str("locale", localizer.Default().String()).Msg("default language selected")

	var lookup *geo.Dataset
	if cfg.Geo.DatasetFile != "" {
		lookup, err = geo.LoadDataset(cfg.Geo.DatasetFile)
	} else {
		lookup, err = geo.NewEmbeddedDataset()
	}
	if err != nil {
		return fmt.Errorf("loading geo dataset: %w", err)
	}

	// Archive provider behind the resilient client
	providers := resilience.NewRegistry()
	clientCfg := cfg.ArchiveClient(openmeteo.ProviderName)
	clientCfg.UserAgent = serviceName + "/" + Version
	clientCfg.Breaker.Logger = log
	clientCfg.Health = providers

	archiveService := archive.NewService(archive.ServiceConfig{
		Provider: openmeteo.NewClient(openmeteo.ClientConfig{
			BaseURL:    cfg.Archive.BaseURL,
			Timezone:   cfg.Archive.Timezone,
			HTTPClient: resilience.NewClient(clientCfg),
			Logger:     log,
		}),
		Logger:          log,
		CacheTTL:        cfg.Cache.TTL,
		StaleIfErrorTTL: cfg.Cache.StaleIfErrorTTL,
	})

	sessions := session.NewStore(session.StoreConfig{
		IdleTTL:     cfg.Session.IdleTTL,
		MaxSessions: cfg.Session.MaxSessions,
	})
	validator := form.NewValidator(form.ValidatorConfig{
		Localizer:         localizer,
		StrictCoordinates: cfg.Form.StrictCoordinates,
	})
	projector := chart.NewProjector(localizer)

	workflow, err := submit.NewWorkflow(submit.WorkflowConfig{
		Sessions:  sessions,
		Validator: validator,
		Fetcher:   archiveService,
		Localizer: localizer,
		Logger:    log,
		History:   historyRepo,
	})
	if err != nil {
		return fmt.Errorf("creating submit workflow: %w", err)
	}

	// Background jobs
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			log.Error().Err(err).Msg("failed to shutdown scheduler")
		}
	}()

	if _, err := scheduler.NewJob(
		gocron.DurationJob(cfg.Session.SweepInterval),
		gocron.NewTask(func(context.Context) {
			if removed := sessions.Sweep(); removed > 0 {
				log.Debug().Int("removed", removed).Msg("expired sessions swept")
			}
		}),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("session_sweep_job"),
	); err != nil {
		return fmt.Errorf("failed to create session_sweep_job: %w", err)
	}

	// A nil interface, not a typed nil, tells the admin handler prefetch is off.
	var prefetcher worker.Prefetcher
	if cfg.Prefetch.Enabled {
		targets, err := worker.TargetsFromRegions(ctx, lookup, cfg.Geo.Country)
		if err != nil {
			return fmt.Errorf("resolving prefetch targets: %w", err)
		}
		job := worker.NewPrefetchJob(worker.PrefetchJobConfig{
			Config: worker.PrefetchConfig{
				Targets:     targets,
				Days:        cfg.Prefetch.Days,
				Concurrency: cfg.Prefetch.Concurrency,
				Timeout:     cfg.Prefetch.Timeout,
			},
			Logger:  log,
			Fetcher: archiveService,
		})
		prefetcher = job

		if _, err := scheduler.NewJob(
			gocron.DurationJob(cfg.Prefetch.Interval),
			gocron.NewTask(func(ctx context.Context) { job.Run(ctx) }),
			gocron.WithContext(ctx),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithName("archive_prefetch_job"),
		); err != nil {
			return fmt.Errorf("failed to create archive_prefetch_job: %w", err)
		}
		log.Info().
			Int("targets", len(targets)).
			Dur("interval", cfg.Prefetch.Interval).
			Msg("archive prefetch scheduled")
	}
	scheduler.Start()

	if cfg.PubSubEnabled() {
		subscriber, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSub.ProjectID,
			SubscriptionName: cfg.PubSub.Subscription,
			Dispatcher:       worker.NewJobDispatcher(prefetcher, archiveService, log),
			Logger:           log,
		})
		if err != nil {
			return fmt.Errorf("creating pubsub subscriber: %w", err)
		}
		defer func() {
			if err := subscriber.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close pubsub client")
			}
		}()

		go func() {
			if err := subscriber.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub subscriber stopped")
			}
		}()
		log.Info().Str("subscription", cfg.PubSub.Subscription).Msg("job subscriber started")
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		RequireTLS:  cfg.Server.RequireTLS,
		RateLimits: api.RateLimits{
			Standard: cfg.RateLimit.Standard,
			Submit:   cfg.RateLimit.Submit,
			Admin:    cfg.RateLimit.Admin,
		},
		TokenValidator: jwtService,
		Page: handler.NewPageHandler(handler.PageConfig{
			Sessions:     sessions,
			Workflow:     workflow,
			Lookup:       lookup,
			Country:      cfg.Geo.Country,
			Localizer:    localizer,
			Projector:    projector,
			CookieSecure: cfg.Session.CookieSecure,
			SessionTTL:   cfg.Session.IdleTTL,
		}),
		Geo: handler.NewGeoHandler(lookup, cfg.Geo.Country),
		Submission: handler.NewSubmissionHandler(handler.SubmissionConfig{
			Workflow:  workflow,
			Validator: validator,
			Localizer: localizer,
			Projector: projector,
		}),
		History: handler.NewHistoryHandler(historyRepo),
		Ops: handler.NewOpsHandler(handler.OpsConfig{
			Version:   Version,
			BuildTime: BuildTime,
			Database:  dbPinger,
			Providers: providers,
			Cache:     archiveService,
			Sessions:  sessions,
		}),
		Admin: handler.NewAdminHandler(handler.AdminConfig{
			Cache:      archiveService,
			Prefetcher: prefetcher,
			History:    historyRepo,
		}),
	})

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}
