package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/DevAniketIT/Playbharat/internal/config"
	s3infra "github.com/DevAniketIT/Playbharat/internal/infra/s3"
	"github.com/DevAniketIT/Playbharat/internal/jobs/sweep"
	pgrepo "github.com/DevAniketIT/Playbharat/internal/repo/postgres"
	redrepo "github.com/DevAniketIT/Playbharat/internal/repo/redis"
	adminauthsvc "github.com/DevAniketIT/Playbharat/internal/services/adminauth"
	auditsvc "github.com/DevAniketIT/Playbharat/internal/services/audit"
	ratesvc "github.com/DevAniketIT/Playbharat/internal/services/rate"
	statsvc "github.com/DevAniketIT/Playbharat/internal/services/stats"
	strikesvc "github.com/DevAniketIT/Playbharat/internal/services/strikes"
	suspsvc "github.com/DevAniketIT/Playbharat/internal/services/suspensions"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *s3infra.Client
	scheduler  *cron.Cron
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	var s3Client *s3infra.Client
	if cfg.Moderation.ArchiveEnabled {
		c, err := s3infra.NewClient(s3infra.Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err == nil {
			err = c.EnsureBucket(ctx)
		}
		if err != nil {
			log.Warn("s3 init failed, audit archive disabled", zap.Error(err))
		} else {
			s3Client = c
		}
	}

	runner := pgrepo.NewTxRunner(pool)
	userRepo := pgrepo.NewUserRepo(pool)
	channelRepo := pgrepo.NewChannelRepo(pool)
	strikeRepo := pgrepo.NewStrikeRepo(pool)
	suspensionRepo := pgrepo.NewSuspensionRepo(pool)
	actionRepo := pgrepo.NewAdminActionRepo(pool)
	statsRepo := pgrepo.NewStatsRepo(pool)
	countCache := redrepo.NewStrikeCountRepo(redisClient, cfg.Moderation.CountCacheTTL)
	rateLimiter := ratesvc.NewLimiter(redrepo.NewRateRepo(redisClient),
		cfg.Moderation.ActionsPerMinute, cfg.Moderation.ActionsPerHour)

	policy := cfg.Moderation.Policy()
	tokenManager := adminauthsvc.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	strikeService := strikesvc.NewService(strikesvc.Dependencies{
		Runner:      runner,
		Users:       userRepo,
		Strikes:     strikeRepo,
		Channels:    channelRepo,
		Suspensions: suspensionRepo,
		Audit:       actionRepo,
		Cache:       countCache,
	}, policy)
	suspensionService := suspsvc.NewService(suspsvc.Dependencies{
		Runner:      runner,
		Users:       userRepo,
		Channels:    channelRepo,
		Suspensions: suspensionRepo,
		Strikes:     strikeRepo,
		Audit:       actionRepo,
	}, policy)
	var uploader auditsvc.Uploader
	if s3Client != nil {
		uploader = s3Client
	}
	auditService := auditsvc.NewService(actionRepo, uploader, auditsvc.ArchiveConfig{
		Prefix: cfg.Moderation.ArchivePrefix,
	})
	statsService := statsvc.NewService(statsRepo, strikeRepo, actionRepo)

	scheduler := cron.New()
	sweepJob := sweep.NewJob(strikeService, suspensionService, cfg.Moderation.SweepActorID, log)
	if cfg.Moderation.SweepSchedule != "" {
		_, err := scheduler.AddFunc(cfg.Moderation.SweepSchedule, func() {
			if err := sweepJob.Run(context.Background()); err != nil {
				log.Error("moderation sweep failed", zap.Error(err))
			}
		})
		if err != nil {
			return nil, fmt.Errorf("schedule sweep %q: %w", cfg.Moderation.SweepSchedule, err)
		}
	}

	RegisterRoutes(r, Dependencies{
		TokenManager:      tokenManager,
		UserRepo:          userRepo,
		StrikeService:     strikeService,
		SuspensionService: suspensionService,
		AuditService:      auditService,
		StatsService:      statsService,
		RateLimiter:       rateLimiter,
		ArchiveBucket:     cfg.S3.Bucket,
		Logger:            log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		scheduler:  scheduler,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.scheduler.Start()
	a.logger.Info("moderation api started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	cronCtx := a.scheduler.Stop()
	select {
	case <-cronCtx.Done():
	case <-ctx.Done():
	}

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
