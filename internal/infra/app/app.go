package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/port"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/infra/config"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/infra/database"
	kafkainfra "github.com/gauravsharmaer/Authentication-Advanced/internal/infra/kafka"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/infra/logger"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/infra/notify"
	redisinfra "github.com/gauravsharmaer/Authentication-Advanced/internal/infra/redis"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/infra/security"
	postgresrepo "github.com/gauravsharmaer/Authentication-Advanced/internal/repository/postgres"
	redisrepo "github.com/gauravsharmaer/Authentication-Advanced/internal/repository/redis"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/transport/http/middleware"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/transport/http/routes"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/usecase"
)

type Application struct {
	cfg           *config.AppConfig
	engine        *gin.Engine
	logger        *zap.Logger
	pool          *pgxpool.Pool
	redis         *redisinfra.Client
	kafkaProducer *kafkainfra.Producer
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	codec, err := security.NewTokenCodec(security.TokenCodecOptions{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.AccessTokenTTL,
		RefreshTTL:    cfg.JWT.RefreshTokenTTL,
		Issuer:        cfg.JWT.Issuer,
	})
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init token codec: %w", err)
	}

	prefix := cfg.Redis.KeyPrefix
	sessionStore := redisrepo.NewSessionRepository(redisClient.Client(), prefix)
	refreshStore := redisrepo.NewRefreshTokenRepository(redisClient.Client(), prefix)
	csrfStore := redisrepo.NewCSRFRepository(redisClient.Client(), prefix)
	userCache := redisrepo.NewUserCacheRepository(redisClient.Client(), prefix)
	otpStore := redisrepo.NewOTPRepository(redisClient.Client(), prefix)
	registrationStore := redisrepo.NewRegistrationRepository(redisClient.Client(), prefix)
	userRepo := postgresrepo.NewUserRepository(pool)

	var eventPublisher port.EventPublisher
	var kafkaProducer *kafkainfra.Producer
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			kafkaProducer = producer
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka disabled, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	csrfService := usecase.NewCSRFService(csrfStore, cfg.CSRF.TTL, log)
	sessionService := usecase.NewSessionService(sessionStore, codec, csrfService, eventPublisher, cfg.Session.TTL, log)
	rotationService := usecase.NewRotationService(codec, refreshStore, sessionService, log)
	authService := usecase.NewAuthService(usecase.AuthServiceOptions{
		Users:        userRepo,
		Cache:        userCache,
		OTPs:         otpStore,
		Registration: registrationStore,
		Codec:        codec,
		Sessions:     sessionService,
		Notifier:     notify.NewLogSender(log),
		Events:       eventPublisher,
		Logger:       log,
		OTPTTL:       cfg.Session.OTPTTL,
		VerifyTTL:    cfg.Session.VerifyTTL,
		UserCacheTTL: cfg.Session.UserCacheTTL,
	})

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), cfg.Redis.KeyPrefix, rateLimitWindow*2)
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Auth:     authService,
			Rotation: rotationService,
			Sessions: sessionService,
			CSRF:     csrfService,
		},
	})

	return &Application{
		cfg:           cfg,
		engine:        engine,
		logger:        log,
		pool:          pool,
		redis:         redisClient,
		kafkaProducer: kafkaProducer,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.kafkaProducer != nil {
			_ = a.kafkaProducer.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
