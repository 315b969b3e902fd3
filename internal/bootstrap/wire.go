package bootstrap

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/identra/identra/internal/application/auth"
	"github.com/identra/identra/internal/config"
	"github.com/identra/identra/internal/infrastructure/db/postgres"
	"github.com/identra/identra/internal/infrastructure/memory"
	rabbitmq_pub "github.com/identra/identra/internal/infrastructure/messaging/rabbitmq"
	"github.com/identra/identra/internal/infrastructure/redis"
	"github.com/identra/identra/internal/infrastructure/security"
	"github.com/identra/identra/internal/logger"
	http_handlers "github.com/identra/identra/internal/transport/http/handlers"
	"github.com/identra/identra/internal/transport/http/middleware"
	"github.com/identra/identra/internal/transport/http/response"
	"github.com/identra/identra/internal/transport/http/router"
)

/*
========================
 Public entry (prod)
========================
*/

func NewServer() (*http.Server, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing.
func NewServerWithDeps(deps Deps) (*http.Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB func(dsn string) (*sql.DB, error)

	NewRedis func(addr, password string, db int) RedisClient

	NewPublisher func(rabbitURL string) (auth.EventPublisher, error)

	NewRouter func(router.Deps) (http.Handler, error)
}

type RedisClient interface {
	Ping(ctx context.Context) error
	Close() error
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*http.Server, func(), error) {
	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	var cleanupFns []func()

	// 1) security primitives
	hasher := security.NewBcryptHasher(cfg.PasswordHashCost)
	codec := security.NewJWTCodec(
		cfg.AccessTokenSecret,
		cfg.RefreshTokenSecret,
		cfg.IDTokenSecret,
		cfg.JWTIssuer,
		cfg.JWTAudience,
	)
	cookies := security.CookieWriter{
		Domain: cfg.CookieDomain,
		Secure: cfg.Production(),
	}

	// 2) persistence: postgres, with an in-memory fallback in dev
	var (
		users   auth.UserRepo
		refresh auth.RefreshTokenRepo
		codes   auth.AuthCodeRepo
		clients auth.ClientRepo
		sqlDB   *sql.DB
	)

	db, err := deps.NewDB(cfg.DBAddr)
	switch {
	case err == nil:
		sqlDB = db
		cleanupFns = append(cleanupFns, func() { _ = db.Close() })

		userRepo := postgres.NewUserRepo(db)
		clientRepo := postgres.NewClientRepo(db)
		users = userRepo
		refresh = postgres.NewRefreshTokenRepo(db)
		codes = postgres.NewAuthCodeRepo(db)
		clients = clientRepo

		cleanCtx, cancel := context.WithCancel(context.Background())
		cleanupFns = append(cleanupFns, cancel)
		postgres.NewCleaner(db).Start(cleanCtx)

		if cfg.Env == "dev" {
			postgres.SeedUsers(context.Background(), userRepo, hasher)
			postgres.SeedClients(context.Background(), clientRepo, hasher)
		}

	case cfg.Env == "dev":
		logger.Logger.Warn().Err(err).Msg("postgres unavailable; using in-memory stores")
		userRepo := memory.NewUserRepo()
		clientRepo := memory.NewClientRepo()
		users = userRepo
		refresh = memory.NewRefreshTokenRepo()
		codes = memory.NewAuthCodeRepo()
		clients = clientRepo
		memory.Seed(context.Background(), userRepo, clientRepo, hasher)

	default:
		return nil, nil, err
	}

	// 3) redis (best-effort)
	var redisCli RedisClient
	if deps.NewRedis != nil && cfg.RedisAddr != "" {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := c.Ping(ctx); err != nil {
			logger.Logger.Warn().Err(err).Msg("redis unavailable; rate limiting disabled")
			_ = c.Close()
		} else {
			logger.Logger.Info().Msg("redis connected")
			redisCli = c
			cleanupFns = append(cleanupFns, func() { _ = c.Close() })
		}
	}

	// 4) publisher
	var pub auth.EventPublisher
	if cfg.RabbitURL != "" && deps.NewPublisher != nil {
		pub, err = deps.NewPublisher(cfg.RabbitURL)
		if err != nil {
			if cfg.Production() {
				runCleanup(cleanupFns)
				return nil, nil, err
			}
			logger.Logger.Warn().Err(err).Msg("rabbitmq unavailable; using noop publisher")
			pub = memory.NewNoopPublisher()
		}
	} else {
		pub = memory.NewNoopPublisher()
	}
	if c, ok := pub.(interface{ Close() error }); ok {
		cleanupFns = append(cleanupFns, func() { _ = c.Close() })
	}

	// 5) service
	logger.Logger.Info().Str("issuer", cfg.JWTIssuer).Msg("initializing token codec")
	authSvc := auth.NewService(
		users,
		refresh,
		codes,
		clients,
		hasher,
		codec,
		pub,
		auth.Config{
			AccessTTL:                 cfg.AccessTokenTTL,
			RefreshTTL:                cfg.RefreshTokenTTL,
			CodeTTL:                   cfg.AuthCodeTTL,
			MinPasswordLength:         cfg.MinPasswordLength,
			EmailVerificationRequired: cfg.EmailVerificationRequired,
		},
	)

	// 6) handlers + middleware
	authH := http_handlers.NewAuthHandler(authSvc, cookies, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	oauthH := http_handlers.NewOAuthHandler(authSvc, cfg.LoginURL)
	healthH := http_handlers.NewHealthHandler(sqlDB)

	authMW := middleware.Auth(authSvc, response.WriteError)

	var fwLimiter *redis.FixedWindowLimiter
	if c, ok := redisCli.(*redis.Client); ok {
		fwLimiter = redis.NewFixedWindowLimiter(c)
	}
	rl := func(key string, limit int, window time.Duration) func(http.Handler) http.Handler {
		if fwLimiter == nil {
			return nil
		}
		return middleware.RateLimitFixedWindow(
			fwLimiter,
			middleware.FixedWindowConfig{
				RouteKey: key,
				Limit:    limit,
				Window:   window,
			},
			response.WriteError,
		)
	}

	// 7) router
	mux, err := deps.NewRouter(router.Deps{
		Health: healthH,
		Auth:   authH,
		OAuth:  oauthH,

		Base: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.SecurityHeaders(cfg.Production()),
			middleware.CORS(cfg.CORSAllowedOrigins),
			middleware.Metrics,
		},

		AuthMW: authMW,

		LoginLimitMW:    rl("auth.login", 5, time.Minute),
		RegisterLimitMW: rl("auth.register", 3, time.Minute),
		TokenLimitMW:    rl("oauth.token", 30, time.Minute),
	})
	if err != nil {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 8) server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	cleanup := func() {
		runCleanup(cleanupFns)
	}

	return srv, cleanup, nil
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB:      config.NewDB,
		NewRedis: func(addr, password string, db int) RedisClient {
			return redis.New(addr, password, db)
		},
		NewPublisher: func(url string) (auth.EventPublisher, error) {
			return rabbitmq_pub.NewPublisher(url)
		},
		NewRouter: router.New,
	}
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
