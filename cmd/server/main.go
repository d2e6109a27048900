package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/playtopup/storefront/modules/auth"
	"github.com/playtopup/storefront/pkg/config"
	"github.com/playtopup/storefront/pkg/cookie"
	"github.com/playtopup/storefront/pkg/httpserver"
	"github.com/playtopup/storefront/pkg/logger"
	"github.com/playtopup/storefront/pkg/mongo"
	"github.com/playtopup/storefront/pkg/redis"
	"github.com/playtopup/storefront/pkg/session"
)

type appConfig struct {
	Environment string   `env:"APP_ENV" envDefault:"development"`
	Addr        string   `env:"SERVER_ADDR" envDefault:":8080"`
	CookieKeys  []string `env:"COOKIE_SECRET_KEYS,required" envSeparator:","`

	// SessionStore selects the session backend: "memory" (default, lost
	// on restart) or "redis" (persistent, shared across instances).
	SessionStore string `env:"SESSION_STORE" envDefault:"memory"`

	// UserStore selects the account backend: "mongo" (default) or
	// "memory" for local development without a database.
	UserStore string `env:"USER_STORE" envDefault:"mongo"`
	MongoDB   string `env:"MONGODB_DATABASE" envDefault:"storefront"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg appConfig
	config.MustLoad(&cfg)

	var sessionCfg session.Config
	config.MustLoad(&sessionCfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Environment, "storefront"),
	)
	logger.SetAsDefault(log)

	if err := run(ctx, cfg, sessionCfg, log); err != nil {
		log.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, sessionCfg session.Config, log *slog.Logger) error {
	cookies, err := cookie.New(cfg.CookieKeys)
	if err != nil {
		return err
	}

	store, storeCheck, err := newSessionStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	manager := session.New(
		session.WithStore(store),
		session.WithConfig(sessionCfg),
		session.WithLogger(log),
	)
	manager.StartCleanup(ctx)
	defer manager.Close()

	users, usersCheck, err := newUserRepository(ctx, cfg, log)
	if err != nil {
		return err
	}

	var checks []func(context.Context) error
	for _, check := range []func(context.Context) error{storeCheck, usersCheck} {
		if check != nil {
			checks = append(checks, check)
		}
	}

	transport := session.NewCookieTransport(cookies, sessionCfg)
	authSvc := auth.NewService(users, manager, transport, log)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Get("/health", httpserver.HealthCheckHandler(ctx, log, checks...))
	r.Mount("/auth", auth.Router(authSvc, manager, transport))

	srv := httpserver.New(
		httpserver.WithAddr(cfg.Addr),
		httpserver.WithLogger(log),
	)
	return srv.Run(ctx, r)
}

// newSessionStore also returns a readiness probe for the chosen backend;
// the memory backend has nothing to probe and returns nil.
func newSessionStore(ctx context.Context, cfg appConfig, log *slog.Logger) (session.Store, func(context.Context) error, error) {
	switch cfg.SessionStore {
	case "redis":
		var redisCfg redis.Config
		config.MustLoad(&redisCfg)

		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return nil, nil, err
		}
		log.Info("session store: redis (sessions survive restarts)")
		return session.NewRedisStore(client), redis.Healthcheck(client), nil
	default:
		log.Info("session store: memory (sessions lost on restart)")
		return session.NewMemoryStore(), nil, nil
	}
}

func newUserRepository(ctx context.Context, cfg appConfig, log *slog.Logger) (auth.UserRepository, func(context.Context) error, error) {
	switch cfg.UserStore {
	case "memory":
		log.Warn("user store: memory (development only)")
		return auth.NewMemoryUserRepository(), nil, nil
	default:
		var mongoCfg mongo.Config
		config.MustLoad(&mongoCfg)

		db, err := mongo.NewWithDatabase(ctx, mongoCfg, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		return auth.NewMongoUserRepository(db), mongo.Healthcheck(db.Client()), nil
	}
}
