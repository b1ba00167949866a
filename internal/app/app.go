package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/birlikkoshan/todo-api/internal/cache"
	"github.com/birlikkoshan/todo-api/internal/config"
	"github.com/birlikkoshan/todo-api/internal/middleware"
	"github.com/birlikkoshan/todo-api/internal/repo"
	"github.com/birlikkoshan/todo-api/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type App struct {
	cfg     config.Config
	log     *slog.Logger
	store   *Store
	redis   *redis.Client
	limiter middleware.RateLimiter
	router  *gin.Engine
}

// New opens the configured store, applies migrations, connects Redis when
// configured and builds the router.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}
	deps := Deps{Config: cfg, Log: log, Metrics: middleware.NewMetrics()}

	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.store = st
	deps.Users, deps.Todos, deps.Ping = st.Users, st.Todos, st.Ping
	log.Info("database ready", "driver", cfg.DB.Driver)

	if cfg.Redis.Enabled() {
		rdb, err := newRedis(ctx, cfg.Redis)
		if err != nil {
			if cerr := a.Close(); cerr != nil {
				log.Warn("close after failed start", "err", cerr)
			}
			return nil, err
		}
		a.redis = rdb
		deps.Cache = cache.NewTodoCache(rdb, cfg.Redis.DefaultTTL.Duration())
		a.limiter = middleware.NewRedisRateLimiter(rdb, log)
		log.Info("redis ready; list cache enabled", "addr", cfg.Redis.Addr)
	} else {
		a.limiter = middleware.NewMemoryRateLimiter()
		log.Info("redis not configured; list cache disabled")
	}
	deps.Limiter = a.limiter

	a.router = NewRouter(deps)
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// Close releases the limiter, Redis and the store, returning every failure.
func (a *App) Close() error {
	var errs []error
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Store is an opened, migrated database with its repositories.
type Store struct {
	Users repo.UserRepo
	Todos repo.TodoRepo
	Ping  func(ctx context.Context) error

	pg     *pgxpool.Pool
	sqlite *sql.DB
}

// OpenStore connects to the configured driver and applies migrations.
func OpenStore(ctx context.Context, cfg config.Config) (*Store, error) {
	switch cfg.DB.Driver {
	case config.DriverSQLite:
		db, err := storage.OpenSQLite(ctx, cfg.DB.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := storage.MigrateSQLite(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return &Store{
			Users:  repo.NewSQLiteUserRepo(db),
			Todos:  repo.NewSQLiteTodoRepo(db),
			Ping:   db.PingContext,
			sqlite: db,
		}, nil
	default:
		if err := storage.MigratePostgres(ctx, cfg.DB.DSN); err != nil {
			return nil, err
		}
		pool, err := storage.NewPostgres(ctx, cfg.DB.DSN)
		if err != nil {
			return nil, err
		}
		return &Store{
			Users: repo.NewPGUserRepo(pool),
			Todos: repo.NewPGTodoRepo(pool),
			Ping:  pool.Ping,
			pg:    pool,
		}, nil
	}
}

func (s *Store) Close() error {
	if s.pg != nil {
		s.pg.Close()
	}
	if s.sqlite != nil {
		return s.sqlite.Close()
	}
	return nil
}

func newRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

// NewRouter builds the engine with the shared middleware and all routes.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(d.Log), middleware.RequestLogger(d.Log))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:  d.Config.HTTP.Origins(),
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-Id"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:        12 * time.Hour,
	}))

	Setup(r, d)
	return r
}
