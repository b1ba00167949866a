package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/birlikkoshan/todo-api/docs"
	"github.com/birlikkoshan/todo-api/internal/auth"
	"github.com/birlikkoshan/todo-api/internal/cache"
	"github.com/birlikkoshan/todo-api/internal/config"
	"github.com/birlikkoshan/todo-api/internal/dto"
	"github.com/birlikkoshan/todo-api/internal/handlers"
	"github.com/birlikkoshan/todo-api/internal/middleware"
	"github.com/birlikkoshan/todo-api/internal/repo"
	"github.com/birlikkoshan/todo-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

const (
	registerLimit = 5
	loginLimit    = 12
	authWindow    = time.Minute
)

// Deps are the collaborators the routes are built from. Cache, Limiter,
// Metrics and Ping may be nil.
type Deps struct {
	Config  config.Config
	Log     *slog.Logger
	Users   repo.UserRepo
	Todos   repo.TodoRepo
	Cache   *cache.TodoCache
	Limiter middleware.RateLimiter
	Metrics *middleware.Metrics
	Ping    func(ctx context.Context) error
}

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, d Deps) {
	handlers.SetupValidation()
	docs.SwaggerInfo.Version = d.Config.App.Version

	r.GET("/", rootHandler(d.Config))
	r.GET("/health", healthHandler(d.Config, d.Ping))
	r.GET("/version", versionHandler(d.Config))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(http.StatusFound, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	api := r.Group("/api/v1")

	issuer := auth.NewTokenIssuer(d.Config.Auth.SigningSecret(), d.Config.Auth.JWTExpires.Duration())
	userSvc := service.NewUserService(d.Users, issuer, d.Config.Auth.BcryptCost, d.Log)
	authHandler := handlers.NewAuthHandler(userSvc, d.Log)
	registerAuthRoutes(api, authHandler, d)

	var fallback prometheus.Counter
	if d.Metrics != nil {
		fallback = d.Metrics.AuthFallback
	}
	resolver := auth.NewResolver(d.Config.Auth.TokenAuthEnabled(), issuer, d.Users, d.Log, fallback)
	protected := api.Group("", auth.RequireIdentity(resolver, d.Log))
	todoSvc := service.NewTodoService(d.Todos, d.Cache, d.Log)
	todoHandler := handlers.NewTodoHandler(todoSvc, d.Log)
	registerTodoRoutes(protected, todoHandler)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.Fail("Route not found", nil))
	})
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Todo API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"openapi": "/swagger-doc.json",
			"health":  "/health",
			"metrics": "/metrics",
			"api":     "/api/v1",
		})
	}
}

// healthHandler reports 503 when the database does not answer a ping.
func healthHandler(cfg config.Config, ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		db := "up"
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				status, db = http.StatusServiceUnavailable, "down"
			}
		}
		c.JSON(status, gin.H{"ok": status == http.StatusOK, "env": cfg.App.Env, "db": db})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			c.JSON(http.StatusInternalServerError, dto.Fail(err.Error(), nil))
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerTodoRoutes(api *gin.RouterGroup, h *handlers.TodoHandler) {
	api.POST("/todos", h.Create)
	api.GET("/todos", h.List)
	api.GET("/todos/:id", h.GetByID)
	api.PUT("/todos/:id", h.Update)
	api.PATCH("/todos/:id", h.Update)
	api.DELETE("/todos/:id", h.Delete)
}

func registerAuthRoutes(api *gin.RouterGroup, h *handlers.AuthHandler, d Deps) {
	api.POST("/auth/register", middleware.RateLimit(d.Limiter, "register", registerLimit, authWindow, d.Metrics), h.Register)
	api.POST("/auth/login", middleware.RateLimit(d.Limiter, "login", loginLimit, authWindow, d.Metrics), h.Login)
}
