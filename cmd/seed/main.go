// Command seed loads demo users and todos. Users that already exist are
// skipped together with their todos, so it can be run repeatedly.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/birlikkoshan/todo-api/internal/app"
	"github.com/birlikkoshan/todo-api/internal/auth"
	"github.com/birlikkoshan/todo-api/internal/config"
	dom "github.com/birlikkoshan/todo-api/internal/domain"
	"github.com/birlikkoshan/todo-api/internal/logger"
	"github.com/birlikkoshan/todo-api/internal/service"
)

const demoPassword = "password123"

type demoTodo struct {
	title, description string
	status             dom.TodoStatus
}

type demoUser struct {
	email, name string
	todos       []demoTodo
}

var demoUsers = []demoUser{
	{"user1@example.com", "John Doe", []demoTodo{
		{"Complete project documentation", "Write comprehensive API documentation with examples", dom.StatusPending},
		{"Review code changes", "Review pull requests and provide feedback", dom.StatusCompleted},
		{"Setup CI/CD pipeline", "Configure GitHub Actions for automated testing", dom.StatusPending},
	}},
	{"user2@example.com", "Jane Smith", []demoTodo{
		{"Design user interface", "Create mockups for the new dashboard", dom.StatusPending},
		{"Implement authentication", "Add JWT-based authentication system", dom.StatusCompleted},
		{"Write unit tests", "Achieve 80% code coverage", dom.StatusPending},
	}},
	{"user3@example.com", "Bob Johnson", []demoTodo{
		{"Deploy to staging", "Deploy latest version to staging environment", dom.StatusCompleted},
		{"Monitor performance", "Set up monitoring and alerting", dom.StatusPending},
	}},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "json").Error("config", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	ctx := context.Background()

	st, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Error("open store", "err", err)
		os.Exit(1)
	}
	defer st.Close()

	issuer := auth.NewTokenIssuer(cfg.Auth.SigningSecret(), cfg.Auth.JWTExpires.Duration())
	users := service.NewUserService(st.Users, issuer, cfg.Auth.BcryptCost, log)
	todos := service.NewTodoService(st.Todos, nil, log)

	if err := seed(ctx, users, todos); err != nil {
		log.Error("seed", "err", err)
		st.Close()
		os.Exit(1)
	}
	log.Info("seed complete", "password", demoPassword)
}

func seed(ctx context.Context, users *service.UserService, todos *service.TodoService) error {
	for _, du := range demoUsers {
		name := du.name
		res, err := users.Register(ctx, du.email, demoPassword, &name)
		if errors.Is(err, service.ErrEmailTaken) {
			continue
		}
		if err != nil {
			return err
		}
		for _, dt := range du.todos {
			desc := dt.description
			if _, err := todos.Create(ctx, res.User.ID, dt.title, &desc, dt.status); err != nil {
				return err
			}
		}
	}
	return nil
}
