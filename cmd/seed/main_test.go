package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/birlikkoshan/todo-api/internal/app"
	"github.com/birlikkoshan/todo-api/internal/auth"
	"github.com/birlikkoshan/todo-api/internal/config"
	dom "github.com/birlikkoshan/todo-api/internal/domain"
	"github.com/birlikkoshan/todo-api/internal/logger"
	"github.com/birlikkoshan/todo-api/internal/service"

	"golang.org/x/crypto/bcrypt"
)

func TestSeedIsRepeatable(t *testing.T) {
	ctx := context.Background()
	var cfg config.Config
	cfg.DB.Driver = config.DriverSQLite
	cfg.DB.SQLitePath = filepath.Join(t.TempDir(), "seed.db")

	st, err := app.OpenStore(ctx, cfg)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer st.Close()

	log := logger.Discard()
	users := service.NewUserService(st.Users, auth.NewTokenIssuer("s", 0), bcrypt.MinCost, log)
	todos := service.NewTodoService(st.Todos, nil, log)

	for i := 0; i < 2; i++ {
		if err := seed(ctx, users, todos); err != nil {
			t.Fatalf("seed run %d: %v", i+1, err)
		}
	}

	res, err := users.Login(ctx, "user1@example.com", demoPassword)
	if err != nil {
		t.Fatalf("Login demo user: %v", err)
	}
	page, err := todos.List(ctx, res.User.ID, dom.TodoQuery{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalCount != len(demoUsers[0].todos) {
		t.Fatalf("user1 has %d todos, want %d", page.TotalCount, len(demoUsers[0].todos))
	}
}
