package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/birlikkoshan/todo-api/internal/config"
	"github.com/birlikkoshan/todo-api/internal/logger"
	"github.com/birlikkoshan/todo-api/internal/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		TotalCount      int  `json:"totalCount"`
		TotalPages      int  `json:"totalPages"`
		CurrentPage     int  `json:"currentPage"`
		Limit           int  `json:"limit"`
		HasNextPage     bool `json:"hasNextPage"`
		HasPreviousPage bool `json:"hasPreviousPage"`
	} `json:"pagination"`
	Error *struct {
		Message string `json:"message"`
		Details []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
}

type todoJSON struct {
	ID          string  `json:"id"`
	UserID      string  `json:"userId"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
}

type authJSON struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func newTestServer(t *testing.T, secret string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var cfg config.Config
	cfg.App.Env = "test"
	cfg.App.Version = "test"
	cfg.HTTP.AllowOrigins = "*"
	cfg.DB.Driver = config.DriverSQLite
	cfg.DB.SQLitePath = filepath.Join(t.TempDir(), "api.db")
	cfg.Auth.JWTSecret = secret
	cfg.Auth.BcryptCost = bcrypt.MinCost

	st, err := OpenStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	limiter := middleware.NewMemoryRateLimiter()
	t.Cleanup(limiter.Close)

	router := NewRouter(Deps{
		Config:  cfg,
		Log:     logger.Discard(),
		Users:   st.Users,
		Todos:   st.Todos,
		Limiter: limiter,
		Metrics: middleware.NewMetrics(),
		Ping:    st.Ping,
	})
	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path string, body any, headers map[string]string) (int, envelope) {
	s.t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			s.t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, env
}

func (s *testServer) register(email string) authJSON {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/v1/auth/register",
		map[string]string{"email": email, "password": "password123", "name": "Test"}, nil)
	if code != http.StatusCreated {
		s.t.Fatalf("register %s: %d %+v", email, code, env.Error)
	}
	var res authJSON
	decode(s.t, env.Data, &res)
	return res
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decode(t *testing.T, raw json.RawMessage, v any) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func (s *testServer) createTodo(h map[string]string, body map[string]any) todoJSON {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/v1/todos", body, h)
	if code != http.StatusCreated {
		s.t.Fatalf("create todo: %d %+v", code, env.Error)
	}
	var td todoJSON
	decode(s.t, env.Data, &td)
	return td
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, "test-secret")

	reg := s.register("alice@example.com")
	if reg.Token == "" || reg.User.Email != "alice@example.com" {
		t.Fatalf("register = %+v", reg)
	}

	code, env := s.do(http.MethodPost, "/api/v1/auth/register",
		map[string]string{"email": "alice@example.com", "password": "password123"}, nil)
	if code != http.StatusConflict || env.Success {
		t.Fatalf("duplicate register: %d", code)
	}

	other := s.register("Alice@example.com")
	if other.User.ID == reg.User.ID || other.User.Email != "Alice@example.com" {
		t.Fatalf("case-distinct register = %+v", other)
	}

	code, env = s.do(http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "alice@example.com", "password": "password123"}, nil)
	if code != http.StatusOK {
		t.Fatalf("login: %d %+v", code, env.Error)
	}
	var login authJSON
	decode(t, env.Data, &login)
	if login.Token == "" || login.User.ID != reg.User.ID {
		t.Fatalf("login = %+v", login)
	}

	code, env = s.do(http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "alice@example.com", "password": "wrong-password"}, nil)
	if code != http.StatusUnauthorized || env.Error == nil || env.Error.Message != "Invalid email or password" {
		t.Fatalf("wrong password: %d %+v", code, env.Error)
	}
	if len(env.Data) != 0 {
		t.Fatalf("token leaked on failed login: %s", env.Data)
	}

	code, env = s.do(http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "alice@example.com", "password": "123"}, nil)
	if code != http.StatusBadRequest || env.Error == nil || len(env.Error.Details) != 1 || env.Error.Details[0].Field != "password" {
		t.Fatalf("short login password: %d %+v", code, env.Error)
	}

	code, env = s.do(http.MethodPost, "/api/v1/auth/register",
		map[string]string{"email": "not-an-email", "password": "123"}, nil)
	if code != http.StatusBadRequest || env.Error == nil || len(env.Error.Details) != 2 {
		t.Fatalf("invalid register: %d %+v", code, env.Error)
	}
}

func TestTodoRequiresToken(t *testing.T) {
	s := newTestServer(t, "test-secret")
	u := s.register("alice@example.com")

	cases := map[string]map[string]string{
		"no header": nil,
		"bad token": bearer("garbage"),
		"x-user-id": {"X-User-Id": u.User.ID},
	}
	for name, h := range cases {
		code, env := s.do(http.MethodGet, "/api/v1/todos", nil, h)
		if code != http.StatusUnauthorized || env.Success || env.Error == nil {
			t.Errorf("%s: %d", name, code)
		}
	}
}

func TestTodoStatusScenario(t *testing.T) {
	s := newTestServer(t, "test-secret")
	h := bearer(s.register("alice@example.com").Token)

	td := s.createTodo(h, map[string]any{"title": "Buy milk"})
	if td.Status != "pending" || td.Description != nil {
		t.Fatalf("created = %+v", td)
	}

	code, env := s.do(http.MethodPut, "/api/v1/todos/"+td.ID, map[string]any{"status": "completed"}, h)
	if code != http.StatusOK {
		t.Fatalf("update: %d %+v", code, env.Error)
	}
	var upd todoJSON
	decode(t, env.Data, &upd)
	if upd.Status != "completed" || upd.Title != "Buy milk" {
		t.Fatalf("updated = %+v", upd)
	}

	for status, want := range map[string]int{"completed": 1, "pending": 0} {
		code, env := s.do(http.MethodGet, "/api/v1/todos?status="+status, nil, h)
		if code != http.StatusOK || env.Pagination == nil {
			t.Fatalf("list %s: %d", status, code)
		}
		if env.Pagination.TotalCount != want {
			t.Fatalf("status=%s total = %d, want %d", status, env.Pagination.TotalCount, want)
		}
	}

	code, env = s.do(http.MethodDelete, "/api/v1/todos/"+td.ID, nil, h)
	if code != http.StatusOK || !strings.Contains(string(env.Data), "Todo deleted successfully") {
		t.Fatalf("delete: %d %s", code, env.Data)
	}
	if code, _ := s.do(http.MethodGet, "/api/v1/todos/"+td.ID, nil, h); code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", code)
	}
	if code, _ := s.do(http.MethodDelete, "/api/v1/todos/"+td.ID, nil, h); code != http.StatusNotFound {
		t.Fatalf("second delete: %d", code)
	}
}

func TestCrossUserAccessIsNotFound(t *testing.T) {
	s := newTestServer(t, "test-secret")
	alice := bearer(s.register("alice@example.com").Token)
	bob := bearer(s.register("bob@example.com").Token)

	td := s.createTodo(alice, map[string]any{"title": "Alice only"})

	checks := []struct {
		method string
		body   any
	}{
		{http.MethodGet, nil},
		{http.MethodPatch, map[string]any{"title": "hijacked"}},
		{http.MethodDelete, nil},
	}
	for _, c := range checks {
		code, env := s.do(c.method, "/api/v1/todos/"+td.ID, c.body, bob)
		if code != http.StatusNotFound || env.Error == nil || env.Error.Message != "Todo not found" {
			t.Fatalf("bob %s: %d %+v", c.method, code, env.Error)
		}
	}
	_, env := s.do(http.MethodGet, "/api/v1/todos", nil, bob)
	if env.Pagination.TotalCount != 0 || string(env.Data) != "[]" {
		t.Fatalf("bob list = %s", env.Data)
	}

	code, env := s.do(http.MethodGet, "/api/v1/todos/"+td.ID, nil, alice)
	if code != http.StatusOK {
		t.Fatalf("alice get: %d", code)
	}
	var got todoJSON
	decode(t, env.Data, &got)
	if got.Title != "Alice only" {
		t.Fatalf("title = %q", got.Title)
	}

	if code, _ := s.do(http.MethodGet, "/api/v1/todos/not-a-uuid", nil, alice); code != http.StatusNotFound {
		t.Fatalf("malformed id: %d", code)
	}
}

func TestListPaginationAndSearch(t *testing.T) {
	s := newTestServer(t, "test-secret")
	h := bearer(s.register("alice@example.com").Token)
	for _, title := range []string{"Buy milk", "Walk dog", "Buy bread", "Read book", "Call mom"} {
		s.createTodo(h, map[string]any{"title": title, "description": "note"})
	}

	code, env := s.do(http.MethodGet, "/api/v1/todos?page=2&limit=2", nil, h)
	if code != http.StatusOK {
		t.Fatalf("list: %d %+v", code, env.Error)
	}
	p := env.Pagination
	if p.TotalCount != 5 || p.TotalPages != 3 || p.CurrentPage != 2 || p.Limit != 2 || !p.HasNextPage || !p.HasPreviousPage {
		t.Fatalf("pagination = %+v", p)
	}
	var items []todoJSON
	decode(t, env.Data, &items)
	if len(items) != 2 {
		t.Fatalf("items = %d", len(items))
	}

	_, env = s.do(http.MethodGet, "/api/v1/todos?page=9&limit=2", nil, h)
	if env.Pagination.TotalCount != 5 || env.Pagination.HasNextPage || string(env.Data) != "[]" {
		t.Fatalf("beyond range: %+v %s", env.Pagination, env.Data)
	}

	code, env = s.do(http.MethodGet, "/api/v1/todos?page=922337203685477590&limit=10", nil, h)
	if code != http.StatusOK || env.Pagination.TotalCount != 5 || env.Pagination.HasNextPage || string(env.Data) != "[]" {
		t.Fatalf("huge page: %d %+v %s", code, env.Pagination, env.Data)
	}

	_, env = s.do(http.MethodGet, "/api/v1/todos?search=BUY&sortBy=title&sortOrder=asc", nil, h)
	decode(t, env.Data, &items)
	if env.Pagination.TotalCount != 2 || items[0].Title != "Buy bread" || items[1].Title != "Buy milk" {
		t.Fatalf("search = %+v", items)
	}

	_, env = s.do(http.MethodGet, "/api/v1/todos?search=nothing-matches", nil, h)
	if env.Pagination.TotalCount != 0 || env.Pagination.TotalPages != 0 || string(env.Data) != "[]" {
		t.Fatalf("no match: %+v %s", env.Pagination, env.Data)
	}

	_, env = s.do(http.MethodGet, "/api/v1/todos?startDate=2000-01-01&endDate=2999-12-31&unknown=1", nil, h)
	if env.Pagination.TotalCount != 5 {
		t.Fatalf("date range total = %d", env.Pagination.TotalCount)
	}
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t, "test-secret")
	h := bearer(s.register("alice@example.com").Token)

	code, env := s.do(http.MethodGet, "/api/v1/todos?page=0&limit=500&status=done&sortBy=id&sortOrder=up&startDate=yesterday", nil, h)
	if code != http.StatusBadRequest || env.Error == nil || env.Error.Message != "Query validation error" {
		t.Fatalf("query: %d %+v", code, env.Error)
	}
	fields := map[string]bool{}
	for _, d := range env.Error.Details {
		fields[d.Field] = true
	}
	for _, f := range []string{"page", "limit", "status", "sortBy", "sortOrder", "startDate"} {
		if !fields[f] {
			t.Errorf("missing detail for %s: %+v", f, env.Error.Details)
		}
	}

	code, env = s.do(http.MethodPost, "/api/v1/todos", map[string]any{"title": "", "status": "archived"}, h)
	if code != http.StatusBadRequest || env.Error == nil || len(env.Error.Details) != 2 {
		t.Fatalf("create: %d %+v", code, env.Error)
	}

	code, env = s.do(http.MethodPost, "/api/v1/todos", map[string]any{"title": strings.Repeat("x", 256)}, h)
	if code != http.StatusBadRequest {
		t.Fatalf("long title: %d", code)
	}

	code, _ = s.do(http.MethodPost, "/api/v1/todos", "{not json", h)
	if code != http.StatusBadRequest {
		t.Fatalf("malformed body: %d", code)
	}

	td := s.createTodo(h, map[string]any{"title": "Buy milk", "description": "2 liters"})
	code, env = s.do(http.MethodPatch, "/api/v1/todos/"+td.ID, map[string]any{"title": ""}, h)
	if code != http.StatusBadRequest {
		t.Fatalf("empty title update: %d", code)
	}
	code, env = s.do(http.MethodPatch, "/api/v1/todos/"+td.ID, map[string]any{"description": nil}, h)
	if code != http.StatusOK {
		t.Fatalf("clear description: %d %+v", code, env.Error)
	}
	var upd todoJSON
	decode(t, env.Data, &upd)
	if upd.Description != nil || upd.Title != "Buy milk" {
		t.Fatalf("after clearing = %+v", upd)
	}
}

func TestHeaderFallbackMode(t *testing.T) {
	for _, secret := range []string{"", config.InsecureJWTSecret} {
		s := newTestServer(t, secret)
		u := s.register("alice@example.com")
		if u.Token == "" {
			t.Fatalf("secret %q: no token issued", secret)
		}
		h := map[string]string{"X-User-Id": u.User.ID}

		td := s.createTodo(h, map[string]any{"title": "via header"})
		if td.UserID != u.User.ID {
			t.Fatalf("owner = %s, want %s", td.UserID, u.User.ID)
		}

		for name, hdr := range map[string]map[string]string{
			"missing":      nil,
			"not a uuid":   {"X-User-Id": "42"},
			"unknown user": {"X-User-Id": "00000000-0000-4000-8000-000000000000"},
		} {
			if code, _ := s.do(http.MethodGet, "/api/v1/todos", nil, hdr); code != http.StatusUnauthorized {
				t.Errorf("secret %q %s: %d", secret, name, code)
			}
		}
	}
}

func TestAuthRateLimit(t *testing.T) {
	s := newTestServer(t, "test-secret")
	var code int
	for i := 0; i <= registerLimit; i++ {
		code, _ = s.do(http.MethodPost, "/api/v1/auth/register",
			map[string]string{"email": "x@example.com", "password": "short"}, nil)
	}
	if code != http.StatusTooManyRequests {
		t.Fatalf("request %d: %d, want 429", registerLimit+1, code)
	}
}

func TestServiceEndpoints(t *testing.T) {
	s := newTestServer(t, "test-secret")
	for path, want := range map[string]int{
		"/":                 http.StatusOK,
		"/health":           http.StatusOK,
		"/version":          http.StatusOK,
		"/metrics":          http.StatusOK,
		"/swagger-doc.json": http.StatusOK,
		"/nope":             http.StatusNotFound,
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		if w.Code != want {
			t.Errorf("GET %s: %d, want %d", path, w.Code, want)
		}
	}
}

func TestHealthReportsDatabaseDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", healthHandler(config.Config{}, func(context.Context) error { return errors.New("down") }))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
}
