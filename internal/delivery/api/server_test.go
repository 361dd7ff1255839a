package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"keyauth/config"
	"keyauth/internal/delivery/api/router"
	"keyauth/internal/delivery/api/router/handler"
	"keyauth/internal/infra/auth"
	"keyauth/internal/infra/metrics"
	"keyauth/internal/infra/persistence/redis"
	"keyauth/internal/usecase/impl"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	echo *echo.Echo
	mr   *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	cfg := &config.Config{Redis: &config.RedisConfig{}}
	cfg.HTTP.MaxRequestBodySize = "1KB"

	mr := miniredis.RunT(t)
	store := redis.NewUserStore(goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1}), logger)
	require.NoError(t, store.Connect(context.Background()))
	t.Cleanup(func() { store.Shutdown(context.Background()) })

	prom := metrics.New()
	authService := impl.NewAuthService(impl.AuthServiceParams{
		UserRepo: redis.NewUserRepository(redis.UserRepositoryParams{
			Store:  store,
			Config: cfg,
			Logger: logger,
		}),
		Hasher:  auth.NewBcryptHasher(bcrypt.MinCost),
		Metrics: prom,
		Logger:  logger,
	})

	e := newEcho(cfg, logger, prom, router.RouterParams{
		AuthHandler:   handler.NewAuthHandler(handler.AuthHandlerParams{AuthUC: authService, Logger: logger}),
		HealthHandler: handler.NewHealthHandler(handler.HealthHandlerParams{Store: store, Logger: logger}),
		Metrics:       prom,
	})

	return &testServer{echo: e, mr: mr}
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	return rec
}

func bodyOf(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())

	return body
}

func TestServer_AuthScenarios(t *testing.T) {
	srv := newTestServer(t)

	// register
	rec := srv.do(http.MethodPost, "/register", `{"username":"alice","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, map[string]any{"message": "user registered", "username": "alice"}, bodyOf(t, rec))

	// duplicate registration, even with different case
	rec = srv.do(http.MethodPost, "/register", `{"username":"Alice","password":"other-secret"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, map[string]any{"message": "username already exists"}, bodyOf(t, rec))

	// login
	rec = srv.do(http.MethodPost, "/login", `{"username":"alice","password":"secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"message": "login successful", "username": "alice"}, bodyOf(t, rec))

	// wrong password and unknown user are indistinguishable
	wrong := srv.do(http.MethodPost, "/login", `{"username":"alice","password":"wrong-pass"}`)
	unknown := srv.do(http.MethodPost, "/login", `{"username":"mallory","password":"wrong-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	assert.Equal(t, map[string]any{"message": "invalid credentials"}, bodyOf(t, wrong))

	// shape violations never reach the store
	keysBefore := len(srv.mr.Keys())
	rec = srv.do(http.MethodPost, "/register", `{"username":"ab","password":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := bodyOf(t, rec)
	assert.Equal(t, "validation failed", body["message"])
	assert.Len(t, body["errors"], 2)
	assert.Len(t, srv.mr.Keys(), keysBefore)

	// one record and one index for the single registered user
	assert.Len(t, srv.mr.Keys(), 2)
}

func TestServer_ConcurrentRegistrationHasOneWinner(t *testing.T) {
	srv := newTestServer(t)

	const attempts = 5
	codes := make([]int, attempts)

	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = srv.do(http.MethodPost, "/register", `{"username":"bob","password":"secret123"}`).Code
		}()
	}
	wg.Wait()

	created, conflicts := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, attempts-1, conflicts)
	assert.Len(t, srv.mr.Keys(), 2)
}

func TestServer_StoreOutageIsGeneric500(t *testing.T) {
	srv := newTestServer(t)
	srv.mr.SetError("LOADING redis is loading the dataset in memory")

	rec := srv.do(http.MethodPost, "/register", `{"username":"carol","password":"secret123"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"message": "internal server error"}, bodyOf(t, rec))
	assert.NotContains(t, rec.Body.String(), "LOADING")
}

func TestServer_PasswordBeyondHasherLimitIsValidationError(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "ascii over 72 bytes", username: "frank", password: strings.Repeat("p", 100)},
		{name: "multi-byte within 128 characters", username: "gina", password: strings.Repeat("é", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(http.MethodPost, "/register", `{"username":"`+tt.username+`","password":"`+tt.password+`"}`)

			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, map[string]any{
				"message": "validation failed",
				"errors":  []any{map[string]any{"field": "password", "rule": "max"}},
			}, bodyOf(t, rec))
		})
	}

	assert.Empty(t, srv.mr.Keys())
}

func TestServer_RequestID(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(echo.HeaderXRequestID, "trace-123")
	rec = httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	assert.Equal(t, "trace-123", rec.Header().Get(echo.HeaderXRequestID))
}

func TestServer_TransportErrors(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, map[string]any{"message": "Not Found"}, bodyOf(t, rec))

	rec = srv.do(http.MethodGet, "/register", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	oversized := `{"username":"dave","password":"` + strings.Repeat("p", 2048) + `"}`
	rec = srv.do(http.MethodPost, "/register", oversized)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, srv.mr.Keys())
}

func TestServer_Probes(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	srv.do(http.MethodPost, "/register", `{"username":"erin","password":"secret123"}`)
	rec = srv.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `keyauth_auth_attempts_total{event="register",outcome="success"} 1`)
	assert.Contains(t, rec.Body.String(), `keyauth_http_request_duration_seconds_count{method="POST",route="/register",status="201"} 1`)

	srv.mr.Close()
	rec = srv.do(http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = srv.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_PanicIsLoggedAndCounted(t *testing.T) {
	srv := newTestServer(t)
	srv.echo.GET("/boom", func(echo.Context) error {
		panic("handler exploded")
	})

	rec := srv.do(http.MethodGet, "/boom", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"message": "internal server error"}, bodyOf(t, rec))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.NotContains(t, rec.Body.String(), "exploded")

	rec = srv.do(http.MethodGet, "/metrics", "")
	assert.Contains(t, rec.Body.String(), `keyauth_http_request_duration_seconds_count{method="GET",route="/boom",status="500"} 1`)
}
