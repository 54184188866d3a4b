package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/martijn/usersapi/internal/api/dto"
	"github.com/martijn/usersapi/internal/core/repository"
	"github.com/martijn/usersapi/internal/core/service"
	"github.com/martijn/usersapi/internal/infrastructure/sqlite"
	"golang.org/x/crypto/bcrypt"
)

// testEnv holds all test dependencies
type testEnv struct {
	db          *sqlite.DB
	router      *gin.Engine
	userRepo    repository.UserRepository
	userService *service.UserService
}

// setupTestEnv creates a test environment with in-memory SQLite database
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnv(t, ":memory:")
}

// setupFileTestEnv backs the router with a SQLite file, so concurrent
// requests run on separate pooled connections.
func setupFileTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnv(t, filepath.Join(t.TempDir(), "users.sqlite3"))
}

func newTestEnv(t *testing.T, dbPath string) *testEnv {
	t.Helper()

	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	userRepo := sqlite.NewUserRepository(db)
	userService := service.NewUserService(userRepo, service.NewPasswordHasher(bcrypt.MinCost))
	userHandler := NewUserHandler(userService)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	router.GET("/users", userHandler.ListUsers)
	router.POST("/users", userHandler.CreateUser)
	router.GET("/users/:id", userHandler.GetUser)
	router.PUT("/users/:id", userHandler.UpdateUser)
	router.DELETE("/users/:id", userHandler.DeleteUser)

	return &testEnv{
		db:          db,
		router:      router,
		userRepo:    userRepo,
		userService: userService,
	}
}

// cleanup closes the test database
func (env *testEnv) cleanup() {
	if env.db != nil {
		env.db.Close()
	}
}

// makeRequest performs a request with an optional raw JSON body
func (env *testEnv) makeRequest(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// createUser posts a user and fails the test unless it is created
func (env *testEnv) createUser(t *testing.T, body string) dto.UserResponse {
	t.Helper()

	w := env.makeRequest(t, http.MethodPost, "/users", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d\nBody: %s", w.Code, w.Body.String())
	}
	return parseUserResponse(t, w)
}

func parseUserResponse(t *testing.T, w *httptest.ResponseRecorder) dto.UserResponse {
	t.Helper()

	var resp dto.UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v\nBody: %s", err, w.Body.String())
	}
	return resp
}

func parseUserMessageResponse(t *testing.T, w *httptest.ResponseRecorder) dto.UserMessageResponse {
	t.Helper()

	var resp dto.UserMessageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v\nBody: %s", err, w.Body.String())
	}
	return resp
}

// parseErrorResponse parses the response body into ErrorResponse
func parseErrorResponse(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()

	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, w.Body.String())
	}
	return resp
}

func parseJSON(t *testing.T, data []byte, v any) {
	t.Helper()

	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("failed to parse JSON: %v\nBody: %s", err, string(data))
	}
}
