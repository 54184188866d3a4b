package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/martijn/usersapi/internal/api/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJSONLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequestIDGenerated(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())

	var seen string
	router.GET("/", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))

	header := w.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(header); err != nil {
		t.Fatalf("expected generated uuid, got %q", header)
	}
	if seen != header {
		t.Errorf("context id %q does not match header %q", seen, header)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := serve(router, req)

	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("expected caller id to be kept, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
	w = serve(router, req)
	if got := w.Header().Get(RequestIDHeader); len(got) > 128 {
		t.Errorf("expected oversized id to be replaced, got %d bytes", len(got))
	}
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		expectedLevel string
	}{
		{name: "success", status: http.StatusOK, expectedLevel: "INFO"},
		{name: "client error", status: http.StatusNotFound, expectedLevel: "WARN"},
		{name: "server error", status: http.StatusInternalServerError, expectedLevel: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			router := gin.New()
			router.Use(RequestID())
			router.Use(RequestLogger(newJSONLogger(&buf)))
			router.GET("/users", func(c *gin.Context) { c.Status(tt.status) })

			w := serve(router, httptest.NewRequest(http.MethodGet, "/users", nil))

			var record map[string]any
			if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
				t.Fatalf("failed to parse log record: %v\n%s", err, buf.String())
			}

			if record["level"] != tt.expectedLevel {
				t.Errorf("expected level %s, got %v", tt.expectedLevel, record["level"])
			}
			if record["method"] != "GET" || record["path"] != "/users" {
				t.Errorf("unexpected method/path: %v %v", record["method"], record["path"])
			}
			if status, _ := record["status"].(float64); int(status) != tt.status {
				t.Errorf("expected status %d, got %v", tt.status, record["status"])
			}
			if record["request_id"] != w.Header().Get(RequestIDHeader) {
				t.Errorf("expected request id %s, got %v", w.Header().Get(RequestIDHeader), record["request_id"])
			}
		})
	}
}

func TestErrorHandlerRecoversPanic(t *testing.T) {
	var buf bytes.Buffer

	router := gin.New()
	router.Use(ErrorHandlerMiddleware(newJSONLogger(&buf)))
	router.GET("/", func(c *gin.Context) { panic("boom") })

	w := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}
	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Message != "Internal Server Error" {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("expected panic to be logged, got %s", buf.String())
	}
}

func TestErrorHandlerUnansweredError(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandlerMiddleware(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	router.GET("/", func(c *gin.Context) { _ = c.Error(errors.New("store exploded")) })
	router.GET("/answered", func(c *gin.Context) {
		_ = c.Error(errors.New("handled"))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "handled"})
	})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}

	w = serve(router, httptest.NewRequest(http.MethodGet, "/answered", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected handler status to be kept, got %d", w.Code)
	}
}

func TestTimeout(t *testing.T) {
	router := gin.New()
	router.Use(Timeout(50 * time.Millisecond))

	var deadline time.Time
	var hasDeadline bool
	router.GET("/", func(c *gin.Context) {
		deadline, hasDeadline = c.Request.Context().Deadline()
		c.Status(http.StatusOK)
	})

	start := time.Now()
	serve(router, httptest.NewRequest(http.MethodGet, "/", nil))

	if !hasDeadline {
		t.Fatal("expected request context to carry a deadline")
	}
	if deadline.After(start.Add(time.Second)) {
		t.Errorf("deadline %v too far from start %v", deadline, start)
	}
}

func TestTimeoutDisabled(t *testing.T) {
	router := gin.New()
	router.Use(Timeout(0))

	hasDeadline := true
	router.GET("/", func(c *gin.Context) {
		_, hasDeadline = c.Request.Context().Deadline()
		c.Status(http.StatusOK)
	})

	serve(router, httptest.NewRequest(http.MethodGet, "/", nil))
	if hasDeadline {
		t.Error("expected no deadline when timeout is disabled")
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name           string
		allowed        []string
		origin         string
		expectedOrigin string
		expectedCreds  string
	}{
		{name: "open by default", allowed: nil, origin: "http://a.test", expectedOrigin: "*"},
		{name: "explicit wildcard", allowed: []string{"*"}, origin: "http://a.test", expectedOrigin: "*"},
		{name: "allowed origin", allowed: []string{"http://a.test"}, origin: "http://a.test", expectedOrigin: "http://a.test", expectedCreds: "true"},
		{name: "foreign origin", allowed: []string{"http://a.test"}, origin: "http://evil.test", expectedOrigin: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORSMiddleware(tt.allowed))
			router.GET("/users", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			req.Header.Set("Origin", tt.origin)
			w := serve(router, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.expectedOrigin {
				t.Errorf("expected allow origin %q, got %q", tt.expectedOrigin, got)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials"); got != tt.expectedCreds {
				t.Errorf("expected allow credentials %q, got %q", tt.expectedCreds, got)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware(nil))
	router.PUT("/users/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/users/1", nil)
	req.Header.Set("Origin", "http://a.test")
	w := serve(router, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "PUT") {
		t.Errorf("expected PUT in allowed methods, got %q", w.Header().Get("Access-Control-Allow-Methods"))
	}
}
