package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mseiser/SelfMemo2/internal/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// mockTokenValidator is a mock implementation of TokenValidator
type mockTokenValidator struct {
	tokens map[string]models.Role
}

func (m *mockTokenValidator) ValidateAccessToken(token string) (int, models.Role, error) {
	role, ok := m.tokens[token]
	if !ok {
		return 0, 0, errors.New("invalid token")
	}
	return 42, role, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("keeps incoming id", func(t *testing.T) {
		var seen string
		handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "abc")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "abc", seen)
		assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
	})

	t.Run("generates id", func(t *testing.T) {
		w := httptest.NewRecorder()
		RequestIDMiddleware(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Len(t, w.Header().Get("X-Request-ID"), 36)
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", strings.Repeat("x", 65))
		w := httptest.NewRecorder()
		RequestIDMiddleware(okHandler()).ServeHTTP(w, req)

		assert.Len(t, w.Header().Get("X-Request-ID"), 36)
	})
}

func TestAuthMiddleware(t *testing.T) {
	validator := &mockTokenValidator{tokens: map[string]models.Role{"good": models.RoleAdmin}}

	tests := []struct {
		name           string
		allowQuery     bool
		setupRequest   func(r *http.Request)
		target         string
		expectedStatus int
	}{
		{
			name:           "bearer header",
			setupRequest:   func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "cookie",
			setupRequest:   func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "access_token", Value: "good"}) },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "query allowed",
			allowQuery:     true,
			target:         "/?access_token=good",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "query not allowed",
			target:         "/?access_token=good",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing token",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid token",
			setupRequest:   func(r *http.Request) { r.Header.Set("Authorization", "Bearer bad") },
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var userID int
			var role models.Role
			handler := AuthMiddleware(validator, tt.allowQuery)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				userID, _ = GetUserID(r.Context())
				role, _ = GetRole(r.Context())
			}))

			target := tt.target
			if target == "" {
				target = "/"
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.setupRequest != nil {
				tt.setupRequest(req)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, 42, userID)
				assert.Equal(t, models.RoleAdmin, role)
			} else {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(models.RoleAdmin)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req.WithContext(WithUser(req.Context(), 1, models.RoleUser)))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req.WithContext(WithUser(req.Context(), 1, models.RoleAdmin)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIKeyMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		configuredKey  string
		providedKey    string
		expectedStatus int
	}{
		{name: "valid key", configuredKey: "secret", providedKey: "secret", expectedStatus: http.StatusOK},
		{name: "wrong key", configuredKey: "secret", providedKey: "other", expectedStatus: http.StatusUnauthorized},
		{name: "missing key", configuredKey: "secret", expectedStatus: http.StatusUnauthorized},
		{name: "no key configured", providedKey: "anything", expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/reminders/trigger", nil)
			if tt.providedKey != "" {
				req.Header.Set("X-API-Key", tt.providedKey)
			}
			w := httptest.NewRecorder()

			APIKeyMiddleware(tt.configuredKey)(okHandler()).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name                string
		allowed             []string
		origin              string
		method              string
		expectedOrigin      string
		expectedCredentials string
		expectedStatus      int
	}{
		{name: "wildcard", allowed: []string{"*"}, origin: "https://a.example", method: http.MethodGet, expectedOrigin: "*", expectedStatus: http.StatusOK},
		{name: "listed origin", allowed: []string{"https://A.example"}, origin: "https://a.example", method: http.MethodGet, expectedOrigin: "https://a.example", expectedCredentials: "true", expectedStatus: http.StatusOK},
		{name: "unlisted origin", allowed: []string{"https://a.example"}, origin: "https://b.example", method: http.MethodGet, expectedStatus: http.StatusOK},
		{name: "no origin", allowed: []string{"*"}, method: http.MethodGet, expectedStatus: http.StatusOK},
		{name: "preflight", allowed: []string{"*"}, origin: "https://a.example", method: http.MethodOptions, expectedOrigin: "*", expectedStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()

			CORSMiddleware(tt.allowed)(okHandler()).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.expectedCredentials, w.Header().Get("Access-Control-Allow-Credentials"))
			assert.Equal(t, RequestIDHeader, w.Header().Get("Access-Control-Expose-Headers"))
		})
	}
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	handler := RequestSizeLimitMiddleware(8)(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	handler := RecoveryMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reminders", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestRecoveryMiddleware_AbortHandler(t *testing.T) {
	handler := RecoveryMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestLoggerMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := LoggerMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/calendar.ics?access_token=secret", nil))

	entries := logs.FilterMessage("HTTP request").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.EqualValues(t, http.StatusTeapot, fields["status"])
		assert.NotContains(t, fields, "query")
		assert.Equal(t, true, fields["query_token"])
	}
}
