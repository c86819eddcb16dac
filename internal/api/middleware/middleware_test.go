package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/wordwise-srs/internal/api/shared"
	"github.com/phrazzld/wordwise-srs/internal/config"
	"github.com/phrazzld/wordwise-srs/internal/platform/logger"
	"github.com/phrazzld/wordwise-srs/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret-at-least-32-chars"

func newJWTService(t *testing.T, now func() time.Time) auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTServiceWithClock(config.AuthConfig{
		JWTSecret:            testSecret,
		TokenLifetimeMinutes: 60,
	}, now)
	require.NoError(t, err)
	return svc
}

func echoUserID(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.GetUserID(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	_, _ = w.Write([]byte(userID.String()))
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()
	svc := newJWTService(t, time.Now)
	validToken, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)

	expiredSvc := newJWTService(t, func() time.Time { return time.Now().Add(-3 * time.Hour) })
	expiredToken, err := expiredSvc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)

	handler := NewAuthMiddleware(svc).Authenticate(http.HandlerFunc(echoUserID))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{name: "valid token", header: "Bearer " + validToken, wantStatus: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + validToken, wantStatus: http.StatusOK},
		{name: "missing header", wantStatus: http.StatusUnauthorized, wantError: "Authorization header required"},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantError: "Invalid authorization format"},
		{name: "empty token", header: "Bearer ", wantStatus: http.StatusUnauthorized, wantError: "Invalid authorization format"},
		{name: "garbage token", header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized, wantError: "Invalid token"},
		{name: "expired token", header: "Bearer " + expiredToken, wantStatus: http.StatusUnauthorized, wantError: "Token expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError == "" {
				assert.Equal(t, userID.String(), rec.Body.String())
				return
			}
			var body shared.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantError, body.Error)
		})
	}
}

func TestTraceMiddleware(t *testing.T) {
	log, buf := logger.NewTestLogger()

	var seenTraceID string
	var seenLogger bool
	handler := TraceMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTraceID = shared.GetTraceID(r.Context())
		seenLogger = logger.FromContext(r.Context()) != slog.Default()
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Len(t, seenTraceID, shared.TraceIDLength*2)
	assert.True(t, seenLogger)
	assert.Equal(t, seenTraceID, rec.Header().Get("X-Trace-ID"))

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, seenTraceID, entries[0]["trace_id"])
}

func TestNewAuthMiddlewarePanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewAuthMiddleware(nil) })
}
