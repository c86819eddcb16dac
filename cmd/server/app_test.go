package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/wordwise-srs/internal/config"
	"github.com/phrazzld/wordwise-srs/internal/domain"
	"github.com/phrazzld/wordwise-srs/internal/platform/database"
	"github.com/phrazzld/wordwise-srs/internal/platform/logger"
	"github.com/phrazzld/wordwise-srs/internal/service/study"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:               8080,
			LogLevel:           "debug",
			CORSAllowedOrigins: []string{"https://app.example.com"},
		},
		Database: config.DatabaseConfig{Driver: "sqlite", URL: ":memory:", MaxOpenConns: 1},
		Auth: config.AuthConfig{
			JWTSecret:            "server-test-secret-at-least-32-chars",
			TokenLifetimeMinutes: 60,
		},
		SRS: config.SRSConfig{
			InitialEaseFactor:      2.5,
			MinEaseFactor:          1.3,
			HardIntervalMultiplier: 1.2,
			EasyBonus:              1.5,
		},
		Study: config.StudyConfig{
			PersonaLimits:          map[string]int{"beginner": 3, "casual": 20, "serious": 30},
			ForecastFallbackPerDay: 5,
			ForecastDays:           30,
			DefaultTimeZone:        "UTC",
		},
		Reminder: config.ReminderConfig{Enabled: false},
	}
}

func newTestApplication(t *testing.T) *application {
	t.Helper()
	ctx := context.Background()
	cfg := testConfig()
	log, _ := logger.NewTestLogger()

	db, err := database.Open(ctx, cfg.Database, log)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db, cfg.Database.Driver, log))

	app, err := newApplication(cfg, log, db)
	require.NoError(t, err)
	t.Cleanup(app.cleanup)
	return app
}

func TestRouter(t *testing.T) {
	app := newTestApplication(t)
	router := app.setupRouter()

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
	})

	t.Run("api requires a token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("cors preflight", func(t *testing.T) {
		tests := []struct {
			name        string
			origin      string
			allowOrigin string
		}{
			{name: "allowed origin", origin: "https://app.example.com", allowOrigin: "https://app.example.com"},
			{name: "other origin", origin: "https://evil.example.com", allowOrigin: ""},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req := httptest.NewRequest(http.MethodOptions, "/api/profile", nil)
				req.Header.Set("Origin", tt.origin)
				req.Header.Set("Access-Control-Request-Method", http.MethodGet)
				// Browsers send the requested header names lowercased
				req.Header.Set("Access-Control-Request-Headers", "authorization")
				rec := httptest.NewRecorder()

				router.ServeHTTP(rec, req)

				assert.Equal(t, tt.allowOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			})
		}
	})

	t.Run("authenticated learner", func(t *testing.T) {
		token, err := app.jwtService.GenerateToken(context.Background(), uuid.New())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPut, "/api/profile/preferences",
			strings.NewReader(`{"persona":"beginner"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		req = httptest.NewRequest(http.MethodPost, "/api/words/ephemeral/learn", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"remaining_today":2`)
	})
}

func TestPersonaLimits(t *testing.T) {
	limits, err := personaLimits(map[string]int{"Beginner": 4, "serious": 40})
	require.NoError(t, err)
	assert.Equal(t, 4, limits[domain.PersonaBeginner])
	assert.Equal(t, 40, limits[domain.PersonaSerious])

	_, err = personaLimits(map[string]int{"hardcore": 99})
	assert.ErrorIs(t, err, domain.ErrInvalidPersona)
}

func TestSRSParams(t *testing.T) {
	params := srsParams(testConfig().SRS)
	assert.Zero(t, params.JitterFraction)

	cfg := testConfig().SRS
	cfg.JitterFraction = 0.2
	assert.InDelta(t, 0.2, srsParams(cfg).JitterFraction, 1e-9)
}

func TestLearnerEventsDeliveredInBackground(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	log, buf := logger.NewTestLogger()

	db, err := database.Open(ctx, cfg.Database, log)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db, cfg.Database.Driver, log))

	app, err := newApplication(cfg, log, db)
	require.NoError(t, err)

	userID := uuid.New()
	_, err = app.studyService.SetPreferences(ctx, userID, study.Preferences{Persona: "casual"})
	require.NoError(t, err)
	_, err = app.studyService.LearnWord(ctx, userID, "w-background")
	require.NoError(t, err)

	// cleanup drains the event queue before closing the database
	app.cleanup()

	entries, err := buf.EntriesWithMessage("learner event")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "word.learned", entries[0]["event_type"])
}
