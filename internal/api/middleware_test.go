package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/convote/go-convote/internal/database"
	"github.com/convote/go-convote/internal/stats"
	"github.com/convote/go-convote/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestAuthMiddleware(t *testing.T) {
	t.Run("rejects a request without a token", func(t *testing.T) {
		app := newTestApp(t, &database.MockConVoteRepository{}, &stats.MockStatsUpdater{})

		handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		})

		rr := httptest.NewRecorder()
		handler(rr, httptest.NewRequest(http.MethodGet, "/api/voter/motions", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("rejects a garbage token", func(t *testing.T) {
		app := newTestApp(t, &database.MockConVoteRepository{}, &stats.MockStatsUpdater{})

		handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		})

		req := httptest.NewRequest(http.MethodGet, "/api/voter/motions", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")

		rr := httptest.NewRecorder()
		handler(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("rejects a role outside the allow list", func(t *testing.T) {
		app := newTestApp(t, &database.MockConVoteRepository{}, &stats.MockStatsUpdater{})

		token, err := app.createJwtForSession(types.User{Id: 1, Role: database.RoleWatcher}, time.Hour)
		assert.NoError(t, err)

		handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}, database.RoleAdmin)

		req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		rr := httptest.NewRecorder()
		handler(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("passes an allowed role and records activity", func(t *testing.T) {
		mockRepo := &database.MockConVoteRepository{}
		defer mockRepo.AssertExpectations(t)
		mockStats := &stats.MockStatsUpdater{}
		defer mockStats.AssertExpectations(t)

		mockRepo.On("CreateActivityLogEntry", 1, "/api/voter/motions", mock.AnythingOfType("time.Time")).
			Return(nil).Once()
		mockStats.On("Incr", stats.MetricApiRequests).Once()

		app := newTestApp(t, mockRepo, mockStats)

		token, err := app.createJwtForSession(types.User{Id: 1, Role: database.RoleVoter}, time.Hour)
		assert.NoError(t, err)

		var gotUserId int
		var gotRole string
		handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			gotUserId, _ = UserId(r.Context())
			gotRole, _ = Role(r.Context())
			w.WriteHeader(http.StatusOK)
		}, database.RoleAdmin, database.RoleVoter)

		req := httptest.NewRequest(http.MethodGet, "/api/voter/motions", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		rr := httptest.NewRecorder()
		handler(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 1, gotUserId)
		assert.Equal(t, database.RoleVoter, gotRole)
		assert.NotEmpty(t, rr.Header().Get("Cache-Control"))
	})

	t.Run("activity log failure does not fail the request", func(t *testing.T) {
		mockRepo := &database.MockConVoteRepository{}
		defer mockRepo.AssertExpectations(t)
		mockStats := &stats.MockStatsUpdater{}
		defer mockStats.AssertExpectations(t)

		mockRepo.On("CreateActivityLogEntry", 1, "/api/voter/motions", mock.AnythingOfType("time.Time")).
			Return(assert.AnError).Once()
		mockStats.On("Incr", stats.MetricApiRequests).Once()

		app := newTestApp(t, mockRepo, mockStats)

		token, err := app.createJwtForSession(types.User{Id: 1, Role: database.RoleVoter}, time.Hour)
		assert.NoError(t, err)

		handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/api/voter/motions", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		rr := httptest.NewRecorder()
		handler(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestErrorHandler(t *testing.T) {
	app := newTestApp(t, &database.MockConVoteRepository{}, &stats.MockStatsUpdater{})

	handler := app.errorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "close", rr.Header().Get("Connection"))
}
