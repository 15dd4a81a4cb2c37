package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"mime/multipart"
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

func Test_healthCheck(t *testing.T) {
	tcases := []struct {
		name    string
		mockErr error
	}{
		{
			name:    "successful health check",
			mockErr: nil,
		},
		{
			name:    "failed health check",
			mockErr: errors.New("db error"),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockConVoteRepository{}
			defer mockRepo.AssertExpectations(t)

			mockRepo.On("Ping").Return(tc.mockErr).Once()

			app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
			rr := httptest.NewRecorder()
			app.healthCheck(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if tc.mockErr != nil {
				assert.Equal(t, http.StatusInternalServerError, rr.Code)
			} else {
				assert.Equal(t, http.StatusOK, rr.Code)
				assert.Equal(t, "OK", rr.Body.String())
			}
		})
	}
}

func TestCreateUser(t *testing.T) {
	expectedUser := database.User{
		Id:           1,
		Username:     "newuser",
		EmailAddress: "newuser@example.com",
		PasswordHash: "hashedpassword",
		Role:         database.RoleVoter,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	tcases := []struct {
		name         string
		body         any
		mockUser     database.User
		mockErr      error
		expectedCode int
	}{
		{
			name: "successfully creates a user",
			body: CreateUserRequest{
				Username: expectedUser.Username,
				Email:    expectedUser.EmailAddress,
				Password: "password",
				Role:     database.RoleVoter,
			},
			mockUser:     expectedUser,
			expectedCode: http.StatusCreated,
		},
		{
			name:         "invalid json body",
			body:         "invalid json",
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "missing username",
			body: CreateUserRequest{
				Email:    expectedUser.EmailAddress,
				Password: "password",
				Role:     database.RoleVoter,
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "unknown role",
			body: CreateUserRequest{
				Username: expectedUser.Username,
				Email:    expectedUser.EmailAddress,
				Password: "password",
				Role:     "superuser",
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "db error",
			body: CreateUserRequest{
				Username: expectedUser.Username,
				Email:    expectedUser.EmailAddress,
				Password: "password",
				Role:     database.RoleVoter,
			},
			mockErr:      errors.New("db error"),
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockConVoteRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.mockUser != (database.User{}) || tc.mockErr != nil {
				createReq := tc.body.(CreateUserRequest)
				mockRepo.On("CreateUser", mock.MatchedBy(func(p database.CreateUserParams) bool {
					return p.Username == createReq.Username &&
						p.EmailAddress == createReq.Email &&
						p.Role == createReq.Role &&
						verifyPassword(p.PasswordHash, createReq.Password)
				})).Return(tc.mockUser, tc.mockErr).Once()
			}

			app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

			var req *http.Request
			switch v := tc.body.(type) {
			case string:
				req = httptest.NewRequest(http.MethodPost, "/api/admin/users", bytes.NewBufferString(v))
			default:
				body, err := json.Marshal(v)
				assert.NoError(t, err)
				req = httptest.NewRequest(http.MethodPost, "/api/admin/users", bytes.NewBuffer(body))
			}

			rr := httptest.NewRecorder()
			app.createUser(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code)

			if tc.expectedCode == http.StatusCreated {
				var user types.User
				assert.NoError(t, json.NewDecoder(rr.Body).Decode(&user))
				assert.Equal(t, expectedUser.Id, user.Id)
				assert.Equal(t, expectedUser.Username, user.Username)
				assert.Equal(t, expectedUser.Role, user.Role)
			}
		})
	}
}

func TestGetUser(t *testing.T) {
	tcases := []struct {
		name         string
		pathId       string
		mockUser     database.User
		mockErr      error
		expectedCode int
	}{
		{
			name:         "successfully retrieves a user",
			pathId:       "1",
			mockUser:     database.User{Id: 1, Username: "alice", Role: database.RoleVoter},
			expectedCode: http.StatusOK,
		},
		{
			name:         "non-numeric id",
			pathId:       "abc",
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "unknown user",
			pathId:       "99",
			mockErr:      sql.ErrNoRows,
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockConVoteRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.mockUser != (database.User{}) || tc.mockErr != nil {
				mockRepo.On("GetUserById", mock.AnythingOfType("int")).Return(tc.mockUser, tc.mockErr).Once()
			}

			app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

			req := httptest.NewRequest(http.MethodGet, "/api/admin/users/"+tc.pathId, nil)
			req.SetPathValue("id", tc.pathId)

			rr := httptest.NewRecorder()
			app.getUser(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code)
		})
	}
}

func TestListUsers_Pagination(t *testing.T) {
	tcases := []struct {
		name           string
		query          string
		expectedLimit  int
		expectedOffset int
		expectedCode   int
	}{
		{
			name:          "defaults applied",
			query:         "",
			expectedLimit: defaultPageSize,
			expectedCode:  http.StatusOK,
		},
		{
			name:           "explicit limit and offset",
			query:          "?limit=10&offset=20",
			expectedLimit:  10,
			expectedOffset: 20,
			expectedCode:   http.StatusOK,
		},
		{
			name:          "limit capped at the maximum",
			query:         "?limit=10000",
			expectedLimit: maxPageSize,
			expectedCode:  http.StatusOK,
		},
		{
			name:         "invalid limit",
			query:        "?limit=zero",
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "negative offset",
			query:        "?offset=-1",
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockConVoteRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.expectedCode == http.StatusOK {
				mockRepo.On("ListUsers", tc.expectedLimit, tc.expectedOffset).
					Return([]database.User{}, nil).Once()
			}

			app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

			rr := httptest.NewRecorder()
			app.listUsers(rr, httptest.NewRequest(http.MethodGet, "/api/admin/users"+tc.query, nil))

			assert.Equal(t, tc.expectedCode, rr.Code)
		})
	}
}

func TestImportUsers(t *testing.T) {
	newImportRequest := func(t *testing.T, csvBody string) *http.Request {
		t.Helper()
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		fw, err := mw.CreateFormFile("file", "users.csv")
		assert.NoError(t, err)
		_, err = fw.Write([]byte(csvBody))
		assert.NoError(t, err)
		assert.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/admin/users/import", buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req
	}

	t.Run("creates voter accounts from csv rows", func(t *testing.T) {
		mockRepo := &database.MockConVoteRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("CreateUser", mock.MatchedBy(func(p database.CreateUserParams) bool {
			return p.Username == "alice" && p.EmailAddress == "alice@example.com" &&
				p.Role == database.RoleVoter && verifyPassword(p.PasswordHash, "generated")
		})).Return(database.User{Id: 1, Username: "alice", Role: database.RoleVoter}, nil).Once()
		mockRepo.On("CreateUser", mock.MatchedBy(func(p database.CreateUserParams) bool {
			return p.Username == "bob" && p.EmailAddress == "bob@example.com"
		})).Return(database.User{Id: 2, Username: "bob", Role: database.RoleVoter}, nil).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})
		app.generatePassword = func() (string, error) { return "generated", nil }

		rr := httptest.NewRecorder()
		app.importUsers(rr, newImportRequest(t, "username,email\nalice,alice@example.com\nbob,bob@example.com\n"))

		assert.Equal(t, http.StatusCreated, rr.Code)

		var imported []types.ImportedUser
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&imported))
		assert.Len(t, imported, 2)
		assert.Equal(t, "alice", imported[0].User.Username)
		assert.Equal(t, "generated", imported[0].InitialPassword)
	})

	t.Run("rejects a malformed row", func(t *testing.T) {
		app := newTestApp(t, &database.MockConVoteRepository{}, &stats.MockStatsUpdater{})
		app.generatePassword = func() (string, error) { return "generated", nil }

		rr := httptest.NewRecorder()
		app.importUsers(rr, newImportRequest(t, "alice,alice@example.com,extra-field\n"))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects a request without a file", func(t *testing.T) {
		app := newTestApp(t, &database.MockConVoteRepository{}, &stats.MockStatsUpdater{})

		req := httptest.NewRequest(http.MethodPost, "/api/admin/users/import", nil)
		rr := httptest.NewRecorder()
		app.importUsers(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSettings(t *testing.T) {
	t.Run("returns the stored settings", func(t *testing.T) {
		mockRepo := &database.MockConVoteRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetSettings").Return(database.Settings{LoginEnabled: true}, nil).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

		rr := httptest.NewRecorder()
		app.getSettings(rr, httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp SettingsResponse
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.True(t, resp.LoginEnabled)
	})

	t.Run("persists an update", func(t *testing.T) {
		mockRepo := &database.MockConVoteRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("UpdateSettings", database.Settings{LoginEnabled: false}).Return(nil).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

		body, err := json.Marshal(SettingsResponse{LoginEnabled: false})
		assert.NoError(t, err)

		rr := httptest.NewRecorder()
		app.updateSettings(rr, httptest.NewRequest(http.MethodPut, "/api/admin/settings", bytes.NewBuffer(body)))

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestReplacePoolMembers(t *testing.T) {
	tcases := []struct {
		name         string
		body         any
		mockPool     database.Pool
		mockPoolErr  error
		mockErr      error
		expectedCode int
	}{
		{
			name:         "successfully replaces the roster",
			body:         ReplacePoolMembersRequest{UserIds: []int{1, 2, 3}},
			mockPool:     database.Pool{Id: 1, Name: "delegates"},
			expectedCode: http.StatusNoContent,
		},
		{
			name:         "invalid json body",
			body:         "invalid json",
			mockPool:     database.Pool{Id: 1, Name: "delegates"},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "unknown pool",
			body:         ReplacePoolMembersRequest{UserIds: []int{1}},
			mockPoolErr:  sql.ErrNoRows,
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockConVoteRepository{}
			defer mockRepo.AssertExpectations(t)

			mockRepo.On("GetPoolById", 1).Return(tc.mockPool, tc.mockPoolErr).Once()
			if tc.expectedCode == http.StatusNoContent {
				req := tc.body.(ReplacePoolMembersRequest)
				mockRepo.On("ReplacePoolMembers", 1, req.UserIds).Return(tc.mockErr).Once()
			}

			app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

			var body *bytes.Buffer
			switch v := tc.body.(type) {
			case string:
				body = bytes.NewBufferString(v)
			default:
				b, err := json.Marshal(v)
				assert.NoError(t, err)
				body = bytes.NewBuffer(b)
			}

			req := httptest.NewRequest(http.MethodPut, "/api/admin/pools/1/members", body)
			req.SetPathValue("id", "1")

			rr := httptest.NewRecorder()
			app.replacePoolMembers(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code)
		})
	}
}
