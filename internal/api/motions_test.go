package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/convote/go-convote/internal/database"
	"github.com/convote/go-convote/internal/stats"
	"github.com/convote/go-convote/internal/types"
	"github.com/convote/go-convote/internal/voting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func intPtr(i int) *int { return &i }

func newMotionRequest(t *testing.T, method, path, id string, body any) *http.Request {
	t.Helper()

	var buf *bytes.Buffer
	switch v := body.(type) {
	case nil:
		buf = &bytes.Buffer{}
	case string:
		buf = bytes.NewBufferString(v)
	default:
		b, err := json.Marshal(v)
		assert.NoError(t, err)
		buf = bytes.NewBuffer(b)
	}

	req := httptest.NewRequest(method, path, buf)
	req.SetPathValue("id", id)
	return req
}

func TestTransitionMotion(t *testing.T) {
	tcases := []struct {
		name         string
		body         any
		motionStatus string
		casChanged   bool
		expectedCode int
	}{
		{
			name:         "starts voting",
			body:         TransitionRequest{Status: "voting_active"},
			motionStatus: "not_yet_started",
			casChanged:   true,
			expectedCode: http.StatusOK,
		},
		{
			name:         "completes voting",
			body:         TransitionRequest{Status: "voting_complete"},
			motionStatus: "voting_active",
			casChanged:   true,
			expectedCode: http.StatusOK,
		},
		{
			name:         "rejects an illegal step",
			body:         TransitionRequest{Status: "voting_complete"},
			motionStatus: "not_yet_started",
			expectedCode: http.StatusConflict,
		},
		{
			name:         "rejects an unknown status",
			body:         TransitionRequest{Status: "paused"},
			expectedCode: http.StatusConflict,
		},
		{
			name:         "rejects invalid json",
			body:         "invalid json",
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockConVoteRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.motionStatus != "" {
				motion := database.Motion{Id: 1, MeetingId: 1, Status: tc.motionStatus, SeatCount: 1}
				mockRepo.On("GetMotionById", 1).Return(motion, nil).Once()

				if tc.casChanged {
					transReq := tc.body.(TransitionRequest)
					mockRepo.On("TransitionMotionStatus", 1, tc.motionStatus, transReq.Status,
						mock.AnythingOfType("time.Time"), (*time.Time)(nil)).Return(true, nil).Once()

					updated := motion
					updated.Status = transReq.Status
					mockRepo.On("GetMotionById", 1).Return(updated, nil).Once()
				}
			}

			app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

			rr := httptest.NewRecorder()
			app.transitionMotion(rr, newMotionRequest(t, http.MethodPut, "/api/admin/motions/1/status", "1", tc.body))

			assert.Equal(t, tc.expectedCode, rr.Code)

			if tc.expectedCode == http.StatusOK {
				var motion types.Motion
				assert.NoError(t, json.NewDecoder(rr.Body).Decode(&motion))
				assert.Equal(t, tc.body.(TransitionRequest).Status, motion.Status)
			}
		})
	}
}

func TestCastVoteHandler(t *testing.T) {
	activeMotion := database.Motion{
		Id:           1,
		MeetingId:    1,
		Status:       "voting_active",
		SeatCount:    1,
		VotingPoolId: intPtr(5),
	}

	t.Run("creates a ballot and reports its id", func(t *testing.T) {
		mockRepo := &database.MockConVoteRepository{}
		defer mockRepo.AssertExpectations(t)
		mockStats := &stats.MockStatsUpdater{}
		defer mockStats.AssertExpectations(t)

		mockRepo.On("GetMotionById", 1).Return(activeMotion, nil).Once()
		mockRepo.On("IsPoolMember", 5, 7).Return(true, nil).Once()
		mockRepo.On("HasVoted", 7, 1).Return(false, nil).Once()
		mockRepo.On("ListChoicesByMotion", 1).Return([]database.Choice{{Id: 10, MotionId: 1}}, nil).Once()
		mockRepo.On("CreateVote", mock.AnythingOfType("database.CreateVoteParams")).
			Return(database.Vote{Id: "vote-id"}, nil).Once()
		mockStats.On("Incr", stats.MetricVotesCast).Once()

		app := newTestApp(t, mockRepo, mockStats)

		req := newMotionRequest(t, http.MethodPost, "/api/voter/motions/1/vote", "1",
			CastVoteRequest{ChoiceIds: []int{10}})
		req = req.WithContext(withSession(req.Context(), 7, database.RoleVoter))

		rr := httptest.NewRecorder()
		app.castVote(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		var resp CastVoteResponse
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "vote-id", resp.Id)
	})

	t.Run("maps engine errors onto status codes", func(t *testing.T) {
		tcases := []struct {
			name         string
			motionStatus string
			eligible     bool
			hasVoted     bool
			expectedCode int
		}{
			{
				name:         "voting not active",
				motionStatus: "not_yet_started",
				expectedCode: http.StatusConflict,
			},
			{
				name:         "not eligible",
				motionStatus: "voting_active",
				eligible:     false,
				expectedCode: http.StatusForbidden,
			},
			{
				name:         "already voted",
				motionStatus: "voting_active",
				eligible:     true,
				hasVoted:     true,
				expectedCode: http.StatusConflict,
			},
		}

		for _, tc := range tcases {
			t.Run(tc.name, func(t *testing.T) {
				mockRepo := &database.MockConVoteRepository{}
				defer mockRepo.AssertExpectations(t)

				motion := activeMotion
				motion.Status = tc.motionStatus
				mockRepo.On("GetMotionById", 1).Return(motion, nil).Once()
				if tc.motionStatus == "voting_active" {
					mockRepo.On("IsPoolMember", 5, 7).Return(tc.eligible, nil).Once()
				}
				if tc.eligible {
					mockRepo.On("HasVoted", 7, 1).Return(tc.hasVoted, nil).Once()
				}

				app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

				req := newMotionRequest(t, http.MethodPost, "/api/voter/motions/1/vote", "1",
					CastVoteRequest{ChoiceIds: []int{10}})
				req = req.WithContext(withSession(req.Context(), 7, database.RoleVoter))

				rr := httptest.NewRecorder()
				app.castVote(rr, req)

				assert.Equal(t, tc.expectedCode, rr.Code)
			})
		}
	})

	t.Run("rejects a request without a session", func(t *testing.T) {
		app := newTestApp(t, &database.MockConVoteRepository{}, &stats.MockStatsUpdater{})

		req := newMotionRequest(t, http.MethodPost, "/api/voter/motions/1/vote", "1",
			CastVoteRequest{ChoiceIds: []int{10}})

		rr := httptest.NewRecorder()
		app.castVote(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestGetResultsHandler(t *testing.T) {
	t.Run("returns the tally for a completed motion", func(t *testing.T) {
		mockRepo := &database.MockConVoteRepository{}
		defer mockRepo.AssertExpectations(t)

		motion := database.Motion{Id: 1, MeetingId: 1, Status: "voting_complete", SeatCount: 1, VotingPoolId: intPtr(5)}
		mockRepo.On("GetMotionById", 1).Return(motion, nil).Once()
		mockRepo.On("GetVoteTotals", 1).Return(database.VoteTotals{TotalVotes: 10, Abstaining: 2}, nil).Once()
		mockRepo.On("GetChoiceTallies", 1).Return([]database.ChoiceTally{
			{ChoiceId: 10, Name: "X", VoteCount: 5},
			{ChoiceId: 11, Name: "Y", VoteCount: 3},
		}, nil).Once()
		mockRepo.On("CountPoolMembers", 5).Return(10, nil).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

		rr := httptest.NewRecorder()
		app.getResults(rr, newMotionRequest(t, http.MethodGet, "/api/admin/motions/1/results", "1", nil))

		assert.Equal(t, http.StatusOK, rr.Code)

		var results voting.Results
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&results))
		assert.Equal(t, 8, results.TotalVotesForChoices)
		assert.True(t, results.ChoiceResults[0].IsWinner)
	})

	t.Run("results are sealed until voting completes", func(t *testing.T) {
		mockRepo := &database.MockConVoteRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetMotionById", 1).Return(database.Motion{Id: 1, Status: "voting_active"}, nil).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

		rr := httptest.NewRecorder()
		app.getResults(rr, newMotionRequest(t, http.MethodGet, "/api/admin/motions/1/results", "1", nil))

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("unknown motion maps to 404", func(t *testing.T) {
		mockRepo := &database.MockConVoteRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetMotionById", 99).Return(database.Motion{}, sql.ErrNoRows).Once()

		app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

		rr := httptest.NewRecorder()
		app.getResults(rr, newMotionRequest(t, http.MethodGet, "/api/admin/motions/99/results", "99", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestGetVoteStatsHandler(t *testing.T) {
	mockRepo := &database.MockConVoteRepository{}
	defer mockRepo.AssertExpectations(t)

	motion := database.Motion{Id: 1, Status: "voting_active", VotingPoolId: intPtr(5)}
	mockRepo.On("GetMotionById", 1).Return(motion, nil).Once()
	mockRepo.On("GetVoteTotals", 1).Return(database.VoteTotals{TotalVotes: 3}, nil).Once()
	mockRepo.On("CountPoolMembers", 5).Return(6, nil).Once()

	app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

	rr := httptest.NewRecorder()
	app.getVoteStats(rr, newMotionRequest(t, http.MethodGet, "/api/admin/motions/1/vote-stats", "1", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var voteStats voting.VoteStats
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&voteStats))
	assert.Equal(t, 3, voteStats.TotalVotes)
	assert.Equal(t, 50.0, voteStats.ParticipationRate)
}

func TestUpdateMotion_Locked(t *testing.T) {
	mockRepo := &database.MockConVoteRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("GetMotionById", 1).Return(database.Motion{Id: 1, Status: "voting_active"}, nil).Once()

	app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

	body := MotionRequest{Name: "amended", PlannedDurationMins: 15, SeatCount: 1}
	rr := httptest.NewRecorder()
	app.updateMotion(rr, newMotionRequest(t, http.MethodPut, "/api/admin/motions/1", "1", body))

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestCreateChoice_Locked(t *testing.T) {
	mockRepo := &database.MockConVoteRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("GetMotionById", 1).Return(database.Motion{Id: 1, Status: "voting_complete"}, nil).Once()

	app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

	rr := httptest.NewRecorder()
	app.createChoice(rr, newMotionRequest(t, http.MethodPost, "/api/admin/motions/1/choices", "1",
		ChoiceRequest{Name: "option"}))

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestListVoterMotions(t *testing.T) {
	mockRepo := &database.MockConVoteRepository{}
	defer mockRepo.AssertExpectations(t)

	motions := []database.Motion{
		{Id: 1, MeetingId: 1, Status: "voting_active", SeatCount: 1},
		{Id: 2, MeetingId: 1, Status: "voting_active", SeatCount: 1},
	}
	mockRepo.On("ListActiveMotionsForUser", 7).Return(motions, nil).Once()
	mockRepo.On("HasVoted", 7, 1).Return(true, nil).Once()
	mockRepo.On("HasVoted", 7, 2).Return(false, nil).Once()

	app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

	req := httptest.NewRequest(http.MethodGet, "/api/voter/motions", nil)
	req = req.WithContext(withSession(req.Context(), 7, database.RoleVoter))

	rr := httptest.NewRecorder()
	app.listVoterMotions(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp []types.Motion
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Len(t, resp, 2)
	assert.True(t, *resp[0].HasVoted)
	assert.False(t, *resp[1].HasVoted)
}

func TestGetQuorumReportHandler(t *testing.T) {
	mockRepo := &database.MockConVoteRepository{}
	defer mockRepo.AssertExpectations(t)

	now := time.Now().UTC()
	meeting := database.Meeting{
		Id:           1,
		StartDate:    now.Add(-time.Hour),
		EndDate:      now.Add(time.Hour),
		QuorumPoolId: 5,
	}
	mockRepo.On("GetMeetingById", 1).Return(meeting, nil).Once()
	mockRepo.On("CountPoolMembers", 5).Return(10, nil).Once()
	mockRepo.On("CountActiveVoters", 5, meeting.StartDate, mock.AnythingOfType("time.Time")).
		Return(4, nil).Once()

	app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

	rr := httptest.NewRecorder()
	app.getQuorumReport(rr, newMotionRequest(t, http.MethodGet, "/api/admin/meetings/1/quorum", "1", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var report voting.QuorumReport
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&report))
	assert.Equal(t, 4, report.ActiveVoterCount)
	assert.Equal(t, 40.0, report.ActiveVoterPercentage)
}

func TestCallQuorumHandler(t *testing.T) {
	mockRepo := &database.MockConVoteRepository{}
	defer mockRepo.AssertExpectations(t)

	calledAt := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	meeting := database.Meeting{
		Id:           1,
		StartDate:    calledAt.Add(-time.Hour),
		EndDate:      calledAt.Add(time.Hour),
		QuorumPoolId: 5,
	}
	frozen := meeting
	frozen.QuorumCalledAt = &calledAt

	mockRepo.On("GetMeetingById", 1).Return(meeting, nil).Once()
	mockRepo.On("SetQuorumCalledAt", 1, &calledAt).Return(nil).Once()
	mockRepo.On("GetMeetingById", 1).Return(frozen, nil).Once()
	mockRepo.On("CountPoolMembers", 5).Return(10, nil).Once()
	mockRepo.On("CountActiveVoters", 5, meeting.StartDate, calledAt).Return(4, nil).Once()

	app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

	rr := httptest.NewRecorder()
	app.callQuorum(rr, newMotionRequest(t, http.MethodPut, "/api/admin/meetings/1/quorum", "1",
		CallQuorumRequest{CalledAt: &calledAt}))

	assert.Equal(t, http.StatusOK, rr.Code)

	var report voting.QuorumReport
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&report))
	assert.Equal(t, &calledAt, report.QuorumCalledAt)
	assert.Equal(t, 4, report.ActiveVoterCount)
}

func TestGetWatcherMotion(t *testing.T) {
	mockRepo := &database.MockConVoteRepository{}
	defer mockRepo.AssertExpectations(t)

	motion := database.Motion{Id: 1, MeetingId: 1, Status: "voting_active", SeatCount: 1, VotingPoolId: intPtr(5)}
	mockRepo.On("GetMotionById", 1).Return(motion, nil).Twice()
	mockRepo.On("ListChoicesByMotion", 1).Return([]database.Choice{{Id: 10, MotionId: 1, Name: "X"}}, nil).Once()
	mockRepo.On("GetVoteTotals", 1).Return(database.VoteTotals{TotalVotes: 3}, nil).Once()
	mockRepo.On("CountPoolMembers", 5).Return(6, nil).Once()

	app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

	rr := httptest.NewRecorder()
	app.getWatcherMotion(rr, newMotionRequest(t, http.MethodGet, "/api/watcher/motions/1", "1", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp WatcherMotion
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Len(t, resp.Motion.Choices, 1)
	assert.NotNil(t, resp.VoteStats)
	assert.Equal(t, 3, resp.VoteStats.TotalVotes)
}

func TestGetWatcherVoters(t *testing.T) {
	mockRepo := &database.MockConVoteRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("GetMotionById", 1).Return(database.Motion{Id: 1, Status: "voting_active"}, nil).Once()
	mockRepo.On("ListVotersByMotion", 1).Return([]database.User{
		{Id: 7, Username: "alice", Role: database.RoleVoter},
	}, nil).Once()

	app := newTestApp(t, mockRepo, &stats.MockStatsUpdater{})

	rr := httptest.NewRecorder()
	app.getWatcherVoters(rr, newMotionRequest(t, http.MethodGet, "/api/watcher/motions/1/voters", "1", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var voters []types.User
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&voters))
	assert.Len(t, voters, 1)
	assert.Equal(t, "alice", voters[0].Username)
}
