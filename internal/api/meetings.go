package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/convote/go-convote/internal/database"
	"github.com/convote/go-convote/internal/types"
)

type MeetingRequest struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	QuorumPoolId int       `json:"quorum_pool_id"`
}

type CallQuorumRequest struct {
	CalledAt *time.Time `json:"called_at"`
}

func (r MeetingRequest) valid() bool {
	return r.Name != "" &&
		!r.StartDate.IsZero() &&
		!r.EndDate.IsZero() &&
		r.EndDate.After(r.StartDate) &&
		r.QuorumPoolId > 0
}

func meetingResponse(m database.Meeting) types.Meeting {
	return types.Meeting{
		Id:             m.Id,
		Name:           m.Name,
		Description:    m.Description,
		StartDate:      m.StartDate,
		EndDate:        m.EndDate,
		QuorumPoolId:   m.QuorumPoolId,
		QuorumCalledAt: m.QuorumCalledAt,
	}
}

func (s *ConVoteApp) listMeetings(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbMeetings, err := s.db.ListMeetings(limit, offset)
	if err != nil {
		s.log.Println("list meetings:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	meetings := make([]types.Meeting, 0, len(dbMeetings))
	for _, m := range dbMeetings {
		meetings = append(meetings, meetingResponse(m))
	}

	s.writeJson(w, http.StatusOK, meetings)
}

func (s *ConVoteApp) createMeeting(w http.ResponseWriter, r *http.Request) {
	var req MeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !req.valid() {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.GetPoolById(req.QuorumPoolId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	meeting, err := s.db.CreateMeeting(database.CreateMeetingParams{
		Name:         req.Name,
		Description:  req.Description,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		QuorumPoolId: req.QuorumPoolId,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, meetingResponse(meeting))
}

func (s *ConVoteApp) getMeeting(w http.ResponseWriter, r *http.Request) {
	meetingId, err := pathId(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	meeting, err := s.db.GetMeetingById(meetingId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, meetingResponse(meeting))
}

func (s *ConVoteApp) updateMeeting(w http.ResponseWriter, r *http.Request) {
	meetingId, err := pathId(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.GetMeetingById(meetingId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req MeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !req.valid() {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	meeting, err := s.db.UpdateMeeting(database.UpdateMeetingParams{
		MeetingId:    meetingId,
		Name:         req.Name,
		Description:  req.Description,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		QuorumPoolId: req.QuorumPoolId,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, meetingResponse(meeting))
}

func (s *ConVoteApp) deleteMeeting(w http.ResponseWriter, r *http.Request) {
	meetingId, err := pathId(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.GetMeetingById(meetingId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// cascades to motions, choices and votes
	if err := s.db.DeleteMeeting(meetingId); err != nil {
		s.log.Println("delete meeting:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *ConVoteApp) getQuorumReport(w http.ResponseWriter, r *http.Request) {
	meetingId, err := pathId(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	report, err := s.engine.QuorumReport(meetingId)
	if err != nil {
		errResp := fromVotingError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, report)
}

func (s *ConVoteApp) callQuorum(w http.ResponseWriter, r *http.Request) {
	meetingId, err := pathId(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CallQuorumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.engine.CallQuorum(meetingId, req.CalledAt); err != nil {
		errResp := fromVotingError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	report, err := s.engine.QuorumReport(meetingId)
	if err != nil {
		errResp := fromVotingError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, report)
}

func (s *ConVoteApp) getQuorumVoters(w http.ResponseWriter, r *http.Request) {
	meetingId, err := pathId(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbVoters, err := s.engine.ActiveVoters(meetingId)
	if err != nil {
		errResp := fromVotingError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	voters := make([]types.ActiveVoter, 0, len(dbVoters))
	for _, v := range dbVoters {
		voters = append(voters, types.ActiveVoter{
			UserId:       v.UserId,
			Username:     v.Username,
			LastActivity: v.LastActivity,
		})
	}

	s.writeJson(w, http.StatusOK, voters)
}
