package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/convote/go-convote/internal/database"
	"github.com/convote/go-convote/internal/types"
	"github.com/convote/go-convote/internal/voting"
)

type MotionRequest struct {
	Name                string `json:"name"`
	Description         string `json:"description"`
	PlannedDurationMins int    `json:"planned_duration_mins"`
	SeatCount           int    `json:"seat_count"`
	VotingPoolId        *int   `json:"voting_pool_id"`
}

type TransitionRequest struct {
	Status      string     `json:"status"`
	EndOverride *time.Time `json:"end_override"`
}

type ChoiceRequest struct {
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

func (r MotionRequest) valid() bool {
	return r.Name != "" && r.PlannedDurationMins > 0 && r.SeatCount > 0
}

func motionResponse(m database.Motion) types.Motion {
	return types.Motion{
		Id:                  m.Id,
		MeetingId:           m.MeetingId,
		Name:                m.Name,
		Description:         m.Description,
		PlannedDurationMins: m.PlannedDurationMins,
		SeatCount:           m.SeatCount,
		VotingPoolId:        m.VotingPoolId,
		Status:              m.Status,
		EndOverride:         m.EndOverride,
		VotingStartedAt:     m.VotingStartedAt,
		VotingEndedAt:       m.VotingEndedAt,
		EffectiveDeadline:   voting.EffectiveDeadline(m),
	}
}

func choiceResponse(c database.Choice) types.Choice {
	return types.Choice{
		Id:        c.Id,
		MotionId:  c.MotionId,
		Name:      c.Name,
		SortOrder: c.SortOrder,
	}
}

func (s *ConVoteApp) listMotions(w http.ResponseWriter, r *http.Request) {
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

	dbMotions, err := s.db.ListMotionsByMeeting(meetingId)
	if err != nil {
		s.log.Println("list motions:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	motions := make([]types.Motion, 0, len(dbMotions))
	for _, m := range dbMotions {
		motions = append(motions, motionResponse(m))
	}

	s.writeJson(w, http.StatusOK, motions)
}

func (s *ConVoteApp) createMotion(w http.ResponseWriter, r *http.Request) {
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

	var req MotionRequest
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

	if req.VotingPoolId != nil {
		if _, err := s.db.GetPoolById(*req.VotingPoolId); err != nil {
			var errResp *ApiError
			if errors.Is(err, sql.ErrNoRows) {
				errResp = NewNotFoundError()
			} else {
				errResp = NewInternalServerError(err)
			}
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}

	motion, err := s.db.CreateMotion(database.CreateMotionParams{
		MeetingId:           meetingId,
		Name:                req.Name,
		Description:         req.Description,
		PlannedDurationMins: req.PlannedDurationMins,
		SeatCount:           req.SeatCount,
		VotingPoolId:        req.VotingPoolId,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, motionResponse(motion))
}

func (s *ConVoteApp) getMotion(w http.ResponseWriter, r *http.Request) {
	motionId, err := pathId(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	motion, err := s.db.GetMotionById(motionId)
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

	resp := motionResponse(motion)

	dbChoices, err := s.db.ListChoicesByMotion(motionId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}
	for _, c := range dbChoices {
		resp.Choices = append(resp.Choices, choiceResponse(c))
	}

	s.writeJson(w, http.StatusOK, resp)
}

func (s *ConVoteApp) updateMotion(w http.ResponseWriter, r *http.Request) {
	motionId, err := pathId(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.engine.EnsureMotionEditable(motionId); err != nil {
		errResp := fromVotingError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req MotionRequest
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

	motion, err := s.db.UpdateMotion(database.UpdateMotionParams{
		MotionId:            motionId,
		Name:                req.Name,
		Description:         req.Description,
		PlannedDurationMins: req.PlannedDurationMins,
		SeatCount:           req.SeatCount,
		VotingPoolId:        req.VotingPoolId,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, motionResponse(motion))
}

func (s *ConVoteApp) deleteMotion(w http.ResponseWriter, r *http.Request) {
	motionId, err := pathId(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.engine.EnsureMotionEditable(motionId); err != nil {
		errResp := fromVotingError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.DeleteMotion(motionId); err != nil {
		s.log.Println("delete motion:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *ConVoteApp) transitionMotion(w http.ResponseWriter, r *http.Request) {
	motionId, err := pathId(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	motion, err := s.engine.Transition(motionId, voting.Status(req.Status), req.EndOverride)
	if err != nil {
		errResp := fromVotingError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, motionResponse(motion))
}

func (s *ConVoteApp) getVoteStats(w http.ResponseWriter, r *http.Request) {
	motionId, err := pathId(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	voteStats, err := s.engine.MotionVoteStats(motionId)
	if err != nil {
		errResp := fromVotingError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, voteStats)
}

func (s *ConVoteApp) getResults(w http.ResponseWriter, r *http.Request) {
	motionId, err := pathId(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	results, err := s.engine.DetailedResults(motionId)
	if err != nil {
		errResp := fromVotingError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, results)
}

func (s *ConVoteApp) listChoices(w http.ResponseWriter, r *http.Request) {
	motionId, err := pathId(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.GetMotionById(motionId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbChoices, err := s.db.ListChoicesByMotion(motionId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	choices := make([]types.Choice, 0, len(dbChoices))
	for _, c := range dbChoices {
		choices = append(choices, choiceResponse(c))
	}

	s.writeJson(w, http.StatusOK, choices)
}

func (s *ConVoteApp) createChoice(w http.ResponseWriter, r *http.Request) {
	motionId, err := pathId(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.engine.EnsureMotionEditable(motionId); err != nil {
		errResp := fromVotingError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req ChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Name == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	choice, err := s.db.CreateChoice(motionId, req.Name, req.SortOrder)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, choiceResponse(choice))
}

func (s *ConVoteApp) updateChoice(w http.ResponseWriter, r *http.Request) {
	choiceId, err := pathId(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	choice, err := s.db.GetChoiceById(choiceId)
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

	if _, err := s.engine.EnsureMotionEditable(choice.MotionId); err != nil {
		errResp := fromVotingError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req ChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Name == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	updated, err := s.db.UpdateChoice(choiceId, req.Name, req.SortOrder)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, choiceResponse(updated))
}

func (s *ConVoteApp) deleteChoice(w http.ResponseWriter, r *http.Request) {
	choiceId, err := pathId(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	choice, err := s.db.GetChoiceById(choiceId)
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

	if _, err := s.engine.EnsureMotionEditable(choice.MotionId); err != nil {
		errResp := fromVotingError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.DeleteChoice(choiceId); err != nil {
		s.log.Println("delete choice:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}
