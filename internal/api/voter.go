package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/convote/go-convote/internal/stats"
	"github.com/convote/go-convote/internal/types"
	"github.com/convote/go-convote/internal/voting"
)

type CastVoteRequest struct {
	ChoiceIds []int `json:"choice_ids"`
	Abstain   bool  `json:"abstain"`
}

type CastVoteResponse struct {
	Id string `json:"id"`
}

func (s *ConVoteApp) listVoterMotions(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbMotions, err := s.db.ListActiveMotionsForUser(userId)
	if err != nil {
		s.log.Println("list voter motions:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	motions := make([]types.Motion, 0, len(dbMotions))
	for _, m := range dbMotions {
		voted, err := s.db.HasVoted(userId, m.Id)
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		resp := motionResponse(m)
		resp.HasVoted = &voted
		motions = append(motions, resp)
	}

	s.writeJson(w, http.StatusOK, motions)
}

func (s *ConVoteApp) getVoterMotion(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

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

	poolId, err := s.engine.EffectivePoolId(motion)
	if err != nil {
		errResp := fromVotingError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	eligible, err := s.db.IsPoolMember(poolId, userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}
	if !eligible {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	voted, err := s.db.HasVoted(userId, motionId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	resp := motionResponse(motion)
	resp.HasVoted = &voted

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

func (s *ConVoteApp) castVote(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	motionId, err := pathId(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	voteId, err := s.engine.CastVote(userId, motionId, req.ChoiceIds, req.Abstain)
	if err != nil {
		if !errors.Is(err, voting.ErrAlreadyVoted) {
			s.log.Printf("cast vote: user %d, motion %d: %s", userId, motionId, err)
		}
		errResp := fromVotingError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.stats.Incr(stats.MetricVotesCast)
	s.writeJson(w, http.StatusCreated, CastVoteResponse{Id: voteId})
}
