package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/convote/go-convote/internal/types"
	"github.com/convote/go-convote/internal/voting"
)

// WatcherMotion is the observer view of a motion: configuration plus live
// turnout, never individual selections.
type WatcherMotion struct {
	Motion    types.Motion      `json:"motion"`
	VoteStats *voting.VoteStats `json:"vote_stats,omitempty"`
}

func (s *ConVoteApp) getWatcherMotion(w http.ResponseWriter, r *http.Request) {
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

	resp := WatcherMotion{Motion: motionResponse(motion)}

	dbChoices, err := s.db.ListChoicesByMotion(motionId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}
	for _, c := range dbChoices {
		resp.Motion.Choices = append(resp.Motion.Choices, choiceResponse(c))
	}

	if voting.Status(motion.Status) != voting.StatusNotYetStarted {
		voteStats, err := s.engine.MotionVoteStats(motionId)
		if err != nil {
			errResp := fromVotingError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		resp.VoteStats = &voteStats
	}

	s.writeJson(w, http.StatusOK, resp)
}

func (s *ConVoteApp) getWatcherResults(w http.ResponseWriter, r *http.Request) {
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

// getWatcherVoters lists who has cast a ballot on a motion. Identity of
// participants is public record for observers; ballot content never is.
func (s *ConVoteApp) getWatcherVoters(w http.ResponseWriter, r *http.Request) {
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

	if voting.Status(motion.Status) == voting.StatusNotYetStarted {
		errResp := fromVotingError(voting.ErrVotingNotActive)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbUsers, err := s.db.ListVotersByMotion(motionId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	voters := make([]types.User, 0, len(dbUsers))
	for _, u := range dbUsers {
		voters = append(voters, types.User{
			Id:       u.Id,
			Username: u.Username,
			Role:     u.Role,
		})
	}

	s.writeJson(w, http.StatusOK, voters)
}
