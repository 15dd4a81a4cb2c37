package voting

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/convote/go-convote/internal/database"
	"github.com/google/uuid"
)

// Engine owns every status-gated operation on motions: transitions, ballot
// casting, statistics, results and quorum estimation. All reads and writes
// go through the repository; the engine holds no state of its own.
type Engine struct {
	db  database.ConVoteRepository
	now func() time.Time
}

func NewEngine(db database.ConVoteRepository) *Engine {
	return &Engine{db: db, now: time.Now}
}

// Transition moves a motion to the requested status. Only the single legal
// forward step is permitted; anything else fails with ErrInvalidTransition
// and leaves the motion unchanged. The update is a compare-and-set on the
// prior status, so two concurrent requests cannot both succeed.
func (e *Engine) Transition(motionId int, to Status, endOverride *time.Time) (database.Motion, error) {
	if !to.Valid() {
		return database.Motion{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}

	motion, err := e.db.GetMotionById(motionId)
	if err != nil {
		return database.Motion{}, translateNoRows(err)
	}

	from, ok := to.prev()
	if !ok || Status(motion.Status) != from {
		return database.Motion{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, motion.Status, to)
	}

	if to != StatusVotingActive {
		// end_override is only accepted when starting a vote
		endOverride = nil
	}

	changed, err := e.db.TransitionMotionStatus(motionId, string(from), string(to), e.now().UTC(), endOverride)
	if err != nil {
		return database.Motion{}, err
	}
	if !changed {
		// another request won the compare-and-set
		return database.Motion{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, motion.Status, to)
	}

	return e.db.GetMotionById(motionId)
}

// CastVote records one immutable ballot for the user on the motion.
// Preconditions are checked in a fixed order so each failure surfaces as
// its own error; the final arbiter for double voting is the storage-layer
// uniqueness constraint, reported here as ErrAlreadyVoted. Returns the
// opaque id of the created ballot.
func (e *Engine) CastVote(userId, motionId int, choiceIds []int, abstain bool) (string, error) {
	motion, err := e.db.GetMotionById(motionId)
	if err != nil {
		return "", translateNoRows(err)
	}

	if Status(motion.Status) != StatusVotingActive {
		return "", ErrVotingNotActive
	}

	poolId, err := e.EffectivePoolId(motion)
	if err != nil {
		return "", err
	}

	eligible, err := e.db.IsPoolMember(poolId, userId)
	if err != nil {
		return "", err
	}
	if !eligible {
		return "", ErrNotEligible
	}

	voted, err := e.db.HasVoted(userId, motionId)
	if err != nil {
		return "", err
	}
	if voted {
		return "", ErrAlreadyVoted
	}

	if abstain {
		if len(choiceIds) != 0 {
			return "", fmt.Errorf("%w: abstaining ballot cannot select choices", ErrInvalidChoiceSelection)
		}
	} else {
		if err := e.validateSelection(motion, choiceIds); err != nil {
			return "", err
		}
	}

	vote, err := e.db.CreateVote(database.CreateVoteParams{
		VoteId:    uuid.NewString(),
		UserId:    userId,
		MotionId:  motionId,
		IsAbstain: abstain,
		ChoiceIds: choiceIds,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicateVote) {
			return "", ErrAlreadyVoted
		}
		return "", err
	}

	return vote.Id, nil
}

func (e *Engine) validateSelection(motion database.Motion, choiceIds []int) error {
	if len(choiceIds) < 1 || len(choiceIds) > motion.SeatCount {
		return fmt.Errorf("%w: expected between 1 and %d choices, got %d",
			ErrInvalidChoiceSelection, motion.SeatCount, len(choiceIds))
	}

	seen := make(map[int]bool, len(choiceIds))
	for _, id := range choiceIds {
		if seen[id] {
			return fmt.Errorf("%w: duplicate choice id %d", ErrInvalidChoiceSelection, id)
		}
		seen[id] = true
	}

	choices, err := e.db.ListChoicesByMotion(motion.Id)
	if err != nil {
		return err
	}

	valid := make(map[int]bool, len(choices))
	for _, c := range choices {
		valid[c.Id] = true
	}
	for _, id := range choiceIds {
		if !valid[id] {
			return fmt.Errorf("%w: choice %d does not belong to motion %d",
				ErrInvalidChoiceSelection, id, motion.Id)
		}
	}

	return nil
}

// VoteStats is the privacy-preserving live view of a motion's turnout:
// ballot count and participation only, never a per-choice breakdown.
type VoteStats struct {
	TotalVotes        int     `json:"total_votes"`
	EligibleVoters    int     `json:"eligible_voters"`
	ParticipationRate float64 `json:"participation_rate"`
}

// MotionVoteStats reports turnout for a motion in voting_active or
// voting_complete status.
func (e *Engine) MotionVoteStats(motionId int) (VoteStats, error) {
	motion, err := e.db.GetMotionById(motionId)
	if err != nil {
		return VoteStats{}, translateNoRows(err)
	}

	if Status(motion.Status) == StatusNotYetStarted {
		return VoteStats{}, ErrVotingNotActive
	}

	totals, err := e.db.GetVoteTotals(motionId)
	if err != nil {
		return VoteStats{}, err
	}

	poolId, err := e.EffectivePoolId(motion)
	if err != nil {
		return VoteStats{}, err
	}

	eligible, err := e.db.CountPoolMembers(poolId)
	if err != nil {
		return VoteStats{}, err
	}

	return VoteStats{
		TotalVotes:        totals.TotalVotes,
		EligibleVoters:    eligible,
		ParticipationRate: percentage(totals.TotalVotes, eligible),
	}, nil
}

// EnsureMotionEditable returns the motion if its configuration may still
// change, i.e. voting has not started. Used by the CRUD layer to guard
// motion and choice edits.
func (e *Engine) EnsureMotionEditable(motionId int) (database.Motion, error) {
	motion, err := e.db.GetMotionById(motionId)
	if err != nil {
		return database.Motion{}, translateNoRows(err)
	}

	if Status(motion.Status) != StatusNotYetStarted {
		return database.Motion{}, ErrMotionLocked
	}

	return motion, nil
}

// EffectivePoolId resolves the pool that governs eligibility for a motion:
// its own voting pool or, when absent, the meeting's quorum pool.
func (e *Engine) EffectivePoolId(motion database.Motion) (int, error) {
	if motion.VotingPoolId != nil {
		return *motion.VotingPoolId, nil
	}

	meeting, err := e.db.GetMeetingById(motion.MeetingId)
	if err != nil {
		return 0, translateNoRows(err)
	}

	return meeting.QuorumPoolId, nil
}

func percentage(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator) * 100
}

func translateNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
