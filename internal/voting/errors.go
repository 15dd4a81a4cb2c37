// Package voting implements the motion lifecycle and results engine: the
// forward-only motion status state machine, the one-ballot-per-voter vote
// ledger, tally and winner computation, the live vote statistics boundary,
// and the activity-log based quorum estimator.
package voting

import "errors"

var (
	// ErrNotFound means a referenced meeting, motion, choice or user does
	// not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition means a motion status change was requested that
	// is not the single legal next step.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrVotingNotActive means a ballot was cast outside the motion's
	// voting_active window.
	ErrVotingNotActive = errors.New("voting is not active")
	// ErrResultsNotAvailable means detailed results were requested before
	// the motion completed.
	ErrResultsNotAvailable = errors.New("results are not available")
	// ErrNotEligible means the user is not a member of the motion's
	// effective voting pool.
	ErrNotEligible = errors.New("user is not eligible to vote")
	// ErrAlreadyVoted means a ballot already exists for this user and
	// motion.
	ErrAlreadyVoted = errors.New("user has already voted")
	// ErrInvalidChoiceSelection means the selected choices are the wrong
	// count for the seat count, contain duplicates, or do not belong to
	// the motion.
	ErrInvalidChoiceSelection = errors.New("invalid choice selection")
	// ErrMotionLocked means a motion's configuration or choices were
	// edited after voting started.
	ErrMotionLocked = errors.New("motion is locked")
)
