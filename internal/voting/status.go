package voting

import (
	"time"

	"github.com/convote/go-convote/internal/database"
)

// Status is a motion's lifecycle state. Transitions are strictly forward:
// NotYetStarted -> VotingActive -> VotingComplete.
type Status string

const (
	StatusNotYetStarted  Status = "not_yet_started"
	StatusVotingActive   Status = "voting_active"
	StatusVotingComplete Status = "voting_complete"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNotYetStarted, StatusVotingActive, StatusVotingComplete:
		return true
	}
	return false
}

// prev returns the single state a legal transition to s may come from.
func (s Status) prev() (Status, bool) {
	switch s {
	case StatusVotingActive:
		return StatusNotYetStarted, true
	case StatusVotingComplete:
		return StatusVotingActive, true
	}
	return "", false
}

// EffectiveDeadline is the advisory voting deadline: the end override if
// one was supplied, otherwise voting start plus the planned duration.
// Closing a vote is always an explicit transition, never a timeout.
func EffectiveDeadline(m database.Motion) *time.Time {
	if m.EndOverride != nil {
		return m.EndOverride
	}
	if m.VotingStartedAt != nil {
		t := m.VotingStartedAt.Add(time.Duration(m.PlannedDurationMins) * time.Minute)
		return &t
	}
	return nil
}
