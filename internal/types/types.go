package types

import (
	"time"
)

type User struct {
	Id           int       `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address,omitempty"`
	Role         string    `json:"role"`
	Password     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type Pool struct {
	Id        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type Meeting struct {
	Id             int        `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        time.Time  `json:"end_date"`
	QuorumPoolId   int        `json:"quorum_pool_id"`
	QuorumCalledAt *time.Time `json:"quorum_called_at,omitempty"`
}

type Motion struct {
	Id                  int        `json:"id"`
	MeetingId           int        `json:"meeting_id"`
	Name                string     `json:"name"`
	Description         string     `json:"description,omitempty"`
	PlannedDurationMins int        `json:"planned_duration_mins"`
	SeatCount           int        `json:"seat_count"`
	VotingPoolId        *int       `json:"voting_pool_id,omitempty"`
	Status              string     `json:"status"`
	EndOverride         *time.Time `json:"end_override,omitempty"`
	VotingStartedAt     *time.Time `json:"voting_started_at,omitempty"`
	VotingEndedAt       *time.Time `json:"voting_ended_at,omitempty"`
	EffectiveDeadline   *time.Time `json:"effective_deadline,omitempty"`
	Choices             []Choice   `json:"choices,omitempty"`
	HasVoted            *bool      `json:"has_voted,omitempty"`
}

type Choice struct {
	Id        int    `json:"id"`
	MotionId  int    `json:"motion_id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// ActiveVoter is one entry of the quorum roster: identity and last seen
// activity, no vote content.
type ActiveVoter struct {
	UserId       int       `json:"user_id"`
	Username     string    `json:"username"`
	LastActivity time.Time `json:"last_activity"`
}

// ImportedUser is one row of a CSV import result: the created account and
// its generated initial password, returned once and never stored.
type ImportedUser struct {
	User            User   `json:"user"`
	InitialPassword string `json:"initial_password"`
}
