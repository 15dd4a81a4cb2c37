package database

import "time"

const (
	RoleAdmin   = "admin"
	RoleVoter   = "voter"
	RoleWatcher = "watcher"
)

type User struct {
	Id           int
	Username     string
	EmailAddress string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Pool struct {
	Id        int
	Name      string
	CreatedAt time.Time
}

type Meeting struct {
	Id             int
	Name           string
	Description    string
	StartDate      time.Time
	EndDate        time.Time
	QuorumPoolId   int
	QuorumCalledAt *time.Time
}

type Motion struct {
	Id                  int
	MeetingId           int
	Name                string
	Description         string
	PlannedDurationMins int
	SeatCount           int
	VotingPoolId        *int
	Status              string
	EndOverride         *time.Time
	VotingStartedAt     *time.Time
	VotingEndedAt       *time.Time
}

type Choice struct {
	Id        int
	MotionId  int
	Name      string
	SortOrder int
}

// Vote is a single immutable ballot. Its selected choices live in the
// vote_choices association table and are never read back per voter.
type Vote struct {
	Id        string
	UserId    int
	MotionId  int
	IsAbstain bool
	CreatedAt time.Time
}

type ActivityLogEntry struct {
	Id        int
	UserId    int
	UrlPath   string
	CreatedAt time.Time
}

// Settings is the single-row site configuration record. It lives in the
// database so every process observes the same value.
type Settings struct {
	LoginEnabled bool
}

type CreateUserParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
	Role         string
}

type UpdateUserParams struct {
	UserId       int
	Username     string
	EmailAddress string
	PasswordHash string
	Role         string
}

type CreateMeetingParams struct {
	Name         string
	Description  string
	StartDate    time.Time
	EndDate      time.Time
	QuorumPoolId int
}

type UpdateMeetingParams struct {
	MeetingId    int
	Name         string
	Description  string
	StartDate    time.Time
	EndDate      time.Time
	QuorumPoolId int
}

type CreateMotionParams struct {
	MeetingId           int
	Name                string
	Description         string
	PlannedDurationMins int
	SeatCount           int
	VotingPoolId        *int
}

type UpdateMotionParams struct {
	MotionId            int
	Name                string
	Description         string
	PlannedDurationMins int
	SeatCount           int
	VotingPoolId        *int
}

type CreateVoteParams struct {
	VoteId    string
	UserId    int
	MotionId  int
	IsAbstain bool
	ChoiceIds []int
}

// ChoiceTally is the per-choice ballot count for a motion.
type ChoiceTally struct {
	ChoiceId  int
	Name      string
	SortOrder int
	VoteCount int
}

// VoteTotals are the aggregate ballot counts for a motion.
type VoteTotals struct {
	TotalVotes int
	Abstaining int
}

// ActiveVoter is one row of the quorum roster: a pool member with at least
// one logged request inside the activity window.
type ActiveVoter struct {
	UserId       int
	Username     string
	LastActivity time.Time
}
