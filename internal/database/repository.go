package database

import (
	"errors"
	"time"
)

// ErrDuplicateVote is returned by CreateVote when the votes table's
// (user_id, motion_id) uniqueness constraint rejects the insert. The
// constraint, not the caller's pre-check, is what closes the race between
// two concurrent casts by the same voter.
var ErrDuplicateVote = errors.New("duplicate vote")

type ConVoteRepository interface {
	Ping() error

	GetSettings() (Settings, error)
	UpdateSettings(settings Settings) error

	CreateUser(params CreateUserParams) (User, error)
	UpdateUser(params UpdateUserParams) (User, error)
	DeleteUser(userId int) error
	GetUserById(userId int) (User, error)
	GetUserByUsername(username string) (User, error)
	ListUsers(limit, offset int) ([]User, error)

	CreatePool(name string) (Pool, error)
	GetPoolById(poolId int) (Pool, error)
	ListPools() ([]Pool, error)
	DeletePool(poolId int) error
	ReplacePoolMembers(poolId int, userIds []int) error
	ListPoolMembers(poolId int) ([]User, error)
	IsPoolMember(poolId, userId int) (bool, error)
	CountPoolMembers(poolId int) (int, error)

	CreateMeeting(params CreateMeetingParams) (Meeting, error)
	UpdateMeeting(params UpdateMeetingParams) (Meeting, error)
	DeleteMeeting(meetingId int) error
	GetMeetingById(meetingId int) (Meeting, error)
	ListMeetings(limit, offset int) ([]Meeting, error)
	SetQuorumCalledAt(meetingId int, calledAt *time.Time) error

	CreateMotion(params CreateMotionParams) (Motion, error)
	UpdateMotion(params UpdateMotionParams) (Motion, error)
	DeleteMotion(motionId int) error
	GetMotionById(motionId int) (Motion, error)
	ListMotionsByMeeting(meetingId int) ([]Motion, error)
	ListActiveMotionsForUser(userId int) ([]Motion, error)
	// TransitionMotionStatus is a compare-and-set: the row is updated only if
	// its status still equals fromStatus. It reports whether a row changed.
	TransitionMotionStatus(motionId int, fromStatus, toStatus string, stamp time.Time, endOverride *time.Time) (bool, error)

	CreateChoice(motionId int, name string, sortOrder int) (Choice, error)
	UpdateChoice(choiceId int, name string, sortOrder int) (Choice, error)
	DeleteChoice(choiceId int) error
	GetChoiceById(choiceId int) (Choice, error)
	ListChoicesByMotion(motionId int) ([]Choice, error)

	// CreateVote inserts the ballot row and its choice associations in one
	// transaction. A uniqueness violation on (user_id, motion_id) is
	// reported as ErrDuplicateVote.
	CreateVote(params CreateVoteParams) (Vote, error)
	HasVoted(userId, motionId int) (bool, error)
	GetVoteTotals(motionId int) (VoteTotals, error)
	GetChoiceTallies(motionId int) ([]ChoiceTally, error)
	ListVotersByMotion(motionId int) ([]User, error)

	CreateActivityLogEntry(userId int, urlPath string, createdAt time.Time) error
	CountActiveVoters(poolId int, from, to time.Time) (int, error)
	ListActiveVoters(poolId int, from, to time.Time) ([]ActiveVoter, error)
}
