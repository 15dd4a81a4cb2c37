package database

import (
	"time"

	"github.com/stretchr/testify/mock"
)

type MockConVoteRepository struct {
	mock.Mock
}

func (m *MockConVoteRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockConVoteRepository) GetSettings() (Settings, error) {
	args := m.Called()
	return args.Get(0).(Settings), args.Error(1)
}
func (m *MockConVoteRepository) UpdateSettings(settings Settings) error {
	args := m.Called(settings)
	return args.Error(0)
}
func (m *MockConVoteRepository) CreateUser(params CreateUserParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockConVoteRepository) UpdateUser(params UpdateUserParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockConVoteRepository) DeleteUser(userId int) error {
	args := m.Called(userId)
	return args.Error(0)
}
func (m *MockConVoteRepository) GetUserById(userId int) (User, error) {
	args := m.Called(userId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockConVoteRepository) GetUserByUsername(username string) (User, error) {
	args := m.Called(username)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockConVoteRepository) ListUsers(limit, offset int) ([]User, error) {
	args := m.Called(limit, offset)
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockConVoteRepository) CreatePool(name string) (Pool, error) {
	args := m.Called(name)
	return args.Get(0).(Pool), args.Error(1)
}
func (m *MockConVoteRepository) GetPoolById(poolId int) (Pool, error) {
	args := m.Called(poolId)
	return args.Get(0).(Pool), args.Error(1)
}
func (m *MockConVoteRepository) ListPools() ([]Pool, error) {
	args := m.Called()
	return args.Get(0).([]Pool), args.Error(1)
}
func (m *MockConVoteRepository) DeletePool(poolId int) error {
	args := m.Called(poolId)
	return args.Error(0)
}
func (m *MockConVoteRepository) ReplacePoolMembers(poolId int, userIds []int) error {
	args := m.Called(poolId, userIds)
	return args.Error(0)
}
func (m *MockConVoteRepository) ListPoolMembers(poolId int) ([]User, error) {
	args := m.Called(poolId)
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockConVoteRepository) IsPoolMember(poolId, userId int) (bool, error) {
	args := m.Called(poolId, userId)
	return args.Bool(0), args.Error(1)
}
func (m *MockConVoteRepository) CountPoolMembers(poolId int) (int, error) {
	args := m.Called(poolId)
	return args.Int(0), args.Error(1)
}
func (m *MockConVoteRepository) CreateMeeting(params CreateMeetingParams) (Meeting, error) {
	args := m.Called(params)
	return args.Get(0).(Meeting), args.Error(1)
}
func (m *MockConVoteRepository) UpdateMeeting(params UpdateMeetingParams) (Meeting, error) {
	args := m.Called(params)
	return args.Get(0).(Meeting), args.Error(1)
}
func (m *MockConVoteRepository) DeleteMeeting(meetingId int) error {
	args := m.Called(meetingId)
	return args.Error(0)
}
func (m *MockConVoteRepository) GetMeetingById(meetingId int) (Meeting, error) {
	args := m.Called(meetingId)
	return args.Get(0).(Meeting), args.Error(1)
}
func (m *MockConVoteRepository) ListMeetings(limit, offset int) ([]Meeting, error) {
	args := m.Called(limit, offset)
	return args.Get(0).([]Meeting), args.Error(1)
}
func (m *MockConVoteRepository) SetQuorumCalledAt(meetingId int, calledAt *time.Time) error {
	args := m.Called(meetingId, calledAt)
	return args.Error(0)
}
func (m *MockConVoteRepository) CreateMotion(params CreateMotionParams) (Motion, error) {
	args := m.Called(params)
	return args.Get(0).(Motion), args.Error(1)
}
func (m *MockConVoteRepository) UpdateMotion(params UpdateMotionParams) (Motion, error) {
	args := m.Called(params)
	return args.Get(0).(Motion), args.Error(1)
}
func (m *MockConVoteRepository) DeleteMotion(motionId int) error {
	args := m.Called(motionId)
	return args.Error(0)
}
func (m *MockConVoteRepository) GetMotionById(motionId int) (Motion, error) {
	args := m.Called(motionId)
	return args.Get(0).(Motion), args.Error(1)
}
func (m *MockConVoteRepository) ListMotionsByMeeting(meetingId int) ([]Motion, error) {
	args := m.Called(meetingId)
	return args.Get(0).([]Motion), args.Error(1)
}
func (m *MockConVoteRepository) ListActiveMotionsForUser(userId int) ([]Motion, error) {
	args := m.Called(userId)
	return args.Get(0).([]Motion), args.Error(1)
}
func (m *MockConVoteRepository) TransitionMotionStatus(motionId int, fromStatus, toStatus string, stamp time.Time, endOverride *time.Time) (bool, error) {
	args := m.Called(motionId, fromStatus, toStatus, stamp, endOverride)
	return args.Bool(0), args.Error(1)
}
func (m *MockConVoteRepository) CreateChoice(motionId int, name string, sortOrder int) (Choice, error) {
	args := m.Called(motionId, name, sortOrder)
	return args.Get(0).(Choice), args.Error(1)
}
func (m *MockConVoteRepository) UpdateChoice(choiceId int, name string, sortOrder int) (Choice, error) {
	args := m.Called(choiceId, name, sortOrder)
	return args.Get(0).(Choice), args.Error(1)
}
func (m *MockConVoteRepository) DeleteChoice(choiceId int) error {
	args := m.Called(choiceId)
	return args.Error(0)
}
func (m *MockConVoteRepository) GetChoiceById(choiceId int) (Choice, error) {
	args := m.Called(choiceId)
	return args.Get(0).(Choice), args.Error(1)
}
func (m *MockConVoteRepository) ListChoicesByMotion(motionId int) ([]Choice, error) {
	args := m.Called(motionId)
	return args.Get(0).([]Choice), args.Error(1)
}
func (m *MockConVoteRepository) CreateVote(params CreateVoteParams) (Vote, error) {
	args := m.Called(params)
	return args.Get(0).(Vote), args.Error(1)
}
func (m *MockConVoteRepository) HasVoted(userId, motionId int) (bool, error) {
	args := m.Called(userId, motionId)
	return args.Bool(0), args.Error(1)
}
func (m *MockConVoteRepository) GetVoteTotals(motionId int) (VoteTotals, error) {
	args := m.Called(motionId)
	return args.Get(0).(VoteTotals), args.Error(1)
}
func (m *MockConVoteRepository) GetChoiceTallies(motionId int) ([]ChoiceTally, error) {
	args := m.Called(motionId)
	return args.Get(0).([]ChoiceTally), args.Error(1)
}
func (m *MockConVoteRepository) ListVotersByMotion(motionId int) ([]User, error) {
	args := m.Called(motionId)
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockConVoteRepository) CreateActivityLogEntry(userId int, urlPath string, createdAt time.Time) error {
	args := m.Called(userId, urlPath, createdAt)
	return args.Error(0)
}
func (m *MockConVoteRepository) CountActiveVoters(poolId int, from, to time.Time) (int, error) {
	args := m.Called(poolId, from, to)
	return args.Int(0), args.Error(1)
}
func (m *MockConVoteRepository) ListActiveVoters(poolId int, from, to time.Time) ([]ActiveVoter, error) {
	args := m.Called(poolId, from, to)
	return args.Get(0).([]ActiveVoter), args.Error(1)
}
