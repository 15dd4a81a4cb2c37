package voting

import (
	"time"

	"github.com/convote/go-convote/internal/database"
)

type QuorumReport struct {
	MeetingId             int        `json:"meeting_id"`
	TotalEligibleVoters   int        `json:"total_eligible_voters"`
	ActiveVoterCount      int        `json:"active_voter_count"`
	ActiveVoterPercentage float64    `json:"active_voter_percentage"`
	QuorumCalledAt        *time.Time `json:"quorum_called_at,omitempty"`
}

// activityWindow is the time span of activity log entries that count
// toward quorum. When the quorum has been called the upper bound is the
// frozen call timestamp; the log is append-only and rows are immutable, so
// a query bounded by that fixed instant replays the exact point-in-time
// snapshot no matter how many rows accrue afterwards. Otherwise the bound
// is live: now, capped at the meeting's end.
func (e *Engine) activityWindow(meeting database.Meeting) (time.Time, time.Time) {
	if meeting.QuorumCalledAt != nil {
		return meeting.StartDate, *meeting.QuorumCalledAt
	}

	to := e.now().UTC()
	if to.After(meeting.EndDate) {
		to = meeting.EndDate
	}
	return meeting.StartDate, to
}

// QuorumReport estimates voter presence for a meeting from the activity
// log: a pool member is active if any authenticated request of theirs was
// logged inside the activity window.
func (e *Engine) QuorumReport(meetingId int) (QuorumReport, error) {
	meeting, err := e.db.GetMeetingById(meetingId)
	if err != nil {
		return QuorumReport{}, translateNoRows(err)
	}

	eligible, err := e.db.CountPoolMembers(meeting.QuorumPoolId)
	if err != nil {
		return QuorumReport{}, err
	}

	from, to := e.activityWindow(meeting)
	active, err := e.db.CountActiveVoters(meeting.QuorumPoolId, from, to)
	if err != nil {
		return QuorumReport{}, err
	}

	return QuorumReport{
		MeetingId:             meeting.Id,
		TotalEligibleVoters:   eligible,
		ActiveVoterCount:      active,
		ActiveVoterPercentage: percentage(active, eligible),
		QuorumCalledAt:        meeting.QuorumCalledAt,
	}, nil
}

// CallQuorum freezes the quorum count as of the given timestamp. Re-calling
// with a new timestamp moves the freeze point; nil un-freezes and returns
// the report to live computation.
func (e *Engine) CallQuorum(meetingId int, calledAt *time.Time) error {
	if _, err := e.db.GetMeetingById(meetingId); err != nil {
		return translateNoRows(err)
	}

	return e.db.SetQuorumCalledAt(meetingId, calledAt)
}

// ActiveVoters returns the per-voter roster behind the quorum count, with
// each member's last logged activity. It honors the same frozen or live
// window as the aggregate report, so the two never disagree.
func (e *Engine) ActiveVoters(meetingId int) ([]database.ActiveVoter, error) {
	meeting, err := e.db.GetMeetingById(meetingId)
	if err != nil {
		return nil, translateNoRows(err)
	}

	from, to := e.activityWindow(meeting)
	return e.db.ListActiveVoters(meeting.QuorumPoolId, from, to)
}
