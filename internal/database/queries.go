package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

func (db *PgConVoteRepository) GetSettings() (Settings, error) {
	row := db.conn.QueryRow("SELECT login_enabled FROM settings WHERE id = 1")

	var s Settings
	err := row.Scan(&s.LoginEnabled)

	return s, err
}

func (db *PgConVoteRepository) UpdateSettings(settings Settings) error {
	_, err := db.conn.Exec(
		"UPDATE settings SET login_enabled = $1 WHERE id = 1",
		settings.LoginEnabled,
	)
	return err
}

func (db *PgConVoteRepository) CreateUser(params CreateUserParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO users (username, email, password_hash, role, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $5) RETURNING id, username, email, role, created_at, updated_at",
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		params.Role,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgConVoteRepository) UpdateUser(params UpdateUserParams) (User, error) {
	res := db.conn.QueryRow(
		"UPDATE users SET username = $2, email = $3, password_hash = $4, role = $5, updated_at = $6 "+
			"WHERE id = $1 RETURNING id, username, email, role, created_at, updated_at",
		params.UserId,
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		params.Role,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgConVoteRepository) DeleteUser(userId int) error {
	_, err := db.conn.Exec("DELETE FROM users WHERE id = $1", userId)
	return err
}

func (db *PgConVoteRepository) GetUserById(userId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, role, created_at, updated_at "+
			"FROM users WHERE id = $1 LIMIT 1",
		userId,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgConVoteRepository) GetUserByUsername(username string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, role, created_at, updated_at "+
			"FROM users WHERE username = $1 LIMIT 1",
		username,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgConVoteRepository) ListUsers(limit, offset int) ([]User, error) {
	rows, err := db.conn.Query(
		"SELECT id, username, email, role, created_at, updated_at "+
			"FROM users ORDER BY username LIMIT $1 OFFSET $2",
		limit,
		offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Id, &u.Username, &u.EmailAddress, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (db *PgConVoteRepository) CreatePool(name string) (Pool, error) {
	res := db.conn.QueryRow(
		"INSERT INTO pools (name, created_at) VALUES ($1, $2) RETURNING id, name, created_at",
		name,
		time.Now().UTC(),
	)

	var p Pool
	err := res.Scan(&p.Id, &p.Name, &p.CreatedAt)

	return p, err
}

func (db *PgConVoteRepository) GetPoolById(poolId int) (Pool, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, created_at FROM pools WHERE id = $1 LIMIT 1",
		poolId,
	)

	var p Pool
	err := row.Scan(&p.Id, &p.Name, &p.CreatedAt)

	return p, err
}

func (db *PgConVoteRepository) ListPools() ([]Pool, error) {
	rows, err := db.conn.Query("SELECT id, name, created_at FROM pools ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pools []Pool
	for rows.Next() {
		var p Pool
		if err := rows.Scan(&p.Id, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		pools = append(pools, p)
	}

	return pools, rows.Err()
}

func (db *PgConVoteRepository) DeletePool(poolId int) error {
	_, err := db.conn.Exec("DELETE FROM pools WHERE id = $1", poolId)
	return err
}

func (db *PgConVoteRepository) ReplacePoolMembers(poolId int, userIds []int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM pool_members WHERE pool_id = $1", poolId); err != nil {
		return err
	}

	for _, userId := range userIds {
		_, err := tx.Exec(
			"INSERT INTO pool_members (pool_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			poolId,
			userId,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (db *PgConVoteRepository) ListPoolMembers(poolId int) ([]User, error) {
	rows, err := db.conn.Query(
		"SELECT u.id, u.username, u.email, u.role, u.created_at, u.updated_at "+
			"FROM users u JOIN pool_members pm ON pm.user_id = u.id "+
			"WHERE pm.pool_id = $1 ORDER BY u.username",
		poolId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Id, &u.Username, &u.EmailAddress, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (db *PgConVoteRepository) IsPoolMember(poolId, userId int) (bool, error) {
	row := db.conn.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM pool_members WHERE pool_id = $1 AND user_id = $2)",
		poolId,
		userId,
	)

	var exists bool
	err := row.Scan(&exists)

	return exists, err
}

func (db *PgConVoteRepository) CountPoolMembers(poolId int) (int, error) {
	row := db.conn.QueryRow(
		"SELECT COUNT(*) FROM pool_members WHERE pool_id = $1",
		poolId,
	)

	var count int
	err := row.Scan(&count)

	return count, err
}

func (db *PgConVoteRepository) CreateMeeting(params CreateMeetingParams) (Meeting, error) {
	res := db.conn.QueryRow(
		"INSERT INTO meetings (name, description, start_date, end_date, quorum_pool_id) "+
			"VALUES ($1, $2, $3, $4, $5) "+
			"RETURNING id, name, description, start_date, end_date, quorum_pool_id, quorum_called_at",
		params.Name,
		params.Description,
		params.StartDate,
		params.EndDate,
		params.QuorumPoolId,
	)

	return scanMeeting(res)
}

func (db *PgConVoteRepository) UpdateMeeting(params UpdateMeetingParams) (Meeting, error) {
	res := db.conn.QueryRow(
		"UPDATE meetings SET name = $2, description = $3, start_date = $4, end_date = $5, quorum_pool_id = $6 "+
			"WHERE id = $1 "+
			"RETURNING id, name, description, start_date, end_date, quorum_pool_id, quorum_called_at",
		params.MeetingId,
		params.Name,
		params.Description,
		params.StartDate,
		params.EndDate,
		params.QuorumPoolId,
	)

	return scanMeeting(res)
}

func (db *PgConVoteRepository) DeleteMeeting(meetingId int) error {
	_, err := db.conn.Exec("DELETE FROM meetings WHERE id = $1", meetingId)
	return err
}

func (db *PgConVoteRepository) GetMeetingById(meetingId int) (Meeting, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, description, start_date, end_date, quorum_pool_id, quorum_called_at "+
			"FROM meetings WHERE id = $1 LIMIT 1",
		meetingId,
	)

	return scanMeeting(row)
}

func (db *PgConVoteRepository) ListMeetings(limit, offset int) ([]Meeting, error) {
	rows, err := db.conn.Query(
		"SELECT id, name, description, start_date, end_date, quorum_pool_id, quorum_called_at "+
			"FROM meetings ORDER BY start_date DESC LIMIT $1 OFFSET $2",
		limit,
		offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meetings []Meeting
	for rows.Next() {
		var m Meeting
		var calledAt sql.NullTime
		err := rows.Scan(&m.Id, &m.Name, &m.Description, &m.StartDate, &m.EndDate, &m.QuorumPoolId, &calledAt)
		if err != nil {
			return nil, err
		}
		if calledAt.Valid {
			t := calledAt.Time
			m.QuorumCalledAt = &t
		}
		meetings = append(meetings, m)
	}

	return meetings, rows.Err()
}

func (db *PgConVoteRepository) SetQuorumCalledAt(meetingId int, calledAt *time.Time) error {
	res, err := db.conn.Exec(
		"UPDATE meetings SET quorum_called_at = $2 WHERE id = $1",
		meetingId,
		calledAt,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func scanMeeting(row *sql.Row) (Meeting, error) {
	var m Meeting
	var calledAt sql.NullTime
	err := row.Scan(&m.Id, &m.Name, &m.Description, &m.StartDate, &m.EndDate, &m.QuorumPoolId, &calledAt)
	if err != nil {
		return Meeting{}, err
	}
	if calledAt.Valid {
		t := calledAt.Time
		m.QuorumCalledAt = &t
	}

	return m, nil
}

const motionColumns = "id, meeting_id, name, description, planned_duration_mins, seat_count, " +
	"voting_pool_id, status, end_override, voting_started_at, voting_ended_at"

func (db *PgConVoteRepository) CreateMotion(params CreateMotionParams) (Motion, error) {
	res := db.conn.QueryRow(
		"INSERT INTO motions (meeting_id, name, description, planned_duration_mins, seat_count, voting_pool_id) "+
			"VALUES ($1, $2, $3, $4, $5, $6) RETURNING "+motionColumns,
		params.MeetingId,
		params.Name,
		params.Description,
		params.PlannedDurationMins,
		params.SeatCount,
		params.VotingPoolId,
	)

	return scanMotionRow(res)
}

func (db *PgConVoteRepository) UpdateMotion(params UpdateMotionParams) (Motion, error) {
	res := db.conn.QueryRow(
		"UPDATE motions SET name = $2, description = $3, planned_duration_mins = $4, seat_count = $5, voting_pool_id = $6 "+
			"WHERE id = $1 RETURNING "+motionColumns,
		params.MotionId,
		params.Name,
		params.Description,
		params.PlannedDurationMins,
		params.SeatCount,
		params.VotingPoolId,
	)

	return scanMotionRow(res)
}

func (db *PgConVoteRepository) DeleteMotion(motionId int) error {
	_, err := db.conn.Exec("DELETE FROM motions WHERE id = $1", motionId)
	return err
}

func (db *PgConVoteRepository) GetMotionById(motionId int) (Motion, error) {
	row := db.conn.QueryRow(
		"SELECT "+motionColumns+" FROM motions WHERE id = $1 LIMIT 1",
		motionId,
	)

	return scanMotionRow(row)
}

func (db *PgConVoteRepository) ListMotionsByMeeting(meetingId int) ([]Motion, error) {
	rows, err := db.conn.Query(
		"SELECT "+motionColumns+" FROM motions WHERE meeting_id = $1 ORDER BY id",
		meetingId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMotions(rows)
}

func (db *PgConVoteRepository) ListActiveMotionsForUser(userId int) ([]Motion, error) {
	// A motion's effective pool is its own voting pool or, when absent, the
	// meeting's quorum pool.
	rows, err := db.conn.Query(
		"SELECT m.id, m.meeting_id, m.name, m.description, m.planned_duration_mins, "+
			"m.seat_count, m.voting_pool_id, m.status, m.end_override, m.voting_started_at, m.voting_ended_at "+
			"FROM motions m "+
			"JOIN meetings mt ON mt.id = m.meeting_id "+
			"JOIN pool_members pm ON pm.pool_id = COALESCE(m.voting_pool_id, mt.quorum_pool_id) "+
			"WHERE m.status = 'voting_active' AND pm.user_id = $1 "+
			"ORDER BY m.voting_started_at",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMotions(rows)
}

func (db *PgConVoteRepository) TransitionMotionStatus(motionId int, fromStatus, toStatus string, stamp time.Time, endOverride *time.Time) (bool, error) {
	var res sql.Result
	var err error

	switch toStatus {
	case "voting_active":
		res, err = db.conn.Exec(
			"UPDATE motions SET status = $3, voting_started_at = $4, end_override = $5 "+
				"WHERE id = $1 AND status = $2",
			motionId,
			fromStatus,
			toStatus,
			stamp,
			endOverride,
		)
	case "voting_complete":
		res, err = db.conn.Exec(
			"UPDATE motions SET status = $3, voting_ended_at = $4 "+
				"WHERE id = $1 AND status = $2",
			motionId,
			fromStatus,
			toStatus,
			stamp,
		)
	default:
		return false, fmt.Errorf("unsupported target status: %s", toStatus)
	}
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func scanMotionRow(row *sql.Row) (Motion, error) {
	var m Motion
	var poolId sql.NullInt64
	var endOverride, startedAt, endedAt sql.NullTime
	err := row.Scan(
		&m.Id,
		&m.MeetingId,
		&m.Name,
		&m.Description,
		&m.PlannedDurationMins,
		&m.SeatCount,
		&poolId,
		&m.Status,
		&endOverride,
		&startedAt,
		&endedAt,
	)
	if err != nil {
		return Motion{}, err
	}

	applyMotionNullables(&m, poolId, endOverride, startedAt, endedAt)
	return m, nil
}

func scanMotions(rows *sql.Rows) ([]Motion, error) {
	var motions []Motion
	for rows.Next() {
		var m Motion
		var poolId sql.NullInt64
		var endOverride, startedAt, endedAt sql.NullTime
		err := rows.Scan(
			&m.Id,
			&m.MeetingId,
			&m.Name,
			&m.Description,
			&m.PlannedDurationMins,
			&m.SeatCount,
			&poolId,
			&m.Status,
			&endOverride,
			&startedAt,
			&endedAt,
		)
		if err != nil {
			return nil, err
		}
		applyMotionNullables(&m, poolId, endOverride, startedAt, endedAt)
		motions = append(motions, m)
	}

	return motions, rows.Err()
}

func applyMotionNullables(m *Motion, poolId sql.NullInt64, endOverride, startedAt, endedAt sql.NullTime) {
	if poolId.Valid {
		id := int(poolId.Int64)
		m.VotingPoolId = &id
	}
	if endOverride.Valid {
		t := endOverride.Time
		m.EndOverride = &t
	}
	if startedAt.Valid {
		t := startedAt.Time
		m.VotingStartedAt = &t
	}
	if endedAt.Valid {
		t := endedAt.Time
		m.VotingEndedAt = &t
	}
}

func (db *PgConVoteRepository) CreateChoice(motionId int, name string, sortOrder int) (Choice, error) {
	res := db.conn.QueryRow(
		"INSERT INTO choices (motion_id, name, sort_order) VALUES ($1, $2, $3) "+
			"RETURNING id, motion_id, name, sort_order",
		motionId,
		name,
		sortOrder,
	)

	var c Choice
	err := res.Scan(&c.Id, &c.MotionId, &c.Name, &c.SortOrder)

	return c, err
}

func (db *PgConVoteRepository) UpdateChoice(choiceId int, name string, sortOrder int) (Choice, error) {
	res := db.conn.QueryRow(
		"UPDATE choices SET name = $2, sort_order = $3 WHERE id = $1 "+
			"RETURNING id, motion_id, name, sort_order",
		choiceId,
		name,
		sortOrder,
	)

	var c Choice
	err := res.Scan(&c.Id, &c.MotionId, &c.Name, &c.SortOrder)

	return c, err
}

func (db *PgConVoteRepository) DeleteChoice(choiceId int) error {
	_, err := db.conn.Exec("DELETE FROM choices WHERE id = $1", choiceId)
	return err
}

func (db *PgConVoteRepository) GetChoiceById(choiceId int) (Choice, error) {
	row := db.conn.QueryRow(
		"SELECT id, motion_id, name, sort_order FROM choices WHERE id = $1 LIMIT 1",
		choiceId,
	)

	var c Choice
	err := row.Scan(&c.Id, &c.MotionId, &c.Name, &c.SortOrder)

	return c, err
}

func (db *PgConVoteRepository) ListChoicesByMotion(motionId int) ([]Choice, error) {
	rows, err := db.conn.Query(
		"SELECT id, motion_id, name, sort_order FROM choices "+
			"WHERE motion_id = $1 ORDER BY sort_order, id",
		motionId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var choices []Choice
	for rows.Next() {
		var c Choice
		if err := rows.Scan(&c.Id, &c.MotionId, &c.Name, &c.SortOrder); err != nil {
			return nil, err
		}
		choices = append(choices, c)
	}

	return choices, rows.Err()
}

func (db *PgConVoteRepository) CreateVote(params CreateVoteParams) (Vote, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Vote{}, err
	}
	defer tx.Rollback()

	res := tx.QueryRow(
		"INSERT INTO votes (id, user_id, motion_id, is_abstain, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, user_id, motion_id, is_abstain, created_at",
		params.VoteId,
		params.UserId,
		params.MotionId,
		params.IsAbstain,
		time.Now().UTC(),
	)

	var v Vote
	err = res.Scan(&v.Id, &v.UserId, &v.MotionId, &v.IsAbstain, &v.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return Vote{}, ErrDuplicateVote
		}
		return Vote{}, err
	}

	for _, choiceId := range params.ChoiceIds {
		_, err := tx.Exec(
			"INSERT INTO vote_choices (vote_id, choice_id) VALUES ($1, $2)",
			v.Id,
			choiceId,
		)
		if err != nil {
			return Vote{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return Vote{}, ErrDuplicateVote
		}
		return Vote{}, err
	}

	return v, nil
}

func (db *PgConVoteRepository) HasVoted(userId, motionId int) (bool, error) {
	row := db.conn.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM votes WHERE user_id = $1 AND motion_id = $2)",
		userId,
		motionId,
	)

	var exists bool
	err := row.Scan(&exists)

	return exists, err
}

func (db *PgConVoteRepository) GetVoteTotals(motionId int) (VoteTotals, error) {
	row := db.conn.QueryRow(
		"SELECT COUNT(*), COUNT(*) FILTER (WHERE is_abstain) FROM votes WHERE motion_id = $1",
		motionId,
	)

	var t VoteTotals
	err := row.Scan(&t.TotalVotes, &t.Abstaining)

	return t, err
}

func (db *PgConVoteRepository) GetChoiceTallies(motionId int) ([]ChoiceTally, error) {
	rows, err := db.conn.Query(
		"SELECT c.id, c.name, c.sort_order, COUNT(vc.vote_id) "+
			"FROM choices c LEFT JOIN vote_choices vc ON vc.choice_id = c.id "+
			"WHERE c.motion_id = $1 "+
			"GROUP BY c.id, c.name, c.sort_order "+
			"ORDER BY c.sort_order, c.id",
		motionId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tallies []ChoiceTally
	for rows.Next() {
		var t ChoiceTally
		if err := rows.Scan(&t.ChoiceId, &t.Name, &t.SortOrder, &t.VoteCount); err != nil {
			return nil, err
		}
		tallies = append(tallies, t)
	}

	return tallies, rows.Err()
}

func (db *PgConVoteRepository) ListVotersByMotion(motionId int) ([]User, error) {
	rows, err := db.conn.Query(
		"SELECT u.id, u.username, u.email, u.role, u.created_at, u.updated_at "+
			"FROM users u JOIN votes v ON v.user_id = u.id "+
			"WHERE v.motion_id = $1 ORDER BY u.username",
		motionId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Id, &u.Username, &u.EmailAddress, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (db *PgConVoteRepository) CreateActivityLogEntry(userId int, urlPath string, createdAt time.Time) error {
	_, err := db.conn.Exec(
		"INSERT INTO activity_logs (user_id, url_path, created_at) VALUES ($1, $2, $3)",
		userId,
		urlPath,
		createdAt,
	)
	return err
}

func (db *PgConVoteRepository) CountActiveVoters(poolId int, from, to time.Time) (int, error) {
	row := db.conn.QueryRow(
		"SELECT COUNT(DISTINCT al.user_id) "+
			"FROM activity_logs al JOIN pool_members pm ON pm.user_id = al.user_id "+
			"WHERE pm.pool_id = $1 AND al.created_at >= $2 AND al.created_at <= $3",
		poolId,
		from,
		to,
	)

	var count int
	err := row.Scan(&count)

	return count, err
}

func (db *PgConVoteRepository) ListActiveVoters(poolId int, from, to time.Time) ([]ActiveVoter, error) {
	rows, err := db.conn.Query(
		"SELECT u.id, u.username, MAX(al.created_at) "+
			"FROM activity_logs al "+
			"JOIN pool_members pm ON pm.user_id = al.user_id "+
			"JOIN users u ON u.id = al.user_id "+
			"WHERE pm.pool_id = $1 AND al.created_at >= $2 AND al.created_at <= $3 "+
			"GROUP BY u.id, u.username "+
			"ORDER BY u.username",
		poolId,
		from,
		to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var voters []ActiveVoter
	for rows.Next() {
		var v ActiveVoter
		if err := rows.Scan(&v.UserId, &v.Username, &v.LastActivity); err != nil {
			return nil, err
		}
		voters = append(voters, v)
	}

	return voters, rows.Err()
}
