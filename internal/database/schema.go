package database

import "fmt"

// CreateSchema creates all tables needed by the application. Safe to call
// on every startup, all statements use IF NOT EXISTS.
func (db *PgConVoteRepository) CreateSchema() error {
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'voter' CHECK (role IN ('admin', 'voter', 'watcher')),
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS pools (
    id SERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS pool_members (
    pool_id INTEGER NOT NULL REFERENCES pools(id) ON DELETE CASCADE,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    PRIMARY KEY (pool_id, user_id)
);

CREATE TABLE IF NOT EXISTS meetings (
    id SERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    start_date TIMESTAMP NOT NULL,
    end_date TIMESTAMP NOT NULL,
    quorum_pool_id INTEGER NOT NULL REFERENCES pools(id),
    quorum_called_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS motions (
    id SERIAL PRIMARY KEY,
    meeting_id INTEGER NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    planned_duration_mins INTEGER NOT NULL,
    seat_count INTEGER NOT NULL CHECK (seat_count >= 1),
    voting_pool_id INTEGER REFERENCES pools(id),
    status TEXT NOT NULL DEFAULT 'not_yet_started'
        CHECK (status IN ('not_yet_started', 'voting_active', 'voting_complete')),
    end_override TIMESTAMP,
    voting_started_at TIMESTAMP,
    voting_ended_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_motions_meeting_id ON motions(meeting_id);

CREATE TABLE IF NOT EXISTS choices (
    id SERIAL PRIMARY KEY,
    motion_id INTEGER NOT NULL REFERENCES motions(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_choices_motion_id ON choices(motion_id);

-- One ballot per voter per motion. The UNIQUE constraint is the arbiter for
-- concurrent casts, not an application-level check.
CREATE TABLE IF NOT EXISTS votes (
    id TEXT PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(id),
    motion_id INTEGER NOT NULL REFERENCES motions(id) ON DELETE CASCADE,
    is_abstain BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, motion_id)
);

CREATE INDEX IF NOT EXISTS idx_votes_motion_id ON votes(motion_id);

CREATE TABLE IF NOT EXISTS vote_choices (
    vote_id TEXT NOT NULL REFERENCES votes(id) ON DELETE CASCADE,
    choice_id INTEGER NOT NULL REFERENCES choices(id) ON DELETE CASCADE,
    PRIMARY KEY (vote_id, choice_id)
);

CREATE INDEX IF NOT EXISTS idx_vote_choices_choice_id ON vote_choices(choice_id);

-- Append-only record of authenticated requests, the raw substrate for
-- quorum estimation. Rows are never updated or deleted.
CREATE TABLE IF NOT EXISTS activity_logs (
    id SERIAL PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    url_path TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_activity_logs_user_created
    ON activity_logs(user_id, created_at);

CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    login_enabled BOOLEAN NOT NULL DEFAULT TRUE
);

INSERT INTO settings (id, login_enabled) VALUES (1, TRUE)
    ON CONFLICT (id) DO NOTHING;
`
