package storage

import (
	"context"
	"fmt"
	"time"
)

// JoinedLayout is the format of Member.JoinedServer.
const JoinedLayout = "2006-01-02 15:04:05"

// Member is one row of the users table.
type Member struct {
	UserID       string `db:"user_id"`
	Username     string `db:"username"`
	Roles        string `db:"roles"`
	JoinedServer string `db:"joined_server"`
}

// FormatJoined renders t in local time the way JoinedServer stores it.
func FormatJoined(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(JoinedLayout)
}

const upsertMember = `INSERT INTO users (user_id, username, roles, joined_server)
VALUES (:user_id, :username, :roles, :joined_server)
ON CONFLICT (user_id) DO UPDATE SET
	username = excluded.username,
	roles = excluded.roles,
	joined_server = excluded.joined_server`

// UpsertMember inserts m or updates the existing row with the same user id.
func (s *Store) UpsertMember(ctx context.Context, m Member) error {
	if _, err := s.db.NamedExecContext(ctx, upsertMember, m); err != nil {
		return fmt.Errorf("upsert member %s: %w", m.UserID, err)
	}
	return nil
}

// Member returns the stored row for userID.
func (s *Store) Member(ctx context.Context, userID string) (Member, error) {
	var m Member
	err := s.db.GetContext(ctx, &m, s.db.Rebind(`SELECT user_id, username, roles, joined_server FROM users WHERE user_id = ?`), userID)
	return m, err
}

// CountMembers returns the number of rows in the users table.
func (s *Store) CountMembers(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}
