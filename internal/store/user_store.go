package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/clandphoto/internal/domain"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, u *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, role, avatar_url, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Name, u.Email, string(u.Role), u.AvatarURL, string(u.Status), u.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	for _, at := range u.AccessLogs {
		if err := s.RecordAccess(ctx, u.ID, at); err != nil {
			return err
		}
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u := &domain.User{}
	var role, status string
	var createdAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, role, avatar_url, status, created_at FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Name, &u.Email, &role, &u.AvatarURL, &status, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.Role = domain.Role(role)
	u.Status = domain.UserStatus(status)
	u.CreatedAt = time.UnixMilli(createdAt)

	logs, err := s.accessLogs(ctx, id)
	if err != nil {
		return nil, err
	}
	u.AccessLogs = logs
	return u, nil
}

// List returns users in insertion order with their access history.
func (s *UserStore) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, role, avatar_url, status, created_at FROM users ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var users []*domain.User
	for rows.Next() {
		u := &domain.User{}
		var role, status string
		var createdAt int64
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &role, &u.AvatarURL, &status, &createdAt); err != nil {
			closeRows(rows)
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Role = domain.Role(role)
		u.Status = domain.UserStatus(status)
		u.CreatedAt = time.UnixMilli(createdAt)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		closeRows(rows)
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	// The database runs on a single connection; release it before the
	// per-user access log queries.
	closeRows(rows)

	for _, u := range users {
		logs, err := s.accessLogs(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		u.AccessLogs = logs
	}
	return users, nil
}

func (s *UserStore) UpdateStatus(ctx context.Context, id string, status domain.UserStatus) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET status = ? WHERE id = ?
	`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	return expectOneRow(result, ErrUserNotFound)
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM users WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return expectOneRow(result, ErrUserNotFound)
}

// DeleteAllExcept removes every user other than keepID.
func (s *UserStore) DeleteAllExcept(ctx context.Context, keepID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM users WHERE id <> ?
	`, keepID)
	if err != nil {
		return fmt.Errorf("failed to delete users: %w", err)
	}
	return nil
}

func (s *UserStore) CountByStatus(ctx context.Context, status domain.UserStatus) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users WHERE status = ?
	`, string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (s *UserStore) RecordAccess(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO access_logs (user_id, accessed_at) VALUES (?, ?)
	`, id, at.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record access: %w", err)
	}
	return nil
}

// accessLogs returns the user's access events, most recent first.
func (s *UserStore) accessLogs(ctx context.Context, id string) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT accessed_at FROM access_logs WHERE user_id = ? ORDER BY accessed_at DESC, id DESC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list access logs: %w", err)
	}
	defer closeRows(rows)

	var logs []time.Time
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, fmt.Errorf("failed to scan access log: %w", err)
		}
		logs = append(logs, time.UnixMilli(ms))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating access logs: %w", err)
	}
	return logs, nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("failed to close rows", "error", err)
	}
}
