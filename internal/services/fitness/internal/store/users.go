package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/model"
)

const userColumns = `id, google_id, email, name, profile_image_url, role, is_active, last_login_at, created_at, updated_at`

func scanUser(row scanner) (model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.GoogleID,
		&u.Email,
		&u.Name,
		&u.ProfileImageURL,
		&u.Role,
		&u.IsActive,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt)

	return u, err
}

// GetUser retrieves a user by its ID
func (s *PostgresStore) GetUser(ctx context.Context, id int64) (model.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id=$1", id)

	u, err := scanUser(row)
	if err != nil {
		return u, mapScanErr(err, "get user")
	}

	return u, nil
}

// GetUserByGoogleID retrieves a user by the subject of its Google identity
func (s *PostgresStore) GetUserByGoogleID(ctx context.Context, googleID string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE google_id=$1", googleID)

	u, err := scanUser(row)
	if err != nil {
		return u, mapScanErr(err, "get user by google id")
	}

	return u, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context, r ListUsersRequest) ([]model.User, int, error) {
	var w where
	if r.Search != "" {
		w.add("(name ILIKE $%d OR email ILIKE $%d)", "%"+r.Search+"%")
	}
	if r.Active != nil {
		w.add("is_active = $%d", *r.Active)
	}

	total, err := s.count(ctx, "users", &w)
	if err != nil {
		return nil, 0, err
	}

	limit, args := w.page(r.Limit, r.Offset)
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users"+w.String()+" ORDER BY id"+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}

	return users, total, rows.Err()
}

// CreateUser inserts a user. A duplicate email or Google ID yields ErrExists.
func (s *PostgresStore) CreateUser(ctx context.Context, r CreateUserRequest) (model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO users (google_id, email, name, profile_image_url, role, is_active, last_login_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+userColumns,
		r.GoogleID,
		r.Email,
		r.Name,
		r.ProfileImageURL,
		r.Role,
		r.IsActive,
		r.LastLoginAt)

	u, err := scanUser(row)
	if err != nil {
		return u, mapWriteErr(err, "insert user")
	}

	return u, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, r UpdateUserRequest) (model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE users
		 SET email=$2, name=$3, profile_image_url=$4, role=$5, is_active=$6, updated_at=NOW()
		 WHERE id=$1
		 RETURNING `+userColumns,
		r.ID,
		r.Email,
		r.Name,
		r.ProfileImageURL,
		r.Role,
		r.IsActive)

	u, err := scanUser(row)
	if err != nil {
		return u, mapScanErr(err, "update user")
	}

	return u, nil
}

func (s *PostgresStore) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET last_login_at=$2 WHERE id=$1", id, at)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}

	return expectAffected(res, "touch last login")
}

// SetUserActive flips the active flag. Users are never deleted.
func (s *PostgresStore) SetUserActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET is_active=$2, updated_at=NOW() WHERE id=$1", id, active)
	if err != nil {
		return fmt.Errorf("set user active: %w", err)
	}

	return expectAffected(res, "set user active")
}
