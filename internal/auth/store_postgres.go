package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"healthtrack/clinic-core/internal/schema"
)

type PostgresUserStore struct {
	db    *sql.DB
	table string
}

func NewPostgresUserStore(db *sql.DB, desc schema.Descriptor) (*PostgresUserStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &PostgresUserStore{
		db:    db,
		table: desc.TableName(schema.TableUsers),
	}, nil
}

// GetByCredentials performs the credential match in the query itself:
// username and password must both be exactly equal, case included. The
// stored password is plaintext; see the service doc for the contract.
func (s *PostgresUserStore) GetByCredentials(username, password string) (User, error) {
	q := fmt.Sprintf(`SELECT id, username, role FROM %s WHERE username = $1 AND password = $2`, s.table)

	var u User
	if err := s.db.QueryRow(q, username, password).Scan(&u.ID, &u.Username, &u.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("query user by credentials: %w", err)
	}
	return u, nil
}

func (s *PostgresUserStore) GetByUsername(username string) (User, error) {
	q := fmt.Sprintf(`SELECT id, username, role FROM %s WHERE username = $1`, s.table)

	var u User
	if err := s.db.QueryRow(q, username).Scan(&u.ID, &u.Username, &u.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("query user by username: %w", err)
	}
	return u, nil
}

func (s *PostgresUserStore) GetByID(id int64) (User, error) {
	if id <= 0 {
		return User{}, ErrUserNotFound
	}
	q := fmt.Sprintf(`SELECT id, username, role FROM %s WHERE id = $1`, s.table)

	var u User
	if err := s.db.QueryRow(q, id).Scan(&u.ID, &u.Username, &u.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("query user by id: %w", err)
	}
	return u, nil
}

func (s *PostgresUserStore) Put(user User) (User, error) {
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" || user.Password == "" || user.Role == "" {
		return User{}, fmt.Errorf("username, password, and role are required")
	}

	q := fmt.Sprintf(`
INSERT INTO %s (username, password, role)
VALUES ($1, $2, $3)
ON CONFLICT (username) DO UPDATE
SET password = EXCLUDED.password,
	role = EXCLUDED.role
RETURNING id`, s.table)
	if err := s.db.QueryRow(q, user.Username, user.Password, user.Role).Scan(&user.ID); err != nil {
		return User{}, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}
