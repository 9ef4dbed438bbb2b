package clinic

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"healthtrack/clinic-core/internal/schema"
)

// Postgres error codes translated into domain sentinels.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type PostgresStore struct {
	db      *sql.DB
	desc    schema.Descriptor
	nowFunc func() time.Time
}

func NewPostgresStore(db *sql.DB, desc schema.Descriptor) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &PostgresStore{
		db:      db,
		desc:    desc,
		nowFunc: time.Now,
	}, nil
}

func (s *PostgresStore) CountClients() (int, error) {
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.desc.TableName(schema.TableClients))

	var n int
	if err := s.db.QueryRow(q).Scan(&n); err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CountPrograms() (int, error) {
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.desc.TableName(schema.TableHealthPrograms))

	var n int
	if err := s.db.QueryRow(q).Scan(&n); err != nil {
		return 0, fmt.Errorf("count programs: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) RecentEnrollments(limit int) ([]RecentEnrollment, error) {
	q := fmt.Sprintf(`
SELECT cp.enrollment_date, c.first_name || ' ' || c.last_name, hp.name
FROM %s cp
JOIN %s c ON cp.client_id = c.id
JOIN %s hp ON cp.program_id = hp.id
ORDER BY cp.enrollment_date DESC
LIMIT $1`,
		s.desc.TableName(schema.TableClientPrograms),
		s.desc.TableName(schema.TableClients),
		s.desc.TableName(schema.TableHealthPrograms))

	rows, err := s.db.Query(q, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent enrollments: %w", err)
	}
	defer rows.Close()

	out := make([]RecentEnrollment, 0, limit)
	for rows.Next() {
		var enrolledOn time.Time
		var e RecentEnrollment
		if err := rows.Scan(&enrolledOn, &e.ClientName, &e.ProgramName); err != nil {
			return nil, fmt.Errorf("scan recent enrollment: %w", err)
		}
		e.EnrollmentDate = enrolledOn.Format(dateLayout)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent enrollments: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AddClient(c Client) (Client, error) {
	if err := validateClient(c); err != nil {
		return Client{}, err
	}

	q := fmt.Sprintf(`
INSERT INTO %s (first_name, last_name, date_of_birth, contact_number, email)
VALUES ($1, $2, $3, $4, NULLIF($5, ''))
RETURNING id`, s.desc.TableName(schema.TableClients))
	if err := s.db.QueryRow(q, c.FirstName, c.LastName, c.DateOfBirth, c.ContactNumber, c.Email).Scan(&c.ID); err != nil {
		return Client{}, fmt.Errorf("insert client: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) AddProgram(p HealthProgram) (HealthProgram, error) {
	if err := validateProgram(p); err != nil {
		return HealthProgram{}, err
	}

	q := fmt.Sprintf(`
INSERT INTO %s (name, description)
VALUES ($1, NULLIF($2, ''))
RETURNING id`, s.desc.TableName(schema.TableHealthPrograms))
	if err := s.db.QueryRow(q, p.Name, p.Description).Scan(&p.ID); err != nil {
		if isPGError(err, pgUniqueViolation) {
			return HealthProgram{}, ErrDuplicateProgram
		}
		return HealthProgram{}, fmt.Errorf("insert program: %w", err)
	}
	return p, nil
}

// Enroll relies on the composite primary key for pair uniqueness and on the
// foreign keys for referential integrity; both are translated back into
// sentinels rather than validated up front.
func (s *PostgresStore) Enroll(clientID, programID int64, enrolledOn time.Time) error {
	if enrolledOn.IsZero() {
		enrolledOn = s.nowFunc()
	}

	q := fmt.Sprintf(`
INSERT INTO %s (client_id, program_id, enrollment_date)
VALUES ($1, $2, $3)`, s.desc.TableName(schema.TableClientPrograms))
	if _, err := s.db.Exec(q, clientID, programID, enrolledOn); err != nil {
		if isPGError(err, pgUniqueViolation) {
			return ErrDuplicateEnrollment
		}
		if isPGError(err, pgForeignKeyViolation) {
			return fmt.Errorf("enrollment references missing client or program: %w", err)
		}
		return fmt.Errorf("insert enrollment: %w", err)
	}
	return nil
}

func isPGError(err error, code string) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return string(pgErr.Code) == code
	}
	return false
}
