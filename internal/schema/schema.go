package schema

import (
	"database/sql"
	"fmt"
	"regexp"
)

// Logical table names. The physical name of each table also carries the
// application key and schema version, so distinct versions never collide.
const (
	TableUsers          = "users"
	TableHealthPrograms = "health_programs"
	TableClients        = "clients"
	TableClientPrograms = "client_programs"
)

var appKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Descriptor identifies one generation of the schema. Two descriptors with
// different versions address disjoint sets of tables; bumping the version
// therefore starts from empty tables instead of migrating rows in place.
type Descriptor struct {
	AppKey  string
	Version int
}

func NewDescriptor(appKey string, version int) (Descriptor, error) {
	if !appKeyPattern.MatchString(appKey) {
		return Descriptor{}, fmt.Errorf("invalid schema app key %q", appKey)
	}
	if version <= 0 {
		return Descriptor{}, fmt.Errorf("schema version must be > 0, got %d", version)
	}
	return Descriptor{AppKey: appKey, Version: version}, nil
}

// TableName derives the physical table name for a logical table. The
// derivation is the single place physical names are produced; callers never
// format them ad hoc.
func (d Descriptor) TableName(logical string) string {
	return fmt.Sprintf("%s_%s_%d", d.AppKey, logical, d.Version)
}

// Manager ensures the tables of one schema generation exist.
type Manager struct {
	db   *sql.DB
	desc Descriptor
}

func NewManager(db *sql.DB, desc Descriptor) (*Manager, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &Manager{db: db, desc: desc}, nil
}

// EnsureTables creates all four tables if they do not exist. Creation is
// idempotent; "already exists" is not an error. Concurrent callers are safe
// because CREATE TABLE IF NOT EXISTS is the only DDL issued.
func (m *Manager) EnsureTables() error {
	for _, q := range m.createStatements() {
		if _, err := m.db.Exec(q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (m *Manager) createStatements() []string {
	users := m.desc.TableName(TableUsers)
	programs := m.desc.TableName(TableHealthPrograms)
	clients := m.desc.TableName(TableClients)
	clientPrograms := m.desc.TableName(TableClientPrograms)

	return []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id SERIAL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	role TEXT NOT NULL
)`, users),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	description TEXT
)`, programs),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id SERIAL PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	date_of_birth DATE NOT NULL,
	contact_number TEXT NOT NULL,
	email TEXT
)`, clients),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	client_id INTEGER NOT NULL,
	program_id INTEGER NOT NULL,
	enrollment_date DATE NOT NULL DEFAULT CURRENT_DATE,
	PRIMARY KEY (client_id, program_id),
	FOREIGN KEY (client_id) REFERENCES %s(id),
	FOREIGN KEY (program_id) REFERENCES %s(id)
)`, clientPrograms, clients, programs),
	}
}
