package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
	"healthtrack/clinic-core/internal/auth"
	"healthtrack/clinic-core/internal/clinic"
	"healthtrack/clinic-core/internal/config"
	"healthtrack/clinic-core/internal/schema"
)

// seedFile is the on-disk shape consumed by the seeder. Dates use the
// YYYY-MM-DD form; enrollments reference clients and programs by their
// position in this file, starting at 1.
type seedFile struct {
	Users []struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	} `json:"users"`
	Clients []struct {
		FirstName     string `json:"firstName"`
		LastName      string `json:"lastName"`
		DateOfBirth   string `json:"dateOfBirth"`
		ContactNumber string `json:"contactNumber"`
		Email         string `json:"email"`
	} `json:"clients"`
	Programs []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"programs"`
	Enrollments []struct {
		Client         int    `json:"client"`
		Program        int    `json:"program"`
		EnrollmentDate string `json:"enrollment_date"`
	} `json:"enrollments"`
}

func main() {
	path := flag.String("file", "seed.json", "seed data file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	raw, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("read seed file: %v", err)
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		log.Fatalf("parse seed file: %v", err)
	}

	userStore, clinicStore, cleanup, err := openStores(cfg)
	if err != nil {
		log.Fatalf("open stores: %v", err)
	}
	defer cleanup()

	if err := apply(userStore, clinicStore, seed); err != nil {
		log.Fatalf("apply seed: %v", err)
	}
	log.Printf("seeded %d users, %d clients, %d programs, %d enrollments",
		len(seed.Users), len(seed.Clients), len(seed.Programs), len(seed.Enrollments))
}

func openStores(cfg config.Config) (auth.UserStore, clinic.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		userStore, err := auth.NewFileUserStore(cfg.UserStateFile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create user store: %w", err)
		}
		clinicStore, err := clinic.NewFileStore(cfg.ClinicStateFile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create clinic store: %w", err)
		}
		return userStore, clinicStore, func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("ping database: %w", err)
	}
	desc, err := schema.NewDescriptor(cfg.Schema.AppKey, cfg.Schema.Version)
	if err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("build schema descriptor: %w", err)
	}
	manager, err := schema.NewManager(db, desc)
	if err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("create schema manager: %w", err)
	}
	if err := manager.EnsureTables(); err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("ensure schema tables: %w", err)
	}
	userStore, err := auth.NewPostgresUserStore(db, desc)
	if err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("create postgres user store: %w", err)
	}
	clinicStore, err := clinic.NewPostgresStore(db, desc)
	if err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("create postgres clinic store: %w", err)
	}
	return userStore, clinicStore, func() { _ = db.Close() }, nil
}

func apply(users auth.UserStore, store clinic.Store, seed seedFile) error {
	for _, u := range seed.Users {
		if _, err := users.Put(auth.User{Username: u.Username, Password: u.Password, Role: u.Role}); err != nil {
			return fmt.Errorf("put user %q: %w", u.Username, err)
		}
	}

	clientIDs := make([]int64, 0, len(seed.Clients))
	for _, c := range seed.Clients {
		dob, err := time.Parse("2006-01-02", c.DateOfBirth)
		if err != nil {
			return fmt.Errorf("client %s %s: invalid dateOfBirth %q: %w", c.FirstName, c.LastName, c.DateOfBirth, err)
		}
		created, err := store.AddClient(clinic.Client{
			FirstName:     c.FirstName,
			LastName:      c.LastName,
			DateOfBirth:   dob,
			ContactNumber: c.ContactNumber,
			Email:         c.Email,
		})
		if err != nil {
			return fmt.Errorf("add client %s %s: %w", c.FirstName, c.LastName, err)
		}
		clientIDs = append(clientIDs, created.ID)
	}

	programIDs := make([]int64, 0, len(seed.Programs))
	for _, p := range seed.Programs {
		created, err := store.AddProgram(clinic.HealthProgram{Name: p.Name, Description: p.Description})
		if err != nil {
			return fmt.Errorf("add program %q: %w", p.Name, err)
		}
		programIDs = append(programIDs, created.ID)
	}

	for _, e := range seed.Enrollments {
		if e.Client < 1 || e.Client > len(clientIDs) {
			return fmt.Errorf("enrollment references unknown client %d", e.Client)
		}
		if e.Program < 1 || e.Program > len(programIDs) {
			return fmt.Errorf("enrollment references unknown program %d", e.Program)
		}
		var on time.Time
		if e.EnrollmentDate != "" {
			parsed, err := time.Parse("2006-01-02", e.EnrollmentDate)
			if err != nil {
				return fmt.Errorf("enrollment %d/%d: invalid enrollment_date %q: %w", e.Client, e.Program, e.EnrollmentDate, err)
			}
			on = parsed
		}
		err := store.Enroll(clientIDs[e.Client-1], programIDs[e.Program-1], on)
		if err != nil && !errors.Is(err, clinic.ErrDuplicateEnrollment) {
			return fmt.Errorf("enroll client %d in program %d: %w", e.Client, e.Program, err)
		}
	}
	return nil
}
