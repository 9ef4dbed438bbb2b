package clinic

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrClientNotFound      = errors.New("client not found")
	ErrProgramNotFound     = errors.New("program not found")
	ErrDuplicateEnrollment = errors.New("client already enrolled in program")
	ErrDuplicateProgram    = errors.New("program name already exists")
)

// Store is the domain store for clients, health programs, and enrollments.
// The HTTP layer only reads; the write operations are reached out-of-band
// (seeding) and by tests.
type Store interface {
	CountClients() (int, error)
	CountPrograms() (int, error)
	RecentEnrollments(limit int) ([]RecentEnrollment, error)

	AddClient(c Client) (Client, error)
	AddProgram(p HealthProgram) (HealthProgram, error)
	Enroll(clientID, programID int64, enrolledOn time.Time) error
}

type InMemoryStore struct {
	mu          sync.RWMutex
	clients     map[int64]Client
	programs    map[int64]HealthProgram
	enrollments []Enrollment
	nextClient  int64
	nextProgram int64
	nowFunc     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		clients:     make(map[int64]Client),
		programs:    make(map[int64]HealthProgram),
		nextClient:  1,
		nextProgram: 1,
		nowFunc:     time.Now,
	}
}

func (s *InMemoryStore) CountClients() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients), nil
}

func (s *InMemoryStore) CountPrograms() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.programs), nil
}

func (s *InMemoryStore) RecentEnrollments(limit int) ([]RecentEnrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ordered := append([]Enrollment(nil), s.enrollments...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EnrolledOn.After(ordered[j].EnrolledOn)
	})

	out := make([]RecentEnrollment, 0, limit)
	for _, e := range ordered {
		if len(out) == limit {
			break
		}
		c, ok := s.clients[e.ClientID]
		if !ok {
			continue
		}
		p, ok := s.programs[e.ProgramID]
		if !ok {
			continue
		}
		out = append(out, RecentEnrollment{
			EnrollmentDate: e.EnrolledOn.Format(dateLayout),
			ClientName:     c.FullName(),
			ProgramName:    p.Name,
		})
	}
	return out, nil
}

func (s *InMemoryStore) AddClient(c Client) (Client, error) {
	if err := validateClient(c); err != nil {
		return Client{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.nextClient
	s.nextClient++
	s.clients[c.ID] = c
	return c, nil
}

func (s *InMemoryStore) AddProgram(p HealthProgram) (HealthProgram, error) {
	if err := validateProgram(p); err != nil {
		return HealthProgram{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.programs {
		if existing.Name == p.Name {
			return HealthProgram{}, ErrDuplicateProgram
		}
	}
	p.ID = s.nextProgram
	s.nextProgram++
	s.programs[p.ID] = p
	return p, nil
}

func (s *InMemoryStore) Enroll(clientID, programID int64, enrolledOn time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[clientID]; !ok {
		return ErrClientNotFound
	}
	if _, ok := s.programs[programID]; !ok {
		return ErrProgramNotFound
	}
	for _, e := range s.enrollments {
		if e.ClientID == clientID && e.ProgramID == programID {
			return ErrDuplicateEnrollment
		}
	}

	if enrolledOn.IsZero() {
		enrolledOn = s.nowFunc()
	}
	s.enrollments = append(s.enrollments, Enrollment{
		ClientID:   clientID,
		ProgramID:  programID,
		EnrolledOn: enrolledOn,
	})
	return nil
}

func validateClient(c Client) error {
	if strings.TrimSpace(c.FirstName) == "" || strings.TrimSpace(c.LastName) == "" {
		return fmt.Errorf("first and last name are required")
	}
	if c.DateOfBirth.IsZero() {
		return fmt.Errorf("date of birth is required")
	}
	if strings.TrimSpace(c.ContactNumber) == "" {
		return fmt.Errorf("contact number is required")
	}
	return nil
}

func validateProgram(p HealthProgram) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("program name is required")
	}
	return nil
}
