package clinic

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileStore keeps the domain records in a single JSON file. It backs the
// no-database mode with the same semantics as the Postgres store.
type FileStore struct {
	path string

	mu          sync.RWMutex
	clients     map[int64]Client
	programs    map[int64]HealthProgram
	enrollments []Enrollment
	nextClient  int64
	nextProgram int64
	nowFunc     func() time.Time
}

type fileState struct {
	Clients     []fileClient     `json:"clients"`
	Programs    []HealthProgram  `json:"programs"`
	Enrollments []fileEnrollment `json:"enrollments"`
}

type fileClient struct {
	ID            int64  `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	DateOfBirth   string `json:"date_of_birth"`
	ContactNumber string `json:"contact_number"`
	Email         string `json:"email,omitempty"`
}

type fileEnrollment struct {
	ClientID   int64  `json:"client_id"`
	ProgramID  int64  `json:"program_id"`
	EnrolledOn string `json:"enrollment_date"`
}

func NewFileStore(path string) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("clinic state file path is required")
	}

	s := &FileStore{
		path:        path,
		clients:     make(map[int64]Client),
		programs:    make(map[int64]HealthProgram),
		nextClient:  1,
		nextProgram: 1,
		nowFunc:     time.Now,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) CountClients() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients), nil
}

func (s *FileStore) CountPrograms() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.programs), nil
}

func (s *FileStore) RecentEnrollments(limit int) ([]RecentEnrollment, error) {
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

func (s *FileStore) AddClient(c Client) (Client, error) {
	if err := validateClient(c); err != nil {
		return Client{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.nextClient
	s.nextClient++
	s.clients[c.ID] = c
	if err := s.persistLocked(); err != nil {
		delete(s.clients, c.ID)
		s.nextClient--
		return Client{}, err
	}
	return c, nil
}

func (s *FileStore) AddProgram(p HealthProgram) (HealthProgram, error) {
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
	if err := s.persistLocked(); err != nil {
		delete(s.programs, p.ID)
		s.nextProgram--
		return HealthProgram{}, err
	}
	return p, nil
}

func (s *FileStore) Enroll(clientID, programID int64, enrolledOn time.Time) error {
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
	if err := s.persistLocked(); err != nil {
		s.enrollments = s.enrollments[:len(s.enrollments)-1]
		return err
	}
	return nil
}

func (s *FileStore) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read clinic state file: %w", err)
	}
	if len(b) == 0 {
		return nil
	}

	var state fileState
	if err := json.Unmarshal(b, &state); err != nil {
		return fmt.Errorf("decode clinic state file: %w", err)
	}

	for _, fc := range state.Clients {
		if fc.ID <= 0 {
			continue
		}
		dob, err := time.Parse(dateLayout, fc.DateOfBirth)
		if err != nil {
			return fmt.Errorf("restore client date of birth %q: %w", fc.DateOfBirth, err)
		}
		s.clients[fc.ID] = Client{
			ID:            fc.ID,
			FirstName:     fc.FirstName,
			LastName:      fc.LastName,
			DateOfBirth:   dob,
			ContactNumber: fc.ContactNumber,
			Email:         fc.Email,
		}
		if fc.ID >= s.nextClient {
			s.nextClient = fc.ID + 1
		}
	}
	for _, p := range state.Programs {
		if p.ID <= 0 {
			continue
		}
		s.programs[p.ID] = p
		if p.ID >= s.nextProgram {
			s.nextProgram = p.ID + 1
		}
	}
	for _, fe := range state.Enrollments {
		enrolledOn, err := time.Parse(dateLayout, fe.EnrolledOn)
		if err != nil {
			return fmt.Errorf("restore enrollment date %q: %w", fe.EnrolledOn, err)
		}
		s.enrollments = append(s.enrollments, Enrollment{
			ClientID:   fe.ClientID,
			ProgramID:  fe.ProgramID,
			EnrolledOn: enrolledOn,
		})
	}
	return nil
}

func (s *FileStore) persistLocked() error {
	state := fileState{
		Clients:     make([]fileClient, 0, len(s.clients)),
		Programs:    make([]HealthProgram, 0, len(s.programs)),
		Enrollments: make([]fileEnrollment, 0, len(s.enrollments)),
	}
	for id := int64(1); id < s.nextClient; id++ {
		c, ok := s.clients[id]
		if !ok {
			continue
		}
		state.Clients = append(state.Clients, fileClient{
			ID:            c.ID,
			FirstName:     c.FirstName,
			LastName:      c.LastName,
			DateOfBirth:   c.DateOfBirth.Format(dateLayout),
			ContactNumber: c.ContactNumber,
			Email:         c.Email,
		})
	}
	for id := int64(1); id < s.nextProgram; id++ {
		if p, ok := s.programs[id]; ok {
			state.Programs = append(state.Programs, p)
		}
	}
	for _, e := range s.enrollments {
		state.Enrollments = append(state.Enrollments, fileEnrollment{
			ClientID:   e.ClientID,
			ProgramID:  e.ProgramID,
			EnrolledOn: e.EnrolledOn.Format(dateLayout),
		})
	}

	b, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode clinic state file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir clinic state dir: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write clinic state file: %w", err)
	}
	return nil
}
