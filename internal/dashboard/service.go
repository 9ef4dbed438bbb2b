package dashboard

import (
	"fmt"

	"healthtrack/clinic-core/internal/clinic"
)

// recentLimit caps the enrollment list on the dashboard.
const recentLimit = 5

type Stats struct {
	TotalClients      int                       `json:"totalClients"`
	TotalPrograms     int                       `json:"totalPrograms"`
	RecentEnrollments []clinic.RecentEnrollment `json:"recentEnrollments"`
}

// Service computes dashboard statistics. Every call recomputes from the
// store; there is no caching.
type Service struct {
	store clinic.Store
}

func NewService(store clinic.Store) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("clinic store is required")
	}
	return &Service{store: store}, nil
}

func (s *Service) Stats() (Stats, error) {
	clients, err := s.store.CountClients()
	if err != nil {
		return Stats{}, fmt.Errorf("count clients: %w", err)
	}
	programs, err := s.store.CountPrograms()
	if err != nil {
		return Stats{}, fmt.Errorf("count programs: %w", err)
	}
	recent, err := s.store.RecentEnrollments(recentLimit)
	if err != nil {
		return Stats{}, fmt.Errorf("recent enrollments: %w", err)
	}
	if recent == nil {
		recent = make([]clinic.RecentEnrollment, 0)
	}

	return Stats{
		TotalClients:      clients,
		TotalPrograms:     programs,
		RecentEnrollments: recent,
	}, nil
}
