package clinic

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedClient(t *testing.T, store Store, first, last string) Client {
	t.Helper()
	c, err := store.AddClient(Client{
		FirstName:     first,
		LastName:      last,
		DateOfBirth:   date(1990, time.May, 12),
		ContactNumber: "555-0100",
	})
	if err != nil {
		t.Fatalf("AddClient() error: %v", err)
	}
	return c
}

func seedProgram(t *testing.T, store Store, name string) HealthProgram {
	t.Helper()
	p, err := store.AddProgram(HealthProgram{Name: name, Description: "desc"})
	if err != nil {
		t.Fatalf("AddProgram() error: %v", err)
	}
	return p
}

func TestInMemoryStoreCounts(t *testing.T) {
	store := NewInMemoryStore()

	seedClient(t, store, "Jane", "Doe")
	seedClient(t, store, "John", "Smith")
	seedProgram(t, store, "TB Care")

	clients, err := store.CountClients()
	if err != nil {
		t.Fatalf("CountClients() error: %v", err)
	}
	if clients != 2 {
		t.Fatalf("expected 2 clients, got %d", clients)
	}

	programs, err := store.CountPrograms()
	if err != nil {
		t.Fatalf("CountPrograms() error: %v", err)
	}
	if programs != 1 {
		t.Fatalf("expected 1 program, got %d", programs)
	}
}

func TestInMemoryStoreRecentEnrollmentsOrderAndLimit(t *testing.T) {
	store := NewInMemoryStore()

	c := seedClient(t, store, "Jane", "Doe")
	names := []string{"TB Care", "HIV Care", "Malaria", "Nutrition", "Dental", "Vision", "Maternity"}
	for i, name := range names {
		p := seedProgram(t, store, name)
		if err := store.Enroll(c.ID, p.ID, date(2026, time.January, 1+i)); err != nil {
			t.Fatalf("Enroll(%s) error: %v", name, err)
		}
	}

	recent, err := store.RecentEnrollments(5)
	if err != nil {
		t.Fatalf("RecentEnrollments() error: %v", err)
	}
	if len(recent) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(recent))
	}
	if recent[0].ProgramName != "Maternity" {
		t.Fatalf("expected newest enrollment first, got %q", recent[0].ProgramName)
	}
	for i := 1; i < len(recent); i++ {
		if recent[i-1].EnrollmentDate < recent[i].EnrollmentDate {
			t.Fatalf("rows not in descending date order: %q before %q",
				recent[i-1].EnrollmentDate, recent[i].EnrollmentDate)
		}
	}
	if recent[0].ClientName != "Jane Doe" {
		t.Fatalf("expected client name %q, got %q", "Jane Doe", recent[0].ClientName)
	}
}

func TestInMemoryStoreRecentEnrollmentsFewerThanLimit(t *testing.T) {
	store := NewInMemoryStore()

	c := seedClient(t, store, "Jane", "Doe")
	p := seedProgram(t, store, "TB Care")
	if err := store.Enroll(c.ID, p.ID, date(2026, time.February, 3)); err != nil {
		t.Fatalf("Enroll() error: %v", err)
	}

	recent, err := store.RecentEnrollments(5)
	if err != nil {
		t.Fatalf("RecentEnrollments() error: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 row, got %d", len(recent))
	}
	if recent[0].EnrollmentDate != "2026-02-03" {
		t.Fatalf("expected date 2026-02-03, got %q", recent[0].EnrollmentDate)
	}
}

func TestInMemoryStoreDuplicateEnrollmentRejected(t *testing.T) {
	store := NewInMemoryStore()

	c := seedClient(t, store, "Jane", "Doe")
	p := seedProgram(t, store, "TB Care")

	if err := store.Enroll(c.ID, p.ID, time.Time{}); err != nil {
		t.Fatalf("Enroll() error: %v", err)
	}
	if err := store.Enroll(c.ID, p.ID, time.Time{}); !errors.Is(err, ErrDuplicateEnrollment) {
		t.Fatalf("expected ErrDuplicateEnrollment, got %v", err)
	}
}

func TestInMemoryStoreEnrollReferentialChecks(t *testing.T) {
	store := NewInMemoryStore()

	c := seedClient(t, store, "Jane", "Doe")
	p := seedProgram(t, store, "TB Care")

	if err := store.Enroll(99, p.ID, time.Time{}); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
	if err := store.Enroll(c.ID, 99, time.Time{}); !errors.Is(err, ErrProgramNotFound) {
		t.Fatalf("expected ErrProgramNotFound, got %v", err)
	}
}

func TestInMemoryStoreEnrollDefaultsDate(t *testing.T) {
	store := NewInMemoryStore()
	fakeNow := date(2026, time.April, 20)
	store.nowFunc = func() time.Time { return fakeNow }

	c := seedClient(t, store, "Jane", "Doe")
	p := seedProgram(t, store, "TB Care")
	if err := store.Enroll(c.ID, p.ID, time.Time{}); err != nil {
		t.Fatalf("Enroll() error: %v", err)
	}

	recent, err := store.RecentEnrollments(5)
	if err != nil {
		t.Fatalf("RecentEnrollments() error: %v", err)
	}
	if recent[0].EnrollmentDate != "2026-04-20" {
		t.Fatalf("expected default enrollment date 2026-04-20, got %q", recent[0].EnrollmentDate)
	}
}

func TestInMemoryStoreDuplicateProgramName(t *testing.T) {
	store := NewInMemoryStore()
	seedProgram(t, store, "TB Care")

	if _, err := store.AddProgram(HealthProgram{Name: "TB Care"}); !errors.Is(err, ErrDuplicateProgram) {
		t.Fatalf("expected ErrDuplicateProgram, got %v", err)
	}
}

func TestInMemoryStoreValidation(t *testing.T) {
	store := NewInMemoryStore()

	if _, err := store.AddClient(Client{LastName: "Doe"}); err == nil {
		t.Fatalf("expected error for client without first name")
	}
	if _, err := store.AddClient(Client{FirstName: "Jane", LastName: "Doe", ContactNumber: "555"}); err == nil {
		t.Fatalf("expected error for client without date of birth")
	}
	if _, err := store.AddProgram(HealthProgram{}); err == nil {
		t.Fatalf("expected error for unnamed program")
	}
}
