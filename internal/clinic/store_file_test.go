package clinic

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clinic.json")

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	c := seedClient(t, store, "Jane", "Doe")
	p := seedProgram(t, store, "TB Care")
	if err := store.Enroll(c.ID, p.ID, date(2026, time.March, 15)); err != nil {
		t.Fatalf("Enroll() error: %v", err)
	}

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() reopen error: %v", err)
	}

	clients, err := reopened.CountClients()
	if err != nil {
		t.Fatalf("CountClients() error: %v", err)
	}
	if clients != 1 {
		t.Fatalf("expected 1 client after reopen, got %d", clients)
	}

	recent, err := reopened.RecentEnrollments(5)
	if err != nil {
		t.Fatalf("RecentEnrollments() error: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 enrollment after reopen, got %d", len(recent))
	}
	if recent[0].ClientName != "Jane Doe" || recent[0].ProgramName != "TB Care" {
		t.Fatalf("unexpected enrollment row: %+v", recent[0])
	}
	if recent[0].EnrollmentDate != "2026-03-15" {
		t.Fatalf("expected date 2026-03-15, got %q", recent[0].EnrollmentDate)
	}
}

func TestFileStoreDuplicateEnrollmentSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clinic.json")

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	c := seedClient(t, store, "Jane", "Doe")
	p := seedProgram(t, store, "TB Care")
	if err := store.Enroll(c.ID, p.ID, time.Time{}); err != nil {
		t.Fatalf("Enroll() error: %v", err)
	}

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() reopen error: %v", err)
	}
	if err := reopened.Enroll(c.ID, p.ID, time.Time{}); !errors.Is(err, ErrDuplicateEnrollment) {
		t.Fatalf("expected ErrDuplicateEnrollment after reopen, got %v", err)
	}
}

func TestFileStoreIDContinuesAfterReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clinic.json")

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	seedClient(t, store, "Jane", "Doe")

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() reopen error: %v", err)
	}
	c := seedClient(t, reopened, "John", "Smith")
	if c.ID != 2 {
		t.Fatalf("expected second client to get id 2, got %d", c.ID)
	}
}

func TestFileStoreEnrollUnknownReferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clinic.json")

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	if err := store.Enroll(1, 1, time.Time{}); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
}
