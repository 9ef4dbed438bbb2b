package clinic

import "time"

// dateLayout is the wire form of DATE columns.
const dateLayout = "2006-01-02"

type Client struct {
	ID            int64     `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	DateOfBirth   time.Time `json:"dateOfBirth"`
	ContactNumber string    `json:"contactNumber"`
	Email         string    `json:"email,omitempty"`
}

func (c Client) FullName() string {
	return c.FirstName + " " + c.LastName
}

type HealthProgram struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Enrollment links one client to one program. The (ClientID, ProgramID)
// pair is its identity; at most one enrollment exists per pair.
type Enrollment struct {
	ClientID   int64
	ProgramID  int64
	EnrolledOn time.Time
}

// RecentEnrollment is the dashboard row shape. The JSON keys mirror the
// column aliases of the dashboard query and are part of the HTTP contract.
type RecentEnrollment struct {
	EnrollmentDate string `json:"enrollment_date"`
	ClientName     string `json:"clientName"`
	ProgramName    string `json:"programName"`
}
