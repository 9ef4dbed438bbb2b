package auth

import "time"

const (
	RoleAdmin  = "admin"
	RoleDoctor = "doctor"
	RoleStaff  = "staff"
)

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
	Role     string `json:"role"`
}

// Session is the record issued at login and dropped at logout. Token is the
// decimal form of the user id: the cookie carries no server-side secret and
// no expiry, so possession of a valid id is possession of the session.
type Session struct {
	Token    string
	UserID   int64
	Username string
	Role     string
	IssuedAt time.Time
}
