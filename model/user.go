package model

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Profile holds the local user data relevant to the application (outside of the identity provider)
type Profile struct {
	UserId string `db:"user_id" json:"userId"`
	Email  string `db:"email" json:"email"`
	Role   Role   `db:"role" json:"role"`
}

// Caller is the identity resolved for the current request.
type Caller struct {
	UserId string `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Token  string `json:"-"`
}

func (c *Caller) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}
