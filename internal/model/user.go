package model

import "errors"

// Role is the role record attached to a user.
type Role struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	IsDeleted bool   `json:"isDeleted"`
}

// Known role usernames.
const (
	RoleUser   = "user"
	RoleWriter = "writer"
	RoleAdmin  = "admin"
)

// Permission is a grantable capability. A permission counts as granted only
// while IsDeleted is false.
type Permission struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	IsDeleted bool   `json:"isDeleted"`
}

// Permission usernames the client routes on.
const (
	PermAccessDashboard   = "access_dashboard"
	PermCreateBlog        = "create_blog"
	PermRequestWriterRole = "request_writer_role"
)

// UserInfo is the profile record the backend returns alongside permissions.
type UserInfo struct {
	ID         string `json:"_id"`
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name,omitempty"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Role       Role   `json:"role_id"`
	Status     string `json:"status"`
	IsVerified bool   `json:"isVerified"`
	IsDeleted  bool   `json:"isDeleted"`
}

// FullName joins the user's name parts for display.
func (u UserInfo) FullName() string {
	name := u.FirstName
	if u.MiddleName != "" {
		name += " " + u.MiddleName
	}
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}

// Profile is the payload of GET /profile: user record plus granted permissions.
type Profile struct {
	UserInfo    UserInfo     `json:"userInfo"`
	Permissions []Permission `json:"permissions"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

var (
	// ErrInvalidCredentials is returned when login is rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
