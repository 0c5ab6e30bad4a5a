package model

import "time"

// Session is the client-held record of authentication state. It is owned by
// the session store, persisted across restarts, and cleared as a whole on
// logout or auth failure.
type Session struct {
	Token       string       `json:"token,omitempty"`
	IsLoggedIn  bool         `json:"isLoggedIn"`
	UserRole    string       `json:"userRole,omitempty"`
	UserInfo    UserInfo     `json:"userInfo,omitempty"`
	Permissions []Permission `json:"permissions,omitempty"`
	ExpiresAt   time.Time    `json:"expiresAt,omitempty"`
}

// HasPermission reports whether the named permission is granted: some entry
// matches by username and is not soft-deleted. Total over the zero value;
// a nil or empty set never grants anything.
func (s Session) HasPermission(name string) bool {
	return HasPermission(name, s.Permissions)
}

// HasPermission is the permission predicate shared by the gate and the
// session. Pure and total: nil and empty sets yield false.
func HasPermission(name string, perms []Permission) bool {
	for _, p := range perms {
		if p.Username == name && !p.IsDeleted {
			return true
		}
	}
	return false
}
