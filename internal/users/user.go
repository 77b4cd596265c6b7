package users

import (
	"strings"

	"github.com/google/uuid"
)

// User is an authenticated caller. A nil *User is an anonymous caller.
type User struct {
	ID           int       `json:"-"`
	UUID         uuid.UUID `json:"uuid"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"-"`
	IsOfficial   bool      `json:"is_official"`
	IsContractor bool      `json:"is_contractor"`
	IsSuperuser  bool      `json:"-"`
}

func (user *User) Authenticated() bool {
	return user != nil
}

// Privileged users see and modify every event.
func (user *User) Privileged() bool {
	return user != nil && (user.IsSuperuser || user.IsOfficial)
}

// CanViewZoneDetails reports whether contact details and statistics of
// contract zones may be shown to the user.
func CanViewZoneDetails(user *User) bool {
	return user.Authenticated() && user.IsOfficial
}

func (user *User) FullName() string {
	if user == nil {
		return ""
	}
	return strings.TrimSpace(user.FirstName + " " + user.LastName)
}
