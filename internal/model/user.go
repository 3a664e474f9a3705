package model

import "time"

// A User represents a database record.
type User struct {
	Base `msgpack:",inline" storm:"inline"`

	Email       string     `msgpack:"email"    storm:"unique"`
	Username    string     `msgpack:"username" storm:"unique"`
	Password    string     `msgpack:"password,omitempty"`
	PhoneNumber string     `msgpack:"phone_number,omitempty"`
	FirstName   string     `msgpack:"first_name,omitempty"`
	LastName    string     `msgpack:"last_name,omitempty"`
	Address     string     `msgpack:"address,omitempty"`
	Country     string     `msgpack:"country,omitempty"`
	DateOfBirth *time.Time `msgpack:"date_of_birth,omitempty"`
	Avatar      string     `msgpack:"avatar,omitempty"`

	IsActive    bool `msgpack:"is_active"`
	IsStaff     bool `msgpack:"is_staff"`
	IsSuperuser bool `msgpack:"is_superuser"`

	// Capabilities are the permissions granted directly to the user.
	Capabilities []string `msgpack:"capabilities,omitempty"`
	// Groups are the IDs of the groups the user belongs to.
	Groups []string `msgpack:"groups,omitempty"`

	// PasswordUpdatedAt is used to revoke tokens issued before a password change.
	PasswordUpdatedAt int64 `msgpack:"password_updated_at"`
}

// NewUser returns a new active user.
func NewUser() *User {
	return &User{
		IsActive: true,
	}
}

// AddCapability grants the given capability name to the user.
func (u *User) AddCapability(name string) {
	u.Capabilities = appendUnique(u.Capabilities, name)
}

// JoinGroup adds the user to the given group ID.
func (u *User) JoinGroup(id string) {
	u.Groups = appendUnique(u.Groups, id)
}

func appendUnique(values []string, value string) []string {
	for _, v := range values {
		if v == value {
			return values
		}
	}
	return append(values, value)
}
