package model

// Membership levels.
const (
	MembershipRegular = 0
	MembershipPremium = 1
)

// User is a registered customer of a station.
type User struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Registered bool   `json:"registered"`
	Membership int    `json:"membership"`
}

// NewUser registers a user. Unknown membership levels fall back to regular.
func NewUser(id int, name string, membership int) User {
	if membership != MembershipRegular && membership != MembershipPremium {
		membership = MembershipRegular
	}
	if len(name) > 49 {
		name = name[:49]
	}
	return User{ID: id, Name: name, Registered: true, Membership: membership}
}

// Premium reports whether the user has premium membership.
func (u User) Premium() bool { return u.Membership == MembershipPremium }
