package chat

// Role distinguishes the single support admin from everyone else.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// Opposite returns the other party of a two-party room.
func (r Role) Opposite() Role {
	if r == RoleAdmin {
		return RoleCustomer
	}
	return RoleAdmin
}

// Actor is an authenticated identity acting on the chat.
type Actor struct {
	ID        string
	Role      Role
	Name      string
	AvatarURL string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
