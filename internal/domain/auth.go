package domain

// Actor is the authenticated caller of a complaint operation.
type Actor struct {
	ID    int64
	Role  Role
	Email string
	Name  string
}

// ActorFromUser projects a stored user onto an actor.
func ActorFromUser(u *User) *Actor {
	if u == nil {
		return nil
	}
	return &Actor{ID: u.ID, Role: u.Role, Email: u.Email, Name: u.Name}
}
