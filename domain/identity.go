package domain

// Identity is a point-in-time snapshot of a signed-in user. Snapshots are
// copied into cards and timeline entries at creation time; renaming the user
// later does not rewrite history.
type Identity struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL"`
}

// AuthorName returns the name recorded on timeline entries.
func (id Identity) AuthorName() string {
	if id.DisplayName != "" {
		return id.DisplayName
	}
	if id.Email != "" {
		return id.Email
	}
	return "You"
}
