package types

// Identity describes who the current session belongs to.
// The zero value is the anonymous identity.
type Identity struct {
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Anonymous returns the identity of a signed-out session.
func Anonymous() Identity {
	return Identity{}
}

// Authenticated returns the identity of a signed-in user.
func Authenticated(userID, email string) Identity {
	return Identity{UserID: userID, Email: email}
}

// IsAuthenticated reports whether the identity belongs to a signed-in user.
func (i Identity) IsAuthenticated() bool {
	return i.UserID != ""
}

// String returns a short, log-friendly description of the identity.
func (i Identity) String() string {
	if !i.IsAuthenticated() {
		return "anonymous"
	}
	return "user:" + i.UserID
}
