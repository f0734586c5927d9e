package domain

import "strings"

// Identity is a signed-in principal as reported by the auth provider.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// DisplayNameFromEmail derives the presentation name: the local part of the
// email address.
func DisplayNameFromEmail(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}

// Session is the resolved view of the current principal. IsAdmin is only
// meaningful once Loading is false; consumers must not trust IsAdmin while the
// role lookup is still pending.
type Session struct {
	Identity *Identity `json:"identity,omitempty"`
	IsAdmin  bool      `json:"isAdmin"`
	Loading  bool      `json:"loading"`
}

// SignedIn reports whether an identity is present.
func (s Session) SignedIn() bool {
	return s.Identity != nil
}
