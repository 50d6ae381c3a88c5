package model

// User is the authenticated identity as returned by the backend. Name and
// Email partition the message collection into inbox and sent views.
type User struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"nome"`
	Email string `json:"email"`
}
