package domain

// User is a registered account. Username doubles as the login identity and
// is unique across the store; clients supply an email-shaped string by
// convention but the server does not validate the shape.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash"`
	DisplayName  string `json:"displayName,omitempty"`
}
