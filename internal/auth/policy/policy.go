// Package policy holds the password strength rules applied at registration.
package policy

import "regexp"

var (
	letterPattern  = regexp.MustCompile(`[a-zA-Z]`)
	digitPattern   = regexp.MustCompile(`\d`)
	specialPattern = regexp.MustCompile(`[$%#@!*&~^+-]`)
	allowedPattern = regexp.MustCompile(`^[a-zA-Z0-9$%#@!*&~^+-]+$`)
)

// Validate checks every rule independently and returns a description of
// each violated one. An empty result means the password is accepted.
func Validate(password string) []string {
	var violations []string

	if len(password) < 4 {
		violations = append(violations, "Password must be at least 4 characters long.")
	}
	if !letterPattern.MatchString(password) {
		violations = append(violations, "Password must contain at least one letter character.")
	}
	if !digitPattern.MatchString(password) {
		violations = append(violations, "Password must contain at least one number character.")
	}
	if !specialPattern.MatchString(password) {
		violations = append(violations, `Password must contain at least one special character from the set: { "$", "%", "#", "@", "!", "*", "&", "~", "^", "-", "+" }.`)
	}
	if !allowedPattern.MatchString(password) {
		violations = append(violations, "Password cannot contain any other characters apart from letters, numbers, and special characters.")
	}

	return violations
}
