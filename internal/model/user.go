// Package model defines the records persisted by the feed store.
package model

// User is a registered account.
//
// Password is stored exactly as supplied and compared by equality.
// Handlers never serialize a User directly; they project it into a
// response type without the password.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	CreatedAt int64  `json:"createdAt"` // unix milliseconds
}
