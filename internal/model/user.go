// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data. Go favours composition over inheritance.
package model

import "time"

// User represents a registered user account.
//
// ID is assigned by the store on insert and never changes. PasswordHash is
// tagged json:"-" so a User can never leak its credential through an encoder.
type User struct {
	ID           int64     `json:"user_id"    db:"id"`
	Email        string    `json:"email"      db:"email"`
	PasswordHash string    `json:"-"          db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name"  db:"last_name"`
	CreatedAt    time.Time `json:"-"          db:"created_at"`
}

// UserSummary is the public projection returned by user listings.
type UserSummary struct {
	ID        int64  `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Credentials is what login needs from the store: the id and the stored hash.
type Credentials struct {
	UserID       int64
	PasswordHash string
}
