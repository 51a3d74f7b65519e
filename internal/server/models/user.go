// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered identity. PasswordHash holds a bcrypt digest and is
// never rendered to clients.
type User struct {
	ID           int64
	UserName     string
	Email        string
	DateOfBirth  time.Time
	PhoneNumber  string
	ImageFile    string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
