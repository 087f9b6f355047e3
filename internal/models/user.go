package models

import "time"

// Roles known to the dashboard
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// Account statuses
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// User is a dashboard account. The reference backend keeps users in memory.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  *time.Time
}
