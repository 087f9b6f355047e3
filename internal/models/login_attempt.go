package models

import "time"

// LoginAttempt is one recorded login outcome, kept for per-email lockout
// decisions until ExpiresAt.
type LoginAttempt struct {
	ID                string
	Email             string
	IPAddress         string
	UserAgent         string
	AttemptTime       time.Time
	Success           bool
	FailureReason     *string
	DeviceFingerprint string
	ExpiresAt         time.Time
}
