package domain

import "time"

// EventType defines the type of event that occurred.
type EventType string

const (
	EventPackageStateChanged     EventType = "package.state_changed"
	EventPackageOnboardingFailed EventType = "package.onboarding_failed"
)

// Event represents a domain event that occurred in the system.
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	Data      any
}

// PackageEventPayload is carried by package.* events.
type PackageEventPayload struct {
	Record PackageRecord
}
