package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

type Event struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	Title           string      `json:"title" db:"title"`
	Description     string      `json:"description" db:"description"`
	Date            time.Time   `json:"date" db:"date"`
	Location        string      `json:"location" db:"location"`
	Capacity        int         `json:"capacity" db:"capacity"`
	RegisteredCount int         `json:"registered_count" db:"registered_count"`
	Price           float64     `json:"price" db:"price"`
	ImageURL        *string     `json:"image_url" db:"image_url"`
	OrganizerID     uuid.UUID   `json:"organizer_id" db:"organizer_id"`
	Status          EventStatus `json:"status" db:"status"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

func (e *Event) IsFull() bool {
	return e.RegisteredCount >= e.Capacity
}

func (e *Event) SpotsLeft() int {
	if e.IsFull() {
		return 0
	}
	return e.Capacity - e.RegisteredCount
}

type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "registered"
	RegistrationCheckedIn  RegistrationStatus = "checked_in"
	RegistrationCancelled  RegistrationStatus = "cancelled"
)

type Registration struct {
	ID        uuid.UUID          `json:"id" db:"id"`
	UserID    uuid.UUID          `json:"user_id" db:"user_id"`
	EventID   uuid.UUID          `json:"event_id" db:"event_id"`
	Status    RegistrationStatus `json:"status" db:"status"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
}

// IsActive reports whether the registration entitles the user to take part in matching.
func (r *Registration) IsActive() bool {
	return r.Status == RegistrationRegistered || r.Status == RegistrationCheckedIn
}
