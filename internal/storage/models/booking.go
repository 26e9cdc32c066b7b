// Package models defines data structures for storage entities.
package models

import (
	"time"
)

// Booking is one calendar occurrence of a desk or resource reservation.
// A recurring request materializes into one Booking per occurrence date.
type Booking struct {
	ID             string         `json:"id"`
	Date           string         `json:"date"`      // Format: "2006-01-02"
	StartTime      string         `json:"startTime"` // Format: "15:04"
	EndTime        string         `json:"endTime"`   // Format: "15:04"
	BookType       BookType       `json:"bookType"`
	SubType        string         `json:"subType"`
	OfficeLocation string         `json:"officeLocation"`
	Building       string         `json:"building"`
	Floor          string         `json:"floor"`
	RecurrenceType RecurrenceType `json:"recurrenceType"`
	EndDate        *string        `json:"endDate,omitempty"`
	CustomDates    []string       `json:"customDates,omitempty"`
	Status         BookingStatus  `json:"status"`
	UserID         string         `json:"userId"`
	Notes          *string        `json:"notes,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// BookType is the kind of bookable resource.
type BookType string

// Book type constants
const (
	BookTypeDesk     BookType = "DESK"
	BookTypeResource BookType = "RESOURCE"
)

// Valid reports whether t is a known book type.
func (t BookType) Valid() bool {
	return t == BookTypeDesk || t == BookTypeResource
}

// RecurrenceType describes how a booking request repeats.
type RecurrenceType string

// Recurrence type constants
const (
	RecurrenceNone   RecurrenceType = "NONE"
	RecurrenceDaily  RecurrenceType = "DAILY"
	RecurrenceWeekly RecurrenceType = "WEEKLY"
	RecurrenceCustom RecurrenceType = "CUSTOM"
)

// Valid reports whether t is a known recurrence type. The empty value means NONE.
func (t RecurrenceType) Valid() bool {
	switch t {
	case "", RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceCustom:
		return true
	}
	return false
}

// BookingStatus is the lifecycle state of a single occurrence.
type BookingStatus string

// Booking status constants
const (
	BookingStatusConfirmed BookingStatus = "confirmed" // Holds the resource for its date
	BookingStatusCancelled BookingStatus = "cancelled" // Released by its owner
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

// IsConfirmed returns true if the booking currently holds its resource.
func (b *Booking) IsConfirmed() bool {
	return b.Status == BookingStatusConfirmed
}

// OwnedBy returns true if userID created the booking.
func (b *Booking) OwnedBy(userID string) bool {
	return b.UserID == userID
}
