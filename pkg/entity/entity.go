package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
}

// CheckInType is a fixed enumeration, no custom values.
type CheckInType string

const (
	CheckInMorning     CheckInType = "morning"
	CheckInEvening     CheckInType = "evening"
	CheckInQuickUpdate CheckInType = "quick_update"
)

func (t CheckInType) Valid() bool {
	switch t {
	case CheckInMorning, CheckInEvening, CheckInQuickUpdate:
		return true
	}
	return false
}

// Scheduled returns true for check-in types limited to one entry per day.
func (t CheckInType) Scheduled() bool {
	return t == CheckInMorning || t == CheckInEvening
}

// MoodBucket is the display bucket derived from a rating.
type MoodBucket string

const (
	BucketNone MoodBucket = "none"
	BucketLow  MoodBucket = "low"
	BucketMid  MoodBucket = "mid"
	BucketGood MoodBucket = "good"
	BucketHigh MoodBucket = "high"
)

// BucketFor maps a 0-10 rating onto its bucket. Rating 0 means "no rating
// provided" and maps to BucketNone.
func BucketFor(rating int) MoodBucket {
	switch {
	case rating >= 1 && rating <= 3:
		return BucketLow
	case rating >= 4 && rating <= 6:
		return BucketMid
	case rating >= 7 && rating <= 8:
		return BucketGood
	case rating >= 9 && rating <= 10:
		return BucketHigh
	}
	return BucketNone
}

type MoodEntry struct {
	ID            uuid.UUID   `json:"id"`
	UserID        uuid.UUID   `json:"uid"`
	Timestamp     time.Time   `json:"date"`
	Rating        int         `json:"rating"`
	CheckInType   CheckInType `json:"check_in_type"`
	Note          *string     `json:"note,omitempty"`
	Transcription *string     `json:"transcription,omitempty"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (e *MoodEntry) Bucket() MoodBucket {
	return BucketFor(e.Rating)
}

// SameDay reports whether the entry's timestamp falls on the same calendar
// day as t, in t's location.
func (e *MoodEntry) SameDay(t time.Time) bool {
	start := StartOfDay(t)
	ts := e.Timestamp.In(t.Location())
	return !ts.Before(start) && ts.Before(start.Add(24*time.Hour))
}

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

type UserPreferences struct {
	UserID      uuid.UUID `json:"uid"`
	ThemeIndex  int       `json:"theme_index"`
	IsOnboarded bool      `json:"is_onboarded"`
	UpdatedAt   time.Time `json:"updated_at"`
}
