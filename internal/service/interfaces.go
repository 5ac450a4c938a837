package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/feelday/moodlog/pkg/entity"
)

type RegisterRequest struct {
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=8,max=72"`
}

type CheckInRequest struct {
	Rating        int                `validate:"min=1,max=10"`
	CheckInType   entity.CheckInType `validate:"check_in_type"`
	Note          *string
	Transcription *string
}

type QuickUpdateRequest struct {
	Rating *int `validate:"omitempty,min=0,max=10"`
	Note   *string
}

type UserServiceI interface {
	// Validates user's credentials, creates new row in database. Returns user's data with ID
	Register(ctx context.Context, req *RegisterRequest) (*entity.User, error)
	// Compares given credentials. If ok, give back user's data with ID.
	Login(ctx context.Context, email, password string) (*entity.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	DeleteAccount(ctx context.Context, id uuid.UUID, password string) error
}

type MoodServiceI interface {
	// Returns the user's store, loading it from local storage on first access
	Store(ctx context.Context, uid uuid.UUID) *MoodStore
	// Runs the first-sync rule for uid. Called once per identity-change event
	SyncOnIdentity(ctx context.Context, uid uuid.UUID)
	// Generates mock check-ins for the trailing days and bulk-writes them remotely
	SeedMockEntries(ctx context.Context, uid uuid.UUID, days int) error
}

type PrefsServiceI interface {
	// Reads preferences: local first, then remote, then defaults
	Get(ctx context.Context, uid uuid.UUID) (*entity.UserPreferences, error)
	// Writes preferences locally on every change and mirrors them remotely
	Update(ctx context.Context, uid uuid.UUID, themeIndex int, isOnboarded bool) (*entity.UserPreferences, error)
}

type InsightsServiceI interface {
	Summary(ctx context.Context, uid uuid.UUID) (*InsightsSummary, error)
}
