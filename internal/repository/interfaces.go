package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/feelday/moodlog/pkg/entity"
)

type UsersRepositoryI interface {
	// Creates new user in database
	Create(ctx context.Context, user *entity.User) error
	// Looks up user by email. Can be used for login
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	// Looks up user by uid. Can be used for authorization middleware
	FindByID(ctx context.Context, uid uuid.UUID) (*entity.User, error)
	// Deletes user
	Delete(ctx context.Context, uid uuid.UUID) error
}

type EntriesRepositoryI interface {
	// Upserts a single entry into the user's collection, keyed by entry id
	Upsert(ctx context.Context, entry *entity.MoodEntry) error
	// Lists the user's whole collection ordered by date descending
	ListByUser(ctx context.Context, uid uuid.UUID) ([]entity.MoodEntry, error)
	// Upserts a batch of entries in one transaction. All or nothing
	UpsertBatch(ctx context.Context, entries []entity.MoodEntry) error
	// Returns count of entries owned by uid
	CountByUser(ctx context.Context, uid uuid.UUID) (int, error)
}

type PrefsRepositoryI interface {
	// Writes the per-user preferences document, creating it when absent
	Upsert(ctx context.Context, prefs *entity.UserPreferences) error
	// Reads the per-user preferences document
	Get(ctx context.Context, uid uuid.UUID) (*entity.UserPreferences, error)
}

// LocalStoreI is the device-local persisted state: two keyed blobs per user,
// read at startup, written after every mutation.
type LocalStoreI interface {
	SaveEntries(ctx context.Context, uid uuid.UUID, entries []entity.MoodEntry) error
	LoadEntries(ctx context.Context, uid uuid.UUID) ([]entity.MoodEntry, error)
	SavePrefs(ctx context.Context, prefs *entity.UserPreferences) error
	LoadPrefs(ctx context.Context, uid uuid.UUID) (*entity.UserPreferences, error)
}

type DBConfig interface {
	ConnString() string
}

type PgConnection interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGCfg struct {
	Address  string
	Username string
	Password string
	DB       string
}

func (pgcfg *PGCfg) ConnString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s", pgcfg.Username, pgcfg.Password, pgcfg.Address, pgcfg.DB)
}
