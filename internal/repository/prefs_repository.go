package repository

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	errorvalues "github.com/feelday/moodlog/internal/error_values"
	"github.com/feelday/moodlog/pkg/cleanup"
	"github.com/feelday/moodlog/pkg/entity"
)

type PrefsRepository struct {
	conn PgConnection
}

func NewPrefsRepo(cfg DBConfig) *PrefsRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for prefsRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for prefsRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &PrefsRepository{
		conn: pool,
	}
}

func NewPrefsRepoWithConn(conn PgConnection) *PrefsRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for prefsRepo: " + err.Error())
	}
	return &PrefsRepository{
		conn: conn,
	}
}

func (pr *PrefsRepository) Upsert(ctx context.Context, prefs *entity.UserPreferences) error {
	if prefs == nil {
		return errors.New("prefs is nil")
	}
	_, err := pr.conn.Exec(ctx,
		`INSERT INTO user_prefs (user_id, theme_index, is_onboarded, updated_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET theme_index = EXCLUDED.theme_index, is_onboarded = EXCLUDED.is_onboarded, updated_at = EXCLUDED.updated_at;`,
		prefs.UserID,
		prefs.ThemeIndex,
		prefs.IsOnboarded,
		prefs.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// FK violation
			case "23503":
				return errorvalues.ErrUserNotFound
			}
		}
		return errors.New("upserting prefs error: " + err.Error())
	}
	return nil
}

func (pr *PrefsRepository) Get(ctx context.Context, uid uuid.UUID) (*entity.UserPreferences, error) {
	var prefs entity.UserPreferences
	row := pr.conn.QueryRow(ctx,
		`SELECT user_id, theme_index, is_onboarded, updated_at FROM user_prefs WHERE user_id = $1;`, uid)
	if err := row.Scan(&prefs.UserID, &prefs.ThemeIndex, &prefs.IsOnboarded, &prefs.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrPrefsNotFound
		}
		return nil, errors.New("searching prefs error: " + err.Error())
	}
	return &prefs, nil
}
