package repository

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	errorvalues "github.com/feelday/moodlog/internal/error_values"
	"github.com/feelday/moodlog/pkg/cleanup"
	"github.com/feelday/moodlog/pkg/entity"
)

const upsertEntrySQL = `INSERT INTO mood_entries (id, user_id, entry_date, rating, check_in_type, note, transcription, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET rating = EXCLUDED.rating, note = EXCLUDED.note, transcription = EXCLUDED.transcription, updated_at = EXCLUDED.updated_at;`

type EntriesRepository struct {
	conn PgConnection
}

func NewEntriesRepo(cfg DBConfig) *EntriesRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for entriesRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for entriesRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &EntriesRepository{
		conn: pool,
	}
}

func NewEntriesRepoWithConn(conn PgConnection) *EntriesRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for entriesRepo: " + err.Error())
	}
	return &EntriesRepository{
		conn: conn,
	}
}

func (er *EntriesRepository) Upsert(ctx context.Context, entry *entity.MoodEntry) error {
	if entry == nil {
		return errors.New("entry is nil")
	}
	_, err := er.conn.Exec(ctx, upsertEntrySQL,
		entry.ID,
		entry.UserID,
		entry.Timestamp,
		entry.Rating,
		entry.CheckInType,
		entry.Note,
		entry.Transcription,
		entry.UpdatedAt,
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
		return errors.New("upserting entry error: " + err.Error())
	}
	return nil
}

func (er *EntriesRepository) ListByUser(ctx context.Context, uid uuid.UUID) ([]entity.MoodEntry, error) {
	rows, err := er.conn.Query(ctx,
		`SELECT id, user_id, entry_date, rating, check_in_type, note, transcription, updated_at
FROM mood_entries WHERE user_id = $1 ORDER BY entry_date DESC;`, uid)
	if err != nil {
		return nil, errors.New("listing entries error: " + err.Error())
	}
	defer rows.Close()
	var entries []entity.MoodEntry
	for rows.Next() {
		var e entity.MoodEntry
		err = rows.Scan(&e.ID, &e.UserID, &e.Timestamp, &e.Rating, &e.CheckInType, &e.Note, &e.Transcription, &e.UpdatedAt)
		if err != nil {
			return nil, errors.New("scanning entry error: " + err.Error())
		}
		entries = append(entries, e)
	}
	if rows.Err() != nil {
		return nil, errors.New("reading entries error: " + rows.Err().Error())
	}
	return entries, nil
}

func (er *EntriesRepository) UpsertBatch(ctx context.Context, entries []entity.MoodEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := er.conn.Begin(ctx)
	if err != nil {
		return errors.New("starting batch upsert error: " + err.Error())
	}
	defer tx.Rollback(ctx)
	for i := range entries {
		e := &entries[i]
		_, err = tx.Exec(ctx, upsertEntrySQL,
			e.ID,
			e.UserID,
			e.Timestamp,
			e.Rating,
			e.CheckInType,
			e.Note,
			e.Transcription,
			e.UpdatedAt,
		)
		if err != nil {
			return errors.New("batch upsert error: " + err.Error())
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return errors.New("committing batch upsert error: " + err.Error())
	}
	return nil
}

func (er *EntriesRepository) CountByUser(ctx context.Context, uid uuid.UUID) (int, error) {
	var count int
	row := er.conn.QueryRow(ctx, `SELECT COUNT(*) FROM mood_entries WHERE user_id = $1;`, uid)
	if err := row.Scan(&count); err != nil {
		return 0, errors.New("counting entries error: " + err.Error())
	}
	return count, nil
}
