package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/bytedance/sonic"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	errorvalues "github.com/feelday/moodlog/internal/error_values"
	"github.com/feelday/moodlog/pkg/cleanup"
	"github.com/feelday/moodlog/pkg/entity"
)

// LocalStore keeps the device-local persisted state as two keyed blobs per
// user: the serialized entry collection and the serialized preferences.
// Blobs that fail to decode are treated as "no saved state".
type LocalStore struct {
	c *redis.Client
}

type RedisCfg struct {
	Address  string
	Password string
	DB       int
}

func NewLocalStore(cfg *RedisCfg) *LocalStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatal("error while pinging redis for local store: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing redis client",
		F:    client.Close,
	})
	return &LocalStore{
		c: client,
	}
}

func NewLocalStoreWithClient(client *redis.Client) *LocalStore {
	return &LocalStore{
		c: client,
	}
}

func entriesKey(uid uuid.UUID) string {
	return fmt.Sprintf("moodlog:%s:entries", uid)
}

func prefsKey(uid uuid.UUID) string {
	return fmt.Sprintf("moodlog:%s:prefs", uid)
}

func (ls *LocalStore) SaveEntries(ctx context.Context, uid uuid.UUID, entries []entity.MoodEntry) error {
	blob, err := sonic.Marshal(entries)
	if err != nil {
		return errors.New("encoding entries blob error: " + err.Error())
	}
	if err = ls.c.Set(ctx, entriesKey(uid), blob, 0).Err(); err != nil {
		return errors.New("writing entries blob error: " + err.Error())
	}
	return nil
}

func (ls *LocalStore) LoadEntries(ctx context.Context, uid uuid.UUID) ([]entity.MoodEntry, error) {
	blob, err := ls.c.Get(ctx, entriesKey(uid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errorvalues.ErrNoLocalState
		}
		return nil, errors.New("reading entries blob error: " + err.Error())
	}
	var entries []entity.MoodEntry
	if err = sonic.Unmarshal(blob, &entries); err != nil {
		return nil, errorvalues.ErrNoLocalState
	}
	return entries, nil
}

func (ls *LocalStore) SavePrefs(ctx context.Context, prefs *entity.UserPreferences) error {
	if prefs == nil {
		return errors.New("prefs is nil")
	}
	blob, err := sonic.Marshal(prefs)
	if err != nil {
		return errors.New("encoding prefs blob error: " + err.Error())
	}
	if err = ls.c.Set(ctx, prefsKey(prefs.UserID), blob, 0).Err(); err != nil {
		return errors.New("writing prefs blob error: " + err.Error())
	}
	return nil
}

func (ls *LocalStore) LoadPrefs(ctx context.Context, uid uuid.UUID) (*entity.UserPreferences, error) {
	blob, err := ls.c.Get(ctx, prefsKey(uid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errorvalues.ErrNoLocalState
		}
		return nil, errors.New("reading prefs blob error: " + err.Error())
	}
	var prefs entity.UserPreferences
	if err = sonic.Unmarshal(blob, &prefs); err != nil {
		return nil, errorvalues.ErrNoLocalState
	}
	return &prefs, nil
}
