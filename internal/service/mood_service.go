package service

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	errorvalues "github.com/feelday/moodlog/internal/error_values"
	"github.com/feelday/moodlog/internal/repository"
	"github.com/feelday/moodlog/pkg/entity"
)

// MoodStore owns the authoritative in-memory entry collection for one user
// and keeps the local and remote mirrors consistent. All writes originate
// here and are pushed outward; the remote store is only read once, at
// first sync. Remote failures never propagate as errors: they are recorded
// as a human-readable message readable through LastError.
type MoodStore struct {
	mu      sync.Mutex
	uid     uuid.UUID
	entries []entity.MoodEntry
	lastErr string
	local   repository.LocalStoreI
	remote  repository.EntriesRepositoryI
	now     func() time.Time
}

// NewMoodStore builds a store for one user. A nil remote keeps the store
// local-only, the state of a session without an identity.
func NewMoodStore(uid uuid.UUID, local repository.LocalStoreI, remote repository.EntriesRepositoryI) *MoodStore {
	return &MoodStore{
		uid:    uid,
		local:  local,
		remote: remote,
		now:    time.Now,
	}
}

func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	if validationError, ok := err.(validator.ValidationErrors); ok {
		err = errors.New("validation error: ")
		for _, fieldErr := range validationError {
			err = errors.Join(err, fieldErr)
		}
		return err
	}
	return errors.New("validation unexpected error: " + err.Error())
}

// RecordCheckIn saves a morning/evening check-in or appends a quick update.
// A scheduled check-in of a type already present for the current calendar
// day overwrites that entry's rating, note and transcription in place.
func (st *MoodStore) RecordCheckIn(ctx context.Context, req *CheckInRequest) (*entity.MoodEntry, error) {
	if err := validateRequest(*req); err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now()
	if req.CheckInType.Scheduled() {
		for i := range st.entries {
			e := &st.entries[i]
			if e.CheckInType == req.CheckInType && e.SameDay(now) {
				e.Rating = req.Rating
				e.Note = req.Note
				e.Transcription = req.Transcription
				e.UpdatedAt = now
				st.persistLocked(ctx, e)
				result := *e
				return &result, nil
			}
		}
	}
	entry := entity.MoodEntry{
		ID:            uuid.New(),
		UserID:        st.uid,
		Timestamp:     now,
		Rating:        req.Rating,
		CheckInType:   req.CheckInType,
		Note:          req.Note,
		Transcription: req.Transcription,
		UpdatedAt:     now,
	}
	st.entries = append(st.entries, entry)
	st.persistLocked(ctx, &entry)
	return &entry, nil
}

// RecordQuickUpdate always appends a new entry. An absent rating is stored
// as 0, the "no rating provided" value.
func (st *MoodStore) RecordQuickUpdate(ctx context.Context, req *QuickUpdateRequest) (*entity.MoodEntry, error) {
	if err := validateRequest(*req); err != nil {
		return nil, err
	}
	rating := 0
	if req.Rating != nil {
		rating = *req.Rating
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now()
	entry := entity.MoodEntry{
		ID:          uuid.New(),
		UserID:      st.uid,
		Timestamp:   now,
		Rating:      rating,
		CheckInType: entity.CheckInQuickUpdate,
		Note:        req.Note,
		UpdatedAt:   now,
	}
	st.entries = append(st.entries, entry)
	st.persistLocked(ctx, &entry)
	return &entry, nil
}

// persistLocked mirrors one mutation outward: local save is best-effort,
// the remote upsert records a display message on failure. A nil remote means
// no identity is present and the entry stays local.
func (st *MoodStore) persistLocked(ctx context.Context, entry *entity.MoodEntry) {
	if err := st.local.SaveEntries(ctx, st.uid, st.entries); err != nil {
		slog.Warn("saving entries to local storage failed", slog.String("error", err.Error()))
	}
	if st.remote == nil {
		return
	}
	if err := st.remote.Upsert(ctx, entry); err != nil {
		st.lastErr = "couldn't sync entry to the cloud: " + err.Error()
		slog.Error("remote upsert failed", slog.String("uid", st.uid.String()), slog.String("error", err.Error()))
		return
	}
	st.lastErr = ""
}

// QueryByDay returns entries whose timestamp falls on the same calendar day
// as day, newest first. Pure, no side effects.
func (st *MoodStore) QueryByDay(day time.Time) []entity.MoodEntry {
	return st.QueryByDayAndType(day, nil)
}

// QueryByDayAndType is QueryByDay additionally filtered by check-in type
// when one is provided.
func (st *MoodStore) QueryByDayAndType(day time.Time, checkInType *entity.CheckInType) []entity.MoodEntry {
	st.mu.Lock()
	defer st.mu.Unlock()
	var result []entity.MoodEntry
	for i := range st.entries {
		e := &st.entries[i]
		if !e.SameDay(day) {
			continue
		}
		if checkInType != nil && e.CheckInType != *checkInType {
			continue
		}
		result = append(result, *e)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result
}

// AverageForDay returns the mean rating across the day's entries. The second
// value is false when the day has no entries.
func (st *MoodStore) AverageForDay(day time.Time) (float64, bool) {
	return mean(st.QueryByDay(day))
}

// AverageInWindow returns the mean rating across entries within the trailing
// window of days. The second value is false when the window holds no entries.
func (st *MoodStore) AverageInWindow(days int) (float64, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	cutoff := st.now().Add(-time.Duration(days) * 24 * time.Hour)
	var windowed []entity.MoodEntry
	for i := range st.entries {
		if !st.entries[i].Timestamp.Before(cutoff) {
			windowed = append(windowed, st.entries[i])
		}
	}
	return mean(windowed)
}

func mean(entries []entity.MoodEntry) (float64, bool) {
	if len(entries) == 0 {
		return 0, false
	}
	sum := 0
	for i := range entries {
		sum += entries[i].Rating
	}
	return float64(sum) / float64(len(entries)), true
}

// Entries returns a snapshot of the whole collection.
func (st *MoodStore) Entries() []entity.MoodEntry {
	st.mu.Lock()
	defer st.mu.Unlock()
	snapshot := make([]entity.MoodEntry, len(st.entries))
	copy(snapshot, st.entries)
	return snapshot
}

// LastError returns the display message of the most recent remote failure,
// empty when the last remote operation succeeded.
func (st *MoodStore) LastError() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lastErr
}

// LoadFromLocal replaces the in-memory collection with the locally persisted
// one. A missing or undecodable blob means an empty collection, not an error.
func (st *MoodStore) LoadFromLocal(ctx context.Context) error {
	entries, err := st.local.LoadEntries(ctx, st.uid)
	if err != nil {
		if errors.Is(err, errorvalues.ErrNoLocalState) {
			return nil
		}
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.entries = entries
	return nil
}

func (st *MoodStore) SaveToLocal(ctx context.Context) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.local.SaveEntries(ctx, st.uid, st.entries)
}

// SyncOnIdentity runs the first-sync rule, once per identity-change event:
// a non-empty local collection wins outright, and a non-empty remote
// collection seeds an empty local one. Local stays the authority afterwards;
// every later mutation is pushed outward individually.
func (st *MoodStore) SyncOnIdentity(ctx context.Context) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.remote == nil || len(st.entries) > 0 {
		return
	}
	remote, err := st.remote.ListByUser(ctx, st.uid)
	if err != nil {
		st.lastErr = "couldn't read the cloud collection: " + err.Error()
		slog.Error("remote list failed", slog.String("uid", st.uid.String()), slog.String("error", err.Error()))
		return
	}
	if len(remote) > 0 {
		st.entries = remote
		if err = st.local.SaveEntries(ctx, st.uid, st.entries); err != nil {
			slog.Warn("saving pulled entries to local storage failed", slog.String("error", err.Error()))
		}
	}
}

// PushEntry upserts a single entry into the remote collection.
func (st *MoodStore) PushEntry(ctx context.Context, entry *entity.MoodEntry) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.remote == nil {
		return
	}
	if err := st.remote.Upsert(ctx, entry); err != nil {
		st.lastErr = "couldn't sync entry to the cloud: " + err.Error()
		return
	}
	st.lastErr = ""
}

// seedMock fills the trailing days with generated morning and evening
// check-ins and writes the batch remotely. Days that already hold a check-in
// of the scheduled type are left alone, so reseeding cannot produce a second
// morning or evening entry for the same day. Fire-and-forget: the whole
// batch either succeeds or reports a single error.
func (st *MoodStore) seedMock(ctx context.Context, days int) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	notes := []string{"slept well", "busy day", "went for a walk", "tired but fine"}
	var generated []entity.MoodEntry
	for d := 1; d <= days; d++ {
		day := entity.StartOfDay(st.now().AddDate(0, 0, -d))
		for _, spec := range []struct {
			hour int
			typ  entity.CheckInType
		}{{8, entity.CheckInMorning}, {21, entity.CheckInEvening}} {
			if st.hasCheckInLocked(day, spec.typ) {
				continue
			}
			ts := day.Add(time.Duration(spec.hour) * time.Hour)
			entry := entity.MoodEntry{
				ID:          uuid.New(),
				UserID:      st.uid,
				Timestamp:   ts,
				Rating:      rand.Intn(10) + 1,
				CheckInType: spec.typ,
				UpdatedAt:   ts,
			}
			if rand.Intn(3) == 0 {
				note := notes[rand.Intn(len(notes))]
				entry.Note = &note
			}
			generated = append(generated, entry)
		}
	}
	st.entries = append(st.entries, generated...)
	if err := st.local.SaveEntries(ctx, st.uid, st.entries); err != nil {
		slog.Warn("saving seeded entries to local storage failed", slog.String("error", err.Error()))
	}
	if st.remote == nil {
		return nil
	}
	if err := st.remote.UpsertBatch(ctx, generated); err != nil {
		st.lastErr = "couldn't write mock entries to the cloud: " + err.Error()
		return errors.New("seeding mock entries error: " + err.Error())
	}
	return nil
}

func (st *MoodStore) hasCheckInLocked(day time.Time, checkInType entity.CheckInType) bool {
	for i := range st.entries {
		if st.entries[i].CheckInType == checkInType && st.entries[i].SameDay(day) {
			return true
		}
	}
	return false
}

// MoodService hands out per-user stores, loading each from local storage on
// first access.
type MoodService struct {
	mu     sync.Mutex
	stores map[uuid.UUID]*MoodStore
	local  repository.LocalStoreI
	remote repository.EntriesRepositoryI
}

func NewMoodService(local repository.LocalStoreI, remote repository.EntriesRepositoryI) *MoodService {
	if local == nil || remote == nil {
		log.Fatal("on mood service provided nil storages")
	}
	return &MoodService{
		stores: make(map[uuid.UUID]*MoodStore),
		local:  local,
		remote: remote,
	}
}

func (ms *MoodService) Store(ctx context.Context, uid uuid.UUID) *MoodStore {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	store, ok := ms.stores[uid]
	if !ok {
		store = NewMoodStore(uid, ms.local, ms.remote)
		// The load must finish before the store is shared, or a concurrent
		// first mutation would be discarded by the wholesale replace.
		if err := store.LoadFromLocal(ctx); err != nil {
			slog.Warn("loading entries from local storage failed", slog.String("error", err.Error()))
		}
		ms.stores[uid] = store
	}
	return store
}

func (ms *MoodService) SyncOnIdentity(ctx context.Context, uid uuid.UUID) {
	ms.Store(ctx, uid).SyncOnIdentity(ctx)
}

func (ms *MoodService) SeedMockEntries(ctx context.Context, uid uuid.UUID, days int) error {
	return ms.Store(ctx, uid).seedMock(ctx, days)
}
