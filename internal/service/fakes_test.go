package service_test

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	errorvalues "github.com/feelday/moodlog/internal/error_values"
	"github.com/feelday/moodlog/pkg/entity"
)

type fakeLocalStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID][]entity.MoodEntry
	prefs   map[uuid.UUID]entity.UserPreferences
	failing bool
	// When set, the next LoadEntries signals loadEntered and blocks until
	// loadRelease is closed.
	loadEntered chan struct{}
	loadRelease chan struct{}
}

func newFakeLocalStore() *fakeLocalStore {
	return &fakeLocalStore{
		entries: make(map[uuid.UUID][]entity.MoodEntry),
		prefs:   make(map[uuid.UUID]entity.UserPreferences),
	}
}

func (f *fakeLocalStore) SaveEntries(ctx context.Context, uid uuid.UUID, entries []entity.MoodEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("local storage failure")
	}
	saved := make([]entity.MoodEntry, len(entries))
	copy(saved, entries)
	f.entries[uid] = saved
	return nil
}

func (f *fakeLocalStore) LoadEntries(ctx context.Context, uid uuid.UUID) ([]entity.MoodEntry, error) {
	f.mu.Lock()
	if f.loadEntered != nil {
		close(f.loadEntered)
		f.loadEntered = nil
	}
	release := f.loadRelease
	f.loadRelease = nil
	f.mu.Unlock()
	if release != nil {
		<-release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, ok := f.entries[uid]
	if !ok {
		return nil, errorvalues.ErrNoLocalState
	}
	loaded := make([]entity.MoodEntry, len(entries))
	copy(loaded, entries)
	return loaded, nil
}

func (f *fakeLocalStore) SavePrefs(ctx context.Context, prefs *entity.UserPreferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("local storage failure")
	}
	f.prefs[prefs.UserID] = *prefs
	return nil
}

func (f *fakeLocalStore) LoadPrefs(ctx context.Context, uid uuid.UUID) (*entity.UserPreferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefs, ok := f.prefs[uid]
	if !ok {
		return nil, errorvalues.ErrNoLocalState
	}
	return &prefs, nil
}

type fakeEntriesRepo struct {
	mu      sync.Mutex
	docs    map[uuid.UUID]entity.MoodEntry
	failing bool
	upserts int
	lists   int
}

func newFakeEntriesRepo() *fakeEntriesRepo {
	return &fakeEntriesRepo{
		docs: make(map[uuid.UUID]entity.MoodEntry),
	}
}

func (f *fakeEntriesRepo) Upsert(ctx context.Context, entry *entity.MoodEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.failing {
		return errors.New("remote failure")
	}
	f.docs[entry.ID] = *entry
	return nil
}

func (f *fakeEntriesRepo) ListByUser(ctx context.Context, uid uuid.UUID) ([]entity.MoodEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.failing {
		return nil, errors.New("remote failure")
	}
	var entries []entity.MoodEntry
	for _, e := range f.docs {
		if e.UserID == uid {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (f *fakeEntriesRepo) UpsertBatch(ctx context.Context, entries []entity.MoodEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("remote failure")
	}
	for i := range entries {
		f.docs[entries[i].ID] = entries[i]
	}
	return nil
}

func (f *fakeEntriesRepo) CountByUser(ctx context.Context, uid uuid.UUID) (int, error) {
	entries, err := f.ListByUser(ctx, uid)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (f *fakeEntriesRepo) remoteCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts + f.lists
}

type fakeUsersRepo struct {
	mu    sync.Mutex
	users map[string]entity.User
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{
		users: make(map[string]entity.User),
	}
}

func (f *fakeUsersRepo) Create(ctx context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.Email]; ok {
		return errorvalues.ErrUserExists
	}
	created := *user
	created.ID = uuid.New()
	f.users[user.Email] = created
	return nil
}

func (f *fakeUsersRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[email]
	if !ok {
		return nil, errorvalues.ErrUserNotFound
	}
	return &user, nil
}

func (f *fakeUsersRepo) FindByID(ctx context.Context, uid uuid.UUID) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.ID == uid {
			return &user, nil
		}
	}
	return nil, errorvalues.ErrUserNotFound
}

func (f *fakeUsersRepo) Delete(ctx context.Context, uid uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for email, user := range f.users {
		if user.ID == uid {
			delete(f.users, email)
			return nil
		}
	}
	return errorvalues.ErrUserNotFound
}

type fakePrefsRepo struct {
	mu      sync.Mutex
	docs    map[uuid.UUID]entity.UserPreferences
	failing bool
}

func newFakePrefsRepo() *fakePrefsRepo {
	return &fakePrefsRepo{
		docs: make(map[uuid.UUID]entity.UserPreferences),
	}
}

func (f *fakePrefsRepo) Upsert(ctx context.Context, prefs *entity.UserPreferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("remote failure")
	}
	f.docs[prefs.UserID] = *prefs
	return nil
}

func (f *fakePrefsRepo) Get(ctx context.Context, uid uuid.UUID) (*entity.UserPreferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefs, ok := f.docs[uid]
	if !ok {
		return nil, errorvalues.ErrPrefsNotFound
	}
	return &prefs, nil
}
