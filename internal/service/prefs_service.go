package service

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"time"

	"github.com/google/uuid"

	errorvalues "github.com/feelday/moodlog/internal/error_values"
	"github.com/feelday/moodlog/internal/repository"
	"github.com/feelday/moodlog/pkg/entity"
)

// PrefsService keeps user preferences in local storage and mirrors them to
// the remote document on every change. Missing state anywhere means first
// launch, which yields defaults.
type PrefsService struct {
	local  repository.LocalStoreI
	remote repository.PrefsRepositoryI
	now    func() time.Time
}

func NewPrefsService(local repository.LocalStoreI, remote repository.PrefsRepositoryI) *PrefsService {
	if local == nil || remote == nil {
		log.Fatal("on prefs service provided nil storages")
	}
	return &PrefsService{
		local:  local,
		remote: remote,
		now:    time.Now,
	}
}

func (ps *PrefsService) Get(ctx context.Context, uid uuid.UUID) (*entity.UserPreferences, error) {
	prefs, err := ps.local.LoadPrefs(ctx, uid)
	if err == nil {
		return prefs, nil
	}
	if !errors.Is(err, errorvalues.ErrNoLocalState) {
		return nil, errors.New("reading local prefs error: " + err.Error())
	}
	prefs, err = ps.remote.Get(ctx, uid)
	if err == nil {
		if saveErr := ps.local.SavePrefs(ctx, prefs); saveErr != nil {
			slog.Warn("caching prefs locally failed", slog.String("error", saveErr.Error()))
		}
		return prefs, nil
	}
	if !errors.Is(err, errorvalues.ErrPrefsNotFound) {
		return nil, errors.New("reading remote prefs error: " + err.Error())
	}
	// First launch defaults.
	return &entity.UserPreferences{
		UserID:      uid,
		ThemeIndex:  0,
		IsOnboarded: false,
	}, nil
}

func (ps *PrefsService) Update(ctx context.Context, uid uuid.UUID, themeIndex int, isOnboarded bool) (*entity.UserPreferences, error) {
	prefs := &entity.UserPreferences{
		UserID:      uid,
		ThemeIndex:  themeIndex,
		IsOnboarded: isOnboarded,
		UpdatedAt:   ps.now(),
	}
	if err := ps.local.SavePrefs(ctx, prefs); err != nil {
		return nil, errors.New("saving prefs locally error: " + err.Error())
	}
	if err := ps.remote.Upsert(ctx, prefs); err != nil {
		// Local save already happened; the mirror failure is display-only.
		slog.Error("mirroring prefs remotely failed", slog.String("uid", uid.String()), slog.String("error", err.Error()))
	}
	return prefs, nil
}
