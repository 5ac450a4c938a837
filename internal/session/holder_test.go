package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errorvalues "github.com/feelday/moodlog/internal/error_values"
	"github.com/feelday/moodlog/internal/service"
	"github.com/feelday/moodlog/internal/session"
	"github.com/feelday/moodlog/pkg/entity"
)

type fakeUserService struct {
	user    *entity.User
	failing bool
}

func (f *fakeUserService) Register(ctx context.Context, req *service.RegisterRequest) (*entity.User, error) {
	if f.failing {
		return nil, errors.New("mocked error")
	}
	return f.user, nil
}

func (f *fakeUserService) Login(ctx context.Context, email, password string) (*entity.User, error) {
	if f.failing {
		return nil, errorvalues.ErrWrongCredentials
	}
	return f.user, nil
}

func (f *fakeUserService) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if f.failing {
		return nil, errorvalues.ErrUserNotFound
	}
	return f.user, nil
}

func (f *fakeUserService) DeleteAccount(ctx context.Context, id uuid.UUID, password string) error {
	return nil
}

type fakeTokenIssuer struct{}

func (fakeTokenIssuer) GenerateToken(user *entity.User) (string, error) {
	return "token-" + user.Email, nil
}

func newTestHolder(failing bool) (*session.Holder, *entity.User) {
	user := &entity.User{
		ID:    uuid.New(),
		Email: "test@example.com",
	}
	holder := session.NewHolder(&fakeUserService{user: user, failing: failing}, fakeTokenIssuer{})
	return holder, user
}

func TestSignInNotifiesOnce(t *testing.T) {
	ctx := context.Background()
	holder, user := newTestHolder(false)
	var notifications []*session.Identity
	holder.OnChange(func(ctx context.Context, identity *session.Identity) {
		notifications = append(notifications, identity)
	})

	identity, err := holder.SignIn(ctx, user.Email, "test_password")
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UID)
	assert.Equal(t, "token-"+user.Email, identity.Token)
	assert.True(t, holder.Authenticated())
	assert.Empty(t, holder.Err())

	require.Len(t, notifications, 1)
	assert.Equal(t, user.ID, notifications[0].UID)
}

func TestSignOutNotifiesOnceAndOnlyWhenSignedIn(t *testing.T) {
	ctx := context.Background()
	holder, user := newTestHolder(false)
	count := 0
	holder.OnChange(func(ctx context.Context, identity *session.Identity) {
		count++
		if count == 2 {
			assert.Nil(t, identity)
		}
	})

	holder.SignOut(ctx)
	assert.Zero(t, count, "signing out while signed out is silent")

	_, err := holder.SignIn(ctx, user.Email, "test_password")
	require.NoError(t, err)
	holder.SignOut(ctx)
	assert.False(t, holder.Authenticated())
	assert.Nil(t, holder.Current())
	assert.Equal(t, 2, count)
}

func TestSignInFailureSetsErrorState(t *testing.T) {
	ctx := context.Background()
	holder, user := newTestHolder(true)
	notified := false
	holder.OnChange(func(ctx context.Context, identity *session.Identity) { notified = true })

	_, err := holder.SignIn(ctx, user.Email, "wrong")
	assert.ErrorIs(t, err, errorvalues.ErrWrongCredentials)
	assert.False(t, holder.Authenticated())
	assert.NotEmpty(t, holder.Err())
	assert.False(t, notified, "failed sign-in is not a state transition")
}

func TestEmptyCredentialsRejectedBeforeAnyCall(t *testing.T) {
	ctx := context.Background()
	holder, _ := newTestHolder(false)

	_, err := holder.SignIn(ctx, "", "")
	assert.ErrorIs(t, err, errorvalues.ErrEmptyFields)
	_, err = holder.SignUp(ctx, "test@example.com", "")
	assert.ErrorIs(t, err, errorvalues.ErrEmptyFields)
	assert.NotEmpty(t, holder.Err())
}

func TestSignUpSignsIn(t *testing.T) {
	ctx := context.Background()
	holder, user := newTestHolder(false)

	identity, err := holder.SignUp(ctx, user.Email, "test_password")
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UID)
	assert.True(t, holder.Authenticated())
}
