package api

import (
	"context"

	"github.com/golang-jwt/jwt/v5"

	"github.com/feelday/moodlog/internal/session"
	"github.com/feelday/moodlog/internal/voice"
	"github.com/feelday/moodlog/pkg/entity"
)

type JWTServiceI interface {
	GenerateToken(user *entity.User) (string, error)
	ParseToken(tokenString string) (*JWTClaims, error)
}

type JWTClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type SessionHolderI interface {
	SignIn(ctx context.Context, email, password string) (*session.Identity, error)
	SignUp(ctx context.Context, email, password string) (*session.Identity, error)
	SignOut(ctx context.Context)
	Authenticated() bool
	Err() string
}

type TranscriberI interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type VoiceClientI interface {
	ToggleCall(ctx context.Context) error
	Active() bool
	Loading() bool
	Transcript() []voice.Fragment
	Err() string
}
