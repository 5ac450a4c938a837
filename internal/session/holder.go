// Package session tracks whether a user identity is present and fans out
// identity-change notifications, one per state transition.
package session

import (
	"context"
	"log"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	errorvalues "github.com/feelday/moodlog/internal/error_values"
	"github.com/feelday/moodlog/internal/service"
	"github.com/feelday/moodlog/pkg/entity"
)

// Identity is the authenticated user reference used to key remote storage.
type Identity struct {
	UID   uuid.UUID
	Email string
	Token string
}

// Listener receives the new identity on sign-in and nil on sign-out.
type Listener func(ctx context.Context, identity *Identity)

type TokenIssuer interface {
	GenerateToken(user *entity.User) (string, error)
}

type Holder struct {
	mu        sync.Mutex
	users     service.UserServiceI
	tokens    TokenIssuer
	current   *Identity
	errMsg    string
	listeners []Listener
}

func NewHolder(users service.UserServiceI, tokens TokenIssuer) *Holder {
	if users == nil || tokens == nil {
		log.Fatal("on session holder provided nil dependencies")
	}
	return &Holder{
		users:  users,
		tokens: tokens,
	}
}

// OnChange registers a listener for identity transitions. Registration order
// is notification order.
func (h *Holder) OnChange(listener Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, listener)
}

func (h *Holder) Authenticated() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current != nil
}

// Current returns the present identity, nil when signed out.
func (h *Holder) Current() *Identity {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == nil {
		return nil
	}
	identity := *h.current
	return &identity
}

// Err returns the display message of the last failed identity operation.
func (h *Holder) Err() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.errMsg
}

func (h *Holder) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	if email == "" || password == "" {
		h.setErr("email and password must not be empty")
		return nil, errorvalues.ErrEmptyFields
	}
	user, err := h.users.Login(ctx, email, password)
	if err != nil {
		h.setErr("sign-in failed: " + err.Error())
		return nil, err
	}
	return h.adopt(ctx, user)
}

func (h *Holder) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	if email == "" || password == "" {
		h.setErr("email and password must not be empty")
		return nil, errorvalues.ErrEmptyFields
	}
	user, err := h.users.Register(ctx, &service.RegisterRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		h.setErr("sign-up failed: " + err.Error())
		return nil, err
	}
	return h.adopt(ctx, user)
}

// SignOut clears the identity. Signing out while signed out is a no-op and
// produces no notification.
func (h *Holder) SignOut(ctx context.Context) {
	h.mu.Lock()
	if h.current == nil {
		h.mu.Unlock()
		return
	}
	h.current = nil
	h.errMsg = ""
	listeners := make([]Listener, len(h.listeners))
	copy(listeners, h.listeners)
	h.mu.Unlock()
	h.notify(ctx, listeners, nil)
}

// adopt installs the signed-in user and fires exactly one notification for
// the transition.
func (h *Holder) adopt(ctx context.Context, user *entity.User) (*Identity, error) {
	token, err := h.tokens.GenerateToken(user)
	if err != nil {
		h.setErr("issuing token failed: " + err.Error())
		return nil, err
	}
	identity := &Identity{
		UID:   user.ID,
		Email: user.Email,
		Token: token,
	}
	h.mu.Lock()
	h.current = identity
	h.errMsg = ""
	listeners := make([]Listener, len(h.listeners))
	copy(listeners, h.listeners)
	h.mu.Unlock()
	h.notify(ctx, listeners, identity)
	result := *identity
	return &result, nil
}

func (h *Holder) notify(ctx context.Context, listeners []Listener, identity *Identity) {
	for _, listener := range listeners {
		listener(ctx, identity)
	}
	if identity != nil {
		slog.Info("identity changed", slog.String("uid", identity.UID.String()))
	} else {
		slog.Info("identity cleared")
	}
}

func (h *Holder) setErr(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errMsg = msg
}
