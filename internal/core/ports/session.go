package ports

import (
	"context"

	"github.com/redeclipse/mastersession/internal/core/domain"
)

// AuthClient is the client's view of the master server. Error kinds reported
// by the server come back inside the response; a non-nil error means the
// exchange itself failed (transport or malformed body).
type AuthClient interface {
	Session(ctx context.Context, token string) (*domain.AuthResponse, error)
	Login(ctx context.Context, username, password string) (*domain.AuthResponse, error)
	Logout(ctx context.Context, token string) error
	Register(ctx context.Context, username, password, email string) (*domain.RegisterResponse, error)
}

// TokenStore is the durable key-value store holding the session token across
// restarts. Get reports ok=false when no token is stored.
type TokenStore interface {
	Get(ctx context.Context) (token string, ok bool, err error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Navigator switches the active screen.
type Navigator interface {
	TransitionTo(view domain.View)
}

// Display is the rendering surface the session controller drives.
type Display interface {
	ShowLoading(text string)
	HideLoading()
	ClearErrors(panel domain.Panel)
	AppendError(panel domain.Panel, msg string)
	ReplaceErrors(panel domain.Panel, msg string)
	RenderProfile(username, tier string)
}

// LogoutQueue accepts server-side token revocations without waiting for them.
type LogoutQueue interface {
	Enqueue(token string)
}
