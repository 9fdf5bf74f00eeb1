package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/redeclipse/mastersession/internal/core/domain"
	"github.com/redeclipse/mastersession/internal/core/ports"
)

// SessionDeps wires a SessionController to its collaborators. Messages
// defaults to domain.DefaultMessages when left zero.
type SessionDeps struct {
	Client   ports.AuthClient
	Store    ports.TokenStore
	Nav      ports.Navigator
	Display  ports.Display
	Logouts  ports.LogoutQueue
	Messages *domain.Messages
	Log      zerolog.Logger
}

// SessionController owns the client session: the current token, the current
// profile and the active view. Every exported operation blocks until its
// network exchange completes. Concurrent operations are not de-duplicated;
// each response is applied atomically and the last one wins.
type SessionController struct {
	client   ports.AuthClient
	store    ports.TokenStore
	nav      ports.Navigator
	display  ports.Display
	logouts  ports.LogoutQueue
	messages domain.Messages
	validate *validator.Validate
	log      zerolog.Logger

	mu     sync.Mutex
	token  string
	user   *domain.Profile
	view   domain.View
	closed bool
}

// ErrClosed is returned by every operation once Close has been called.
var ErrClosed = errors.New("session controller closed")

type loginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type registerForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
	Email    string `validate:"required"`
}

func NewSessionController(deps SessionDeps) (*SessionController, error) {
	if deps.Client == nil || deps.Store == nil || deps.Nav == nil || deps.Display == nil || deps.Logouts == nil {
		return nil, errors.New("session controller: missing collaborator")
	}
	msgs := domain.DefaultMessages()
	if deps.Messages != nil {
		msgs = *deps.Messages
	}
	return &SessionController{
		client:   deps.Client,
		store:    deps.Store,
		nav:      deps.Nav,
		display:  deps.Display,
		logouts:  deps.Logouts,
		messages: msgs,
		validate: validator.New(),
		log:      deps.Log,
	}, nil
}

// Restore revalidates a stored token. Without one it lands on the login view
// and performs no network call.
func (c *SessionController) Restore(ctx context.Context) error {
	if c.isClosed() {
		return ErrClosed
	}
	token, ok, err := c.store.Get(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("token store read failed, starting logged out")
		ok = false
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !ok || token == "" {
		c.transition(domain.ViewLogin)
		c.mu.Unlock()
		return nil
	}
	c.token = token
	c.display.ShowLoading(c.messages.LoadingSession)
	c.mu.Unlock()

	resp, err := c.client.Session(ctx, token)
	if err != nil {
		return c.transportFailure(domain.PanelLogin, domain.ViewLogin, fmt.Errorf("restore: %w", err))
	}
	return c.handleAuthResponse(ctx, resp)
}

// Login validates the form, then authenticates against the master server.
func (c *SessionController) Login(ctx context.Context, username, password string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.display.ClearErrors(domain.PanelLogin)
	if verr := c.validateForm(loginForm{Username: username, Password: password}); verr != nil {
		c.display.AppendError(domain.PanelLogin, verr.Message)
		c.mu.Unlock()
		return verr
	}
	c.display.ShowLoading(c.messages.LoadingLogin)
	c.mu.Unlock()

	resp, err := c.client.Login(ctx, username, password)
	if err != nil {
		return c.transportFailure(domain.PanelLogin, domain.ViewLogin, fmt.Errorf("login: %w", err))
	}
	return c.handleAuthResponse(ctx, resp)
}

// Logout hands the token to the revocation queue and returns to the login view
// without waiting for the server. The in-memory session and the stored token
// are cleared.
func (c *SessionController) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	if c.token != "" {
		c.logouts.Enqueue(c.token)
	} else {
		c.log.Debug().Msg("logout without a token, skipping revocation")
	}

	c.token = ""
	c.user = nil
	c.display.ReplaceErrors(domain.PanelLogin, c.messages.LoggedOut)
	c.transition(domain.ViewLogin)

	if err := c.store.Clear(ctx); err != nil {
		c.log.Error().Err(err).Msg("failed to clear stored token")
		return fmt.Errorf("logout: clear token: %w", err)
	}
	return nil
}

// Register validates the form in field order, then creates the account.
func (c *SessionController) Register(ctx context.Context, username, password, email string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.display.ClearErrors(domain.PanelRegister)
	if verr := c.validateForm(registerForm{Username: username, Password: password, Email: email}); verr != nil {
		c.display.AppendError(domain.PanelRegister, verr.Message)
		c.mu.Unlock()
		return verr
	}
	c.display.ShowLoading(c.messages.LoadingRegister)
	c.mu.Unlock()

	resp, err := c.client.Register(ctx, username, password, email)
	if err != nil {
		return c.transportFailure(domain.PanelRegister, domain.ViewNone, fmt.Errorf("register: %w", err))
	}
	return c.handleRegisterResponse(resp)
}

// handleAuthResponse applies a lookup or login reply. The token, user and
// error checks are independent of each other. Replies that arrive after
// Close are dropped.
func (c *SessionController) handleAuthResponse(ctx context.Context, resp *domain.AuthResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.display.HideLoading()
	c.display.ClearErrors(domain.PanelLogin)

	if resp.HasToken() {
		c.token = resp.Token
		if err := c.store.Set(ctx, resp.Token); err != nil {
			c.log.Error().Err(err).Msg("failed to persist token")
		}
	}

	if resp.HasUser() {
		c.user = resp.User
		c.display.RenderProfile(resp.User.Username, resp.User.Level.String())
		c.transition(domain.ViewMain)
	}

	if resp.HasError() {
		if resp.Error == domain.KindLoginIncorrect {
			c.display.AppendError(domain.PanelLogin, c.messages.IncorrectCredentials)
		} else {
			c.log.Warn().Str("kind", resp.Error).Msg("unrecognised auth error")
			c.display.AppendError(domain.PanelLogin, c.messages.UnknownLoginError)
		}
		if !resp.HasUser() {
			c.user = nil
		}
		if !resp.HasToken() && (resp.Error == domain.KindTokenInvalid || resp.Error == domain.KindTokenExpired) {
			c.token = ""
			if err := c.store.Clear(ctx); err != nil {
				c.log.Error().Err(err).Msg("failed to clear rejected token")
			}
		}
		c.transition(domain.ViewLogin)
		return &domain.RemoteError{Kind: resp.Error}
	}
	return nil
}

func (c *SessionController) handleRegisterResponse(resp *domain.RegisterResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.display.HideLoading()
	c.display.ClearErrors(domain.PanelRegister)

	if resp.Success {
		c.transition(domain.ViewRegisterComplete)
		return nil
	}
	if resp.HasError() {
		c.log.Info().Str("kind", resp.Error).Msg("registration rejected")
		c.display.AppendError(domain.PanelRegister, c.messages.RegisterFailed)
		return &domain.RemoteError{Kind: resp.Error}
	}
	return nil
}

// transportFailure clears the loading indicator left by a failed exchange.
// next may be ViewNone to stay on the current screen.
func (c *SessionController) transportFailure(panel domain.Panel, next domain.View, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.log.Error().Err(err).Msg("auth exchange failed")
	c.display.HideLoading()
	c.display.ClearErrors(panel)
	c.display.AppendError(panel, c.messages.Unreachable)
	if next != domain.ViewNone {
		c.transition(next)
	}
	return err
}

// validateForm returns the first empty field in declaration order.
func (c *SessionController) validateForm(form any) *domain.ValidationError {
	err := c.validate.Struct(form)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return &domain.ValidationError{Field: "form", Message: err.Error()}
	}
	field := ve[0].Field()
	return &domain.ValidationError{Field: field, Message: c.requiredMessage(field)}
}

func (c *SessionController) requiredMessage(field string) string {
	switch field {
	case "Username":
		return c.messages.UsernameRequired
	case "Password":
		return c.messages.PasswordRequired
	case "Email":
		return c.messages.EmailRequired
	default:
		return field + " is required"
	}
}

// transition must be called with mu held.
func (c *SessionController) transition(view domain.View) {
	c.view = view
	c.nav.TransitionTo(view)
}

// Token returns the token currently held in memory.
func (c *SessionController) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// User returns the profile currently held in memory, or nil.
func (c *SessionController) User() *domain.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// View returns the active screen.
func (c *SessionController) View() domain.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *SessionController) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close releases the controller. The in-memory session is dropped and later
// operations fail with ErrClosed. The stored token is left in place for the
// next Restore.
func (c *SessionController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.token = ""
	c.user = nil
}
