package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/redeclipse/mastersession/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stub collaborators
// ---------------------------------------------------------------------------

type stubAuthClient struct {
	sessionFn  func(ctx context.Context, token string) (*domain.AuthResponse, error)
	loginFn    func(ctx context.Context, username, password string) (*domain.AuthResponse, error)
	registerFn func(ctx context.Context, username, password, email string) (*domain.RegisterResponse, error)

	mu    sync.Mutex
	calls []string
}

func (s *stubAuthClient) record(call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
}

func (s *stubAuthClient) Session(ctx context.Context, token string) (*domain.AuthResponse, error) {
	s.record("session:"+token)
	return s.sessionFn(ctx, token)
}

func (s *stubAuthClient) Login(ctx context.Context, username, password string) (*domain.AuthResponse, error) {
	s.record("login:"+username)
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthClient) Logout(_ context.Context, token string) error {
	s.record("logout:"+token)
	return nil
}

func (s *stubAuthClient) Register(ctx context.Context, username, password, email string) (*domain.RegisterResponse, error) {
	s.record("register:"+username)
	return s.registerFn(ctx, username, password, email)
}

type stubTokenStore struct {
	token  string
	ok     bool
	getErr error
	sets   int
}

func (s *stubTokenStore) Get(context.Context) (string, bool, error) {
	return s.token, s.ok, s.getErr
}

func (s *stubTokenStore) Set(_ context.Context, token string) error {
	s.token, s.ok = token, true
	s.sets++
	return nil
}

func (s *stubTokenStore) Clear(context.Context) error {
	s.token, s.ok = "", false
	return nil
}

type recordingView struct {
	views    []domain.View
	panels   map[domain.Panel][]string
	loading  bool
	username string
	tier     string
}

func newRecordingView() *recordingView {
	return &recordingView{panels: make(map[domain.Panel][]string)}
}

func (v *recordingView) TransitionTo(view domain.View) { v.views = append(v.views, view) }
func (v *recordingView) ShowLoading(string)            { v.loading = true }
func (v *recordingView) HideLoading()                  { v.loading = false }
func (v *recordingView) ClearErrors(p domain.Panel)    { v.panels[p] = nil }
func (v *recordingView) AppendError(p domain.Panel, msg string) {
	v.panels[p] = append(v.panels[p], msg)
}
func (v *recordingView) ReplaceErrors(p domain.Panel, msg string) { v.panels[p] = []string{msg} }
func (v *recordingView) RenderProfile(username, tier string) {
	v.username, v.tier = username, tier
}

func (v *recordingView) last() domain.View {
	if len(v.views) == 0 {
		return domain.ViewNone
	}
	return v.views[len(v.views)-1]
}

type stubLogoutQueue struct {
	tokens []string
}

func (q *stubLogoutQueue) Enqueue(token string) { q.tokens = append(q.tokens, token) }

type controllerFixture struct {
	ctrl    *SessionController
	client  *stubAuthClient
	store   *stubTokenStore
	view    *recordingView
	logouts *stubLogoutQueue
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()
	f := &controllerFixture{
		client:  &stubAuthClient{},
		store:   &stubTokenStore{},
		view:    newRecordingView(),
		logouts: &stubLogoutQueue{},
	}
	ctrl, err := NewSessionController(SessionDeps{
		Client:  f.client,
		Store:   f.store,
		Nav:     f.view,
		Display: f.view,
		Logouts: f.logouts,
		Log:     zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewSessionController: %v", err)
	}
	f.ctrl = ctrl
	return f
}

// ---------------------------------------------------------------------------
// Restore
// ---------------------------------------------------------------------------

func TestSessionController_Restore_NoToken(t *testing.T) {
	f := newControllerFixture(t)

	if err := f.ctrl.Restore(context.Background()); err != nil {
		t.Fatalf("Restore error: %v", err)
	}
	if len(f.client.calls) != 0 {
		t.Fatalf("expected no network calls, got %v", f.client.calls)
	}
	if f.view.last() != domain.ViewLogin || f.ctrl.View() != domain.ViewLogin {
		t.Fatalf("expected login view, got %q", f.view.last())
	}
}

func TestSessionController_Restore_StoreReadFails(t *testing.T) {
	f := newControllerFixture(t)
	f.store.getErr = errors.New("disk gone")

	if err := f.ctrl.Restore(context.Background()); err != nil {
		t.Fatalf("Restore error: %v", err)
	}
	if len(f.client.calls) != 0 || f.view.last() != domain.ViewLogin {
		t.Fatalf("expected offline fallback to login, calls=%v view=%q", f.client.calls, f.view.last())
	}
}

func TestSessionController_Restore_StoredToken(t *testing.T) {
	f := newControllerFixture(t)
	f.store.token, f.store.ok = "ABC", true
	f.client.sessionFn = func(_ context.Context, token string) (*domain.AuthResponse, error) {
		if token != "ABC" {
			t.Fatalf("unexpected token %q", token)
		}
		return &domain.AuthResponse{User: &domain.Profile{Username: "bob", Level: 0}}, nil
	}

	if err := f.ctrl.Restore(context.Background()); err != nil {
		t.Fatalf("Restore error: %v", err)
	}
	if len(f.client.calls) != 1 || f.client.calls[0] != "session:ABC" {
		t.Fatalf("expected one session lookup with ABC, got %v", f.client.calls)
	}
	if f.view.last() != domain.ViewMain {
		t.Fatalf("expected main view, got %q", f.view.last())
	}
	if f.view.tier != "player" || f.view.username != "bob" {
		t.Fatalf("unexpected profile render %q/%q", f.view.username, f.view.tier)
	}
	if f.view.loading {
		t.Fatalf("loading indicator left visible")
	}
	if f.ctrl.Token() != "ABC" {
		t.Fatalf("expected stored token kept in memory, got %q", f.ctrl.Token())
	}
}

func TestSessionController_Restore_RoundTripLevel(t *testing.T) {
	f := newControllerFixture(t)
	f.store.token, f.store.ok = "old", true
	f.client.sessionFn = func(context.Context, string) (*domain.AuthResponse, error) {
		return &domain.AuthResponse{Token: "T", User: &domain.Profile{Username: "a", Level: 2}}, nil
	}

	if err := f.ctrl.Restore(context.Background()); err != nil {
		t.Fatalf("Restore error: %v", err)
	}
	if f.view.tier != domain.Levels()[2] || f.view.tier != "moderator" {
		t.Fatalf("expected moderator, got %q", f.view.tier)
	}
	if f.ctrl.View() != domain.ViewMain {
		t.Fatalf("expected main view, got %q", f.ctrl.View())
	}
	if f.store.token != "T" || f.ctrl.Token() != "T" {
		t.Fatalf("expected token T to replace the old one, store=%q mem=%q", f.store.token, f.ctrl.Token())
	}
	if u := f.ctrl.User(); u == nil || u.Username != "a" {
		t.Fatalf("expected user a in memory, got %+v", u)
	}
}

func TestSessionController_Restore_ExpiredToken(t *testing.T) {
	f := newControllerFixture(t)
	f.store.token, f.store.ok = "stale", true
	f.client.sessionFn = func(context.Context, string) (*domain.AuthResponse, error) {
		return &domain.AuthResponse{Error: domain.KindTokenExpired}, nil
	}

	err := f.ctrl.Restore(context.Background())
	var re *domain.RemoteError
	if !errors.As(err, &re) || re.Kind != domain.KindTokenExpired {
		t.Fatalf("expected remote token expired error, got %v", err)
	}
	if f.view.last() != domain.ViewLogin {
		t.Fatalf("expected login view, got %q", f.view.last())
	}
	if f.store.ok || f.ctrl.Token() != "" {
		t.Fatalf("expected rejected token to be dropped")
	}
	if got := f.view.panels[domain.PanelLogin]; len(got) != 1 || got[0] != "An unknown error occurred." {
		t.Fatalf("expected unknown error fallback, got %v", got)
	}
}

func TestSessionController_Restore_TransportFailure(t *testing.T) {
	f := newControllerFixture(t)
	f.store.token, f.store.ok = "ABC", true
	f.client.sessionFn = func(context.Context, string) (*domain.AuthResponse, error) {
		return nil, errors.New("connection refused")
	}

	if err := f.ctrl.Restore(context.Background()); err == nil {
		t.Fatalf("expected transport error")
	}
	if f.view.loading {
		t.Fatalf("loading indicator must be hidden after a failed exchange")
	}
	if f.view.last() != domain.ViewLogin {
		t.Fatalf("expected login view, got %q", f.view.last())
	}
	if got := f.view.panels[domain.PanelLogin]; len(got) != 1 || got[0] != "Unable to reach the server." {
		t.Fatalf("unexpected panel %v", got)
	}
	if !f.store.ok {
		t.Fatalf("stored token must survive a transport failure")
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestSessionController_Login_Validation(t *testing.T) {
	cases := []struct {
		username, password string
		field, msg         string
	}{
		{"", "x", "Username", "A username is required."},
		{"x", "", "Password", "A password is required."},
		{"", "", "Username", "A username is required."},
	}
	for _, tc := range cases {
		f := newControllerFixture(t)
		err := f.ctrl.Login(context.Background(), tc.username, tc.password)

		var ve *domain.ValidationError
		if !errors.As(err, &ve) || ve.Field != tc.field {
			t.Fatalf("login(%q,%q): expected validation error on %s, got %v", tc.username, tc.password, tc.field, err)
		}
		if len(f.client.calls) != 0 {
			t.Fatalf("login(%q,%q): unexpected network calls %v", tc.username, tc.password, f.client.calls)
		}
		if got := f.view.panels[domain.PanelLogin]; len(got) != 1 || got[0] != tc.msg {
			t.Fatalf("login(%q,%q): panel = %v", tc.username, tc.password, got)
		}
	}
}

func TestSessionController_Login_ClearsErrorsEachCall(t *testing.T) {
	f := newControllerFixture(t)

	_ = f.ctrl.Login(context.Background(), "", "x")
	_ = f.ctrl.Login(context.Background(), "x", "")

	got := f.view.panels[domain.PanelLogin]
	if len(got) != 1 || got[0] != "A password is required." {
		t.Fatalf("expected only the latest message, got %v", got)
	}

	f.client.loginFn = func(context.Context, string, string) (*domain.AuthResponse, error) {
		return &domain.AuthResponse{Token: "T", User: &domain.Profile{Username: "x"}}, nil
	}
	if err := f.ctrl.Login(context.Background(), "x", "y"); err != nil {
		t.Fatalf("login error: %v", err)
	}
	if got := f.view.panels[domain.PanelLogin]; len(got) != 0 {
		t.Fatalf("expected panel cleared after success, got %v", got)
	}
}

func TestSessionController_Login_Incorrect(t *testing.T) {
	f := newControllerFixture(t)
	f.client.loginFn = func(_ context.Context, username, password string) (*domain.AuthResponse, error) {
		if username != "bob" || password != "wrong" {
			t.Fatalf("unexpected credentials %s/%s", username, password)
		}
		return &domain.AuthResponse{Error: domain.KindLoginIncorrect}, nil
	}

	err := f.ctrl.Login(context.Background(), "bob", "wrong")
	if !domain.IsLoginIncorrect(err) {
		t.Fatalf("expected login incorrect, got %v", err)
	}
	got := f.view.panels[domain.PanelLogin]
	if len(got) != 1 || !strings.Contains(got[0], "Incorrect username or password.") {
		t.Fatalf("unexpected panel %v", got)
	}
	if f.view.last() != domain.ViewLogin {
		t.Fatalf("expected login view, got %q", f.view.last())
	}
	if f.store.sets != 0 {
		t.Fatalf("nothing should be persisted")
	}
}

func TestSessionController_Login_Success(t *testing.T) {
	f := newControllerFixture(t)
	f.client.loginFn = func(context.Context, string, string) (*domain.AuthResponse, error) {
		return &domain.AuthResponse{Token: "T1", User: &domain.Profile{Username: "bob", Level: domain.LevelOperator}}, nil
	}

	if err := f.ctrl.Login(context.Background(), "bob", "right"); err != nil {
		t.Fatalf("login error: %v", err)
	}
	if f.store.token != "T1" || f.ctrl.Token() != "T1" {
		t.Fatalf("token not persisted: store=%q mem=%q", f.store.token, f.ctrl.Token())
	}
	if f.view.tier != "operator" || f.ctrl.View() != domain.ViewMain {
		t.Fatalf("unexpected tier %q view %q", f.view.tier, f.ctrl.View())
	}
}

func TestSessionController_Login_TokenAndErrorAreIndependent(t *testing.T) {
	f := newControllerFixture(t)
	f.client.loginFn = func(context.Context, string, string) (*domain.AuthResponse, error) {
		return &domain.AuthResponse{Token: "T", Error: domain.KindLoginIncorrect}, nil
	}

	_ = f.ctrl.Login(context.Background(), "bob", "pw")

	if f.store.token != "T" || f.ctrl.Token() != "T" {
		t.Fatalf("token must still be persisted, store=%q mem=%q", f.store.token, f.ctrl.Token())
	}
	if got := f.view.panels[domain.PanelLogin]; len(got) != 1 || got[0] != "Incorrect username or password." {
		t.Fatalf("expected incorrect-credentials message, got %v", got)
	}
	if f.view.last() != domain.ViewLogin {
		t.Fatalf("expected login view, got %q", f.view.last())
	}
}

func TestSessionController_Login_UnknownErrorKind(t *testing.T) {
	f := newControllerFixture(t)
	f.client.loginFn = func(context.Context, string, string) (*domain.AuthResponse, error) {
		return &domain.AuthResponse{Error: "database on fire"}, nil
	}

	err := f.ctrl.Login(context.Background(), "bob", "pw")
	var re *domain.RemoteError
	if !errors.As(err, &re) || re.Kind != "database on fire" {
		t.Fatalf("expected remote error, got %v", err)
	}
	if got := f.view.panels[domain.PanelLogin]; len(got) != 1 || got[0] != "An unknown error occurred." {
		t.Fatalf("expected fallback message, got %v", got)
	}
}

func TestSessionController_Login_ConcurrentLastResponseWins(t *testing.T) {
	f := newControllerFixture(t)

	replies := map[string]chan *domain.AuthResponse{
		"alice": make(chan *domain.AuthResponse),
		"bob":   make(chan *domain.AuthResponse),
	}
	started := make(chan string, 2)
	f.client.loginFn = func(_ context.Context, username, _ string) (*domain.AuthResponse, error) {
		started <- username
		return <-replies[username], nil
	}

	done := map[string]chan error{
		"alice": make(chan error, 1),
		"bob":   make(chan error, 1),
	}
	for name := range replies {
		go func(name string) {
			done[name] <- f.ctrl.Login(context.Background(), name, "pw")
		}(name)
	}
	<-started
	<-started

	// Bob's request was issued alongside Alice's but answers first.
	replies["bob"] <- &domain.AuthResponse{Token: "T-bob", User: &domain.Profile{Username: "bob", Level: domain.LevelModerator}}
	if err := <-done["bob"]; err != nil {
		t.Fatalf("bob login: %v", err)
	}
	replies["alice"] <- &domain.AuthResponse{Token: "T-alice", User: &domain.Profile{Username: "alice", Level: domain.LevelPlayer}}
	if err := <-done["alice"]; err != nil {
		t.Fatalf("alice login: %v", err)
	}

	if got := f.ctrl.Token(); got != "T-alice" {
		t.Fatalf("expected last token T-alice, got %q", got)
	}
	if u := f.ctrl.User(); u == nil || u.Username != "alice" {
		t.Fatalf("expected alice profile, got %+v", u)
	}
	if f.ctrl.View() != domain.ViewMain || f.view.username != "alice" {
		t.Fatalf("unexpected final view %q rendered %q", f.ctrl.View(), f.view.username)
	}
	if f.store.token != "T-alice" || f.store.sets != 2 {
		t.Fatalf("store not written by the last response: token=%q sets=%d", f.store.token, f.store.sets)
	}
}

func TestSessionController_Closed(t *testing.T) {
	f := newControllerFixture(t)
	f.store.token, f.store.ok = "T", true
	f.ctrl.Close()
	f.ctrl.Close()

	ctx := context.Background()
	for name, op := range map[string]func() error{
		"restore":  func() error { return f.ctrl.Restore(ctx) },
		"login":    func() error { return f.ctrl.Login(ctx, "bob", "pw") },
		"register": func() error { return f.ctrl.Register(ctx, "bob", "pw", "bob@example.com") },
		"logout":   func() error { return f.ctrl.Logout(ctx) },
	} {
		if err := op(); !errors.Is(err, ErrClosed) {
			t.Fatalf("%s: expected ErrClosed, got %v", name, err)
		}
	}
	if len(f.client.calls) != 0 || len(f.view.views) != 0 || len(f.logouts.tokens) != 0 {
		t.Fatalf("closed controller touched collaborators: calls=%v views=%v", f.client.calls, f.view.views)
	}
	if f.store.token != "T" {
		t.Fatalf("stored token must survive Close, got %q", f.store.token)
	}
}

func TestSessionController_Close_DropsInflightResponse(t *testing.T) {
	f := newControllerFixture(t)
	release := make(chan struct{})
	entered := make(chan struct{})
	f.client.loginFn = func(context.Context, string, string) (*domain.AuthResponse, error) {
		close(entered)
		<-release
		return &domain.AuthResponse{Token: "T", User: &domain.Profile{Username: "bob"}}, nil
	}

	done := make(chan error, 1)
	go func() { done <- f.ctrl.Login(context.Background(), "bob", "pw") }()
	<-entered
	f.ctrl.Close()
	close(release)

	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if f.store.sets != 0 || f.ctrl.Token() != "" || f.view.last() == domain.ViewMain {
		t.Fatalf("late response was applied: sets=%d token=%q", f.store.sets, f.ctrl.Token())
	}
}

// ---------------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------------

func TestSessionController_Logout(t *testing.T) {
	f := newControllerFixture(t)
	f.client.loginFn = func(context.Context, string, string) (*domain.AuthResponse, error) {
		return &domain.AuthResponse{Token: "T", User: &domain.Profile{Username: "bob"}}, nil
	}
	_ = f.ctrl.Login(context.Background(), "bob", "pw")

	if err := f.ctrl.Logout(context.Background()); err != nil {
		t.Fatalf("logout error: %v", err)
	}
	if len(f.logouts.tokens) != 1 || f.logouts.tokens[0] != "T" {
		t.Fatalf("expected revocation of T, got %v", f.logouts.tokens)
	}
	if got := f.view.panels[domain.PanelLogin]; len(got) != 1 || got[0] != "You have been logged out" {
		t.Fatalf("unexpected panel %v", got)
	}
	if f.view.last() != domain.ViewLogin {
		t.Fatalf("expected login view, got %q", f.view.last())
	}
	if f.ctrl.Token() != "" || f.ctrl.User() != nil || f.store.ok {
		t.Fatalf("session state must be cleared after logout")
	}
}

func TestSessionController_Logout_WithoutToken(t *testing.T) {
	f := newControllerFixture(t)

	if err := f.ctrl.Logout(context.Background()); err != nil {
		t.Fatalf("logout error: %v", err)
	}
	if len(f.logouts.tokens) != 0 {
		t.Fatalf("nothing to revoke, got %v", f.logouts.tokens)
	}
	if f.view.last() != domain.ViewLogin {
		t.Fatalf("expected login view, got %q", f.view.last())
	}
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestSessionController_Register_Validation(t *testing.T) {
	cases := []struct {
		username, password, email string
		field, msg                string
	}{
		{"", "pw", "e@x.com", "Username", "A username is required."},
		{"new", "", "e@x.com", "Password", "A password is required."},
		{"new", "pw", "", "Email", "An email address is required."},
		{"", "", "", "Username", "A username is required."},
		{"new", "", "", "Password", "A password is required."},
	}
	for _, tc := range cases {
		f := newControllerFixture(t)
		err := f.ctrl.Register(context.Background(), tc.username, tc.password, tc.email)

		var ve *domain.ValidationError
		if !errors.As(err, &ve) || ve.Field != tc.field {
			t.Fatalf("register%+v: expected validation error on %s, got %v", tc, tc.field, err)
		}
		if len(f.client.calls) != 0 {
			t.Fatalf("register%+v: unexpected network calls %v", tc, f.client.calls)
		}
		if got := f.view.panels[domain.PanelRegister]; len(got) != 1 || got[0] != tc.msg {
			t.Fatalf("register%+v: panel = %v", tc, got)
		}
	}
}

func TestSessionController_Register_Success(t *testing.T) {
	f := newControllerFixture(t)
	f.client.registerFn = func(_ context.Context, username, password, email string) (*domain.RegisterResponse, error) {
		if username != "new" || password != "pw" || email != "e@x.com" {
			t.Fatalf("unexpected args %s %s %s", username, password, email)
		}
		return &domain.RegisterResponse{Success: true}, nil
	}

	if err := f.ctrl.Register(context.Background(), "new", "pw", "e@x.com"); err != nil {
		t.Fatalf("register error: %v", err)
	}
	if f.view.last() != domain.ViewRegisterComplete {
		t.Fatalf("expected register-complete view, got %q", f.view.last())
	}
	if f.view.loading {
		t.Fatalf("loading indicator left visible")
	}
}

func TestSessionController_Register_Error(t *testing.T) {
	f := newControllerFixture(t)
	f.client.registerFn = func(context.Context, string, string, string) (*domain.RegisterResponse, error) {
		return &domain.RegisterResponse{Error: domain.KindUserExists}, nil
	}

	err := f.ctrl.Register(context.Background(), "new", "pw", "e@x.com")
	var re *domain.RemoteError
	if !errors.As(err, &re) || re.Kind != domain.KindUserExists {
		t.Fatalf("expected remote error, got %v", err)
	}
	got := f.view.panels[domain.PanelRegister]
	if len(got) != 1 || got[0] != domain.DefaultMessages().RegisterFailed {
		t.Fatalf("expected generic message, got %v", got)
	}
	if len(f.view.views) != 0 {
		t.Fatalf("register failure must not change the view, got %v", f.view.views)
	}
}

func TestSessionController_CustomMessages(t *testing.T) {
	msgs := domain.MessagesFor("es")
	f := newControllerFixture(t)
	ctrl, err := NewSessionController(SessionDeps{
		Client:   f.client,
		Store:    f.store,
		Nav:      f.view,
		Display:  f.view,
		Logouts:  f.logouts,
		Messages: &msgs,
		Log:      zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewSessionController: %v", err)
	}

	_ = ctrl.Register(context.Background(), "new", "pw", "")
	if got := f.view.panels[domain.PanelRegister]; len(got) != 1 || got[0] != msgs.EmailRequired {
		t.Fatalf("expected localized message, got %v", got)
	}
}

func TestNewSessionController_MissingCollaborator(t *testing.T) {
	if _, err := NewSessionController(SessionDeps{}); err == nil {
		t.Fatalf("expected error for missing collaborators")
	}
}
