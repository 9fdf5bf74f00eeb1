package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redeclipse/mastersession/internal/core/domain"
	"github.com/redeclipse/mastersession/internal/core/service"
	"github.com/redeclipse/mastersession/internal/infrastructure/authclient"
	"github.com/redeclipse/mastersession/internal/infrastructure/queue"
	"github.com/redeclipse/mastersession/internal/infrastructure/terminal"
	"github.com/redeclipse/mastersession/internal/infrastructure/tokenstore"
)

type flowClient struct {
	ctrl    *service.SessionController
	screen  *terminal.Presenter
	out     *bytes.Buffer
	logouts *queue.Dispatcher
	cancel  context.CancelFunc
}

func newFlowClient(t *testing.T, serverURL string, store *tokenstore.MemoryStore) *flowClient {
	t.Helper()
	client, err := authclient.New(authclient.Config{BaseURL: serverURL, Timeout: 5 * time.Second}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	logouts := queue.NewDispatcher(1, client, time.Second, zerolog.Nop())
	logouts.Start(ctx)

	var out bytes.Buffer
	screen := terminal.NewPresenter(&out)
	ctrl, err := service.NewSessionController(service.SessionDeps{
		Client:  client,
		Store:   store,
		Nav:     screen,
		Display: screen,
		Logouts: logouts,
		Log:     zerolog.Nop(),
	})
	require.NoError(t, err)

	fc := &flowClient{ctrl: ctrl, screen: screen, out: &out, logouts: logouts, cancel: cancel}
	t.Cleanup(fc.close)
	return fc
}

func (fc *flowClient) close() {
	fc.logouts.Stop()
	fc.cancel()
	fc.ctrl.Close()
}

func TestSessionFlow_RegisterLoginRestoreLogout(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()

	first := newFlowClient(t, srv.URL, store)
	require.NoError(t, first.ctrl.Restore(ctx))
	assert.Equal(t, domain.ViewLogin, first.ctrl.View())

	require.NoError(t, first.ctrl.Register(ctx, "alice", "pw", "alice@example.com"))
	assert.Equal(t, domain.ViewRegisterComplete, first.screen.View())

	require.NoError(t, first.ctrl.Login(ctx, "alice", "pw"))
	assert.Equal(t, domain.ViewMain, first.ctrl.View())
	assert.Contains(t, first.out.String(), "Logged in as alice (player)")

	token, ok, err := store.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.ctrl.Token(), token)

	// A fresh client restores the stored session without credentials.
	second := newFlowClient(t, srv.URL, store)
	require.NoError(t, second.ctrl.Restore(ctx))
	assert.Equal(t, domain.ViewMain, second.ctrl.View())
	require.NotNil(t, second.ctrl.User())
	assert.Equal(t, "alice", second.ctrl.User().Username)

	require.NoError(t, second.ctrl.Logout(ctx))
	assert.Equal(t, domain.ViewLogin, second.ctrl.View())
	assert.Empty(t, second.ctrl.Token())
	assert.Nil(t, second.ctrl.User())
	_, ok, _ = store.Get(ctx)
	assert.False(t, ok)

	// Stop drains the revocation, after which the server rejects the token.
	second.logouts.Stop()
	rec := s.do(t, http.MethodGet, "/user?token="+url.QueryEscape(token), nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, domain.KindTokenInvalid, decodeBody(t, rec)["error"])
}

func TestSessionFlow_IncorrectLogin(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()
	ctx := context.Background()
	s.registerAndLogin(t, "bob")

	fc := newFlowClient(t, srv.URL, tokenstore.NewMemoryStore())
	err := fc.ctrl.Login(ctx, "bob", "wrong")
	require.Error(t, err)
	assert.True(t, domain.IsLoginIncorrect(err))
	assert.Equal(t, domain.ViewLogin, fc.ctrl.View())
	assert.Contains(t, fc.out.String(), "! Incorrect username or password.")
	assert.Empty(t, fc.ctrl.Token())
}

func TestSessionFlow_RestoreExpiredToken(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()
	ctx := context.Background()

	token := s.registerAndLogin(t, "carol")
	store := tokenstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, token))
	s.clock.Advance(2 * time.Hour)

	fc := newFlowClient(t, srv.URL, store)
	err := fc.ctrl.Restore(ctx)
	require.Error(t, err)
	assert.Equal(t, domain.ViewLogin, fc.ctrl.View())
	assert.Empty(t, fc.ctrl.Token())
	_, ok, _ := store.Get(ctx)
	assert.False(t, ok, "rejected token must be dropped from the store")
	assert.True(t, strings.Contains(fc.out.String(), "An unknown error occurred."))
}

func TestSessionFlow_ServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()
	ctx := context.Background()

	store := tokenstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "stale"))

	fc := newFlowClient(t, addr, store)
	require.Error(t, fc.ctrl.Restore(ctx))
	assert.Equal(t, domain.ViewLogin, fc.ctrl.View())
	assert.False(t, fc.screen.Loading())
	assert.Contains(t, fc.out.String(), "! Unable to reach the server.")
}
