package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/redeclipse/mastersession/internal/core/domain"
	"github.com/redeclipse/mastersession/internal/core/service"
	"github.com/redeclipse/mastersession/internal/infrastructure/authclient"
	"github.com/redeclipse/mastersession/internal/infrastructure/queue"
	"github.com/redeclipse/mastersession/internal/infrastructure/terminal"
	"github.com/redeclipse/mastersession/internal/infrastructure/tokenstore"
	"github.com/redeclipse/mastersession/internal/pkg/config"
	"github.com/redeclipse/mastersession/pkg/logger"
)

// session is one CLI invocation: a controller wired to the configured
// server, the token file and a terminal screen.
type session struct {
	ctrl    *service.SessionController
	screen  *terminal.Presenter
	store   *tokenstore.FileStore
	path    string
	logouts *queue.Dispatcher
	log     zerolog.Logger
}

func (s *session) close() {
	s.screen.Flush()
	s.logouts.Stop()
	s.ctrl.Close()
}

func newRootCmd(env envconfig.Lookuper, fs afero.Fs) *cobra.Command {
	root := &cobra.Command{
		Use:           "session",
		Short:         "Log in to the master server from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `session keeps a master server login across invocations. The token is
stored in SESSION_TOKEN_FILE (default: <user config dir>/mastersession/session.json).

Configuration is read from the environment:
  SESSION_SERVER_URL, SESSION_TOKEN_FILE, SESSION_LANG, SESSION_TIMEOUT, LOG_LEVEL`,
	}

	open := func(cmd *cobra.Command) (*session, error) {
		return openSession(cmd.Context(), cmd, env, fs)
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "restore",
			Short: "Validate the stored token and show the resulting screen",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := open(cmd)
				if err != nil {
					return err
				}
				defer s.close()
				return s.ctrl.Restore(cmd.Context())
			},
		},
		newLoginCmd(open),
		&cobra.Command{
			Use:   "logout",
			Short: "Revoke the stored token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := open(cmd)
				if err != nil {
					return err
				}
				defer s.close()
				if err := s.ctrl.Restore(cmd.Context()); err != nil {
					s.log.Debug().Err(err).Msg("restore before logout failed")
				}
				return s.ctrl.Logout(cmd.Context())
			},
		},
		newRegisterCmd(open),
		&cobra.Command{
			Use:   "status",
			Short: "Report whether a token is stored, without contacting the server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := open(cmd)
				if err != nil {
					return err
				}
				defer s.close()
				_, ok, err := s.store.Get(cmd.Context())
				if err != nil {
					return err
				}
				state := "no token stored"
				if ok {
					state = "token stored"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", state, s.path)
				return nil
			},
		},
	)
	return root
}

func newLoginCmd(open func(*cobra.Command) (*session, error)) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the issued token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			return s.ctrl.Login(cmd.Context(), username, password)
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func newRegisterCmd(open func(*cobra.Command) (*session, error)) *cobra.Command {
	var username, password, email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			return s.ctrl.Register(cmd.Context(), username, password, email)
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	return cmd
}

func openSession(ctx context.Context, cmd *cobra.Command, env envconfig.Lookuper, fs afero.Fs) (*session, error) {
	cfg, err := config.LoadClient(ctx, env)
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{Level: cfg.LogLevel, Output: cmd.ErrOrStderr(), Service: "session"})

	path := cfg.TokenFile
	if path == "" {
		path, err = defaultTokenFile()
		if err != nil {
			return nil, err
		}
	}
	store := tokenstore.NewFileStore(fs, path)

	client, err := authclient.New(authclient.Config{BaseURL: cfg.ServerURL, Timeout: cfg.Timeout}, log)
	if err != nil {
		return nil, err
	}

	logouts := queue.NewDispatcher(1, client, cfg.Timeout, log)
	logouts.Start(ctx)

	screen := terminal.NewPresenter(cmd.OutOrStdout())
	msgs := domain.MessagesFor(cfg.Lang)
	ctrl, err := service.NewSessionController(service.SessionDeps{
		Client:   client,
		Store:    store,
		Nav:      screen,
		Display:  screen,
		Logouts:  logouts,
		Messages: &msgs,
		Log:      log,
	})
	if err != nil {
		logouts.Stop()
		return nil, err
	}

	return &session{ctrl: ctrl, screen: screen, store: store, path: path, logouts: logouts, log: log}, nil
}

func defaultTokenFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.New("cannot locate a config directory, set SESSION_TOKEN_FILE")
	}
	return filepath.Join(dir, "mastersession", "session.json"), nil
}
