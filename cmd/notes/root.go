package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"note-taker/internal/clients/api"
	"note-taker/internal/clients/localstore"
	redisclient "note-taker/internal/clients/redis"
	"note-taker/internal/config"
	"note-taker/internal/credentials"
	"note-taker/internal/logger"
	"note-taker/internal/workspace"

	"github.com/spf13/cobra"
)

// teardownTimeout bounds the wait for in-flight saves when a command exits.
const teardownTimeout = 15 * time.Second

var errNotSignedIn = errors.New("not signed in, run `notes login` first")

// cli is the state shared by every command of one invocation.
type cli struct {
	out    io.Writer
	errOut io.Writer

	debug     bool
	local     bool
	storePath string

	cfg     config.Config
	log     *slog.Logger
	creds   credentials.Store
	client  *api.Client
	closers []func() error
}

// execute runs one invocation and releases whatever it opened, even on failure.
func execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	root, c := newRootCommand(out, errOut)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	return errors.Join(err, c.close())
}

func newRootCommand(out, errOut io.Writer) (*cobra.Command, *cli) {
	c := &cli{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "notes",
		Short:         "Take notes and sort them into color-themed categories",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd.Context())
		},
	}
	root.PersistentFlags().BoolVar(&c.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&c.local, "local", false, "Work on the local notes file instead of the server")
	root.PersistentFlags().StringVar(&c.storePath, "store", "", "Local notes file (default LOCAL_STORE_FILE)")

	root.AddCommand(
		newRegisterCommand(c),
		newLoginCommand(c),
		newLogoutCommand(c),
		newWhoamiCommand(c),
		newNotesCommand(c),
		newCategoriesCommand(c),
		newHealthCommand(c),
	)
	return root, c
}

func (c *cli) setup(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.LogFormat = "text"
	cfg.LogLevel = "warn"
	if c.debug {
		cfg.LogLevel = "debug"
	}
	c.cfg = cfg
	c.log = logger.New(cfg, c.errOut)

	c.creds, err = c.openCredentials(ctx)
	if err != nil {
		return err
	}

	c.client = api.New(api.Options{
		BaseURL:       cfg.APIBaseURL,
		Timeout:       cfg.APITimeout(),
		RetryAttempts: cfg.APIRetryAttempts,
		Credentials:   c.creds,
		Logger:        c.log,
	})
	c.closers = append(c.closers, c.client.Close)
	return nil
}

func (c *cli) openCredentials(ctx context.Context) (credentials.Store, error) {
	switch strings.ToLower(c.cfg.CredentialsBackend) {
	case config.CredentialsMemory:
		return credentials.NewMemoryStore(), nil
	case config.CredentialsRedis:
		rc, err := redisclient.NewClient(ctx, c.cfg.RedisAddr, c.cfg.RedisPassword, c.cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("credential store: %w", err)
		}
		c.closers = append(c.closers, rc.Close)
		return redisclient.NewCredentialStore(rc, redisclient.Options{Logger: c.log}), nil
	default:
		return credentials.NewFileStore(c.cfg.CredentialsFile, c.log), nil
	}
}

// persistence returns what the session mirrors: the local file, or the server
// for the signed-in user.
func (c *cli) persistence() (workspace.Persistence, credentials.Store, error) {
	if c.local {
		path := c.storePath
		if path == "" {
			path = c.cfg.LocalStoreFile
		}
		store, err := localstore.Open(filepath.Clean(path), c.log)
		if err != nil {
			return nil, nil, err
		}
		// The local file has a single implicit owner.
		creds := credentials.NewMemoryStore()
		if err := creds.Set(credentials.Credential{Token: "local", Email: "local"}); err != nil {
			return nil, nil, err
		}
		return store, creds, nil
	}

	if _, ok := c.creds.Current(); !ok {
		return nil, nil, errNotSignedIn
	}
	return c.client, c.creds, nil
}

// openSession loads the workspace. It is torn down when the command returns.
func (c *cli) openSession(ctx context.Context) (*workspace.Session, error) {
	p, creds, err := c.persistence()
	if err != nil {
		return nil, err
	}

	s := workspace.NewSession(workspace.Options{
		Persistence: p,
		Credentials: creds,
		Logger:      c.log,
		EventBuffer: c.cfg.EventBuffer,
		Timeout:     c.cfg.APITimeout(),
	})
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}

	c.closers = append(c.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		defer cancel()
		return s.Teardown(ctx)
	})
	return s, nil
}

func (c *cli) close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *cli) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
