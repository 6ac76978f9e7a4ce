// Package cli implements carctl, the terminal client. It keeps the session in a file
// and pages through the same collections the dashboard serves.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"carservice/internal/auth"
	"carservice/internal/backend"
	"carservice/internal/config"
	apperrors "carservice/internal/errors"
	"carservice/internal/model"
	"carservice/internal/resource"
	"carservice/internal/service"
)

var (
	// ErrNotLoggedIn is returned by commands that need a session when none is stored.
	ErrNotLoggedIn = errors.New("not logged in, run carctl login")
	// ErrSessionExpired is returned after the backend refused the stored token.
	ErrSessionExpired = errors.New("session expired, run carctl login")
)

// App holds what every carctl command shares.
type App struct {
	api      *backend.Client
	store    *auth.FileStore
	auth     service.AuthService
	registry *resource.Registry
	pageSize int
	logger   *slog.Logger
}

type options struct {
	backendURL  string
	sessionPath string
	pageSize    int
	verbose     bool
}

// NewRootCmd builds the carctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	app := &App{}

	root := &cobra.Command{
		Use:          "carctl",
		Short:        "Terminal client for the car service API",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(opts, cmd.ErrOrStderr())
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.backendURL, "backend", "", "backend base URL (default BACKEND_URL)")
	f.StringVar(&opts.sessionPath, "session", "", "session file (default in the user config dir)")
	f.IntVar(&opts.pageSize, "per-page", 0, "rows per page (default PAGE_SIZE)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log backend requests")

	root.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newListCmd(app),
		newBrowseCmd(app),
		newSearchCmd(app),
	)
	return root
}

func (a *App) init(opts *options, logOut io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	backendURL := cfg.BackendURL
	if opts.backendURL != "" {
		backendURL = opts.backendURL
	}
	a.pageSize = cfg.PageSize
	if opts.pageSize > 0 {
		a.pageSize = opts.pageSize
	}
	path := opts.sessionPath
	if path == "" {
		if path, err = auth.DefaultSessionPath(); err != nil {
			return err
		}
	}

	a.api = backend.New(backendURL, cfg.BackendTimeout, a.logger)
	a.store = auth.NewFileStore(path)
	a.auth = service.NewAuthService(a.api, a.store, cfg.SessionTTL, a.logger)
	a.registry = resource.Default()
	return nil
}

// session returns the stored session, dropping it when its token has expired.
func (a *App) session(ctx context.Context) (*model.Session, error) {
	stored, err := a.store.Load(ctx, uuid.Nil)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}
	sess, err := a.auth.Resume(ctx, stored.ID.String())
	switch {
	case err == nil:
		return sess, nil
	case errors.Is(err, apperrors.ErrSessionMissing):
		return nil, ErrNotLoggedIn
	case apperrors.IsAuthExpired(err):
		return nil, ErrSessionExpired
	default:
		return nil, err
	}
}

// fail maps a backend failure to what the command reports. AuthExpired clears the session.
func (a *App) fail(ctx context.Context, sess *model.Session, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAuthExpired(err) {
		if dropErr := a.auth.Drop(ctx, sess.ID.String()); dropErr != nil {
			a.logger.Warn("drop expired session", "error", dropErr)
		}
		return ErrSessionExpired
	}
	if apperrors.KindOf(err) != apperrors.KindUnknown {
		return errors.New(apperrors.UserMessage(err))
	}
	return err
}

// schema resolves an entity name within the session's scope.
func (a *App) schema(sess *model.Session, name string) (*resource.Schema, error) {
	if s, ok := a.registry.Lookup(sess.Role, name); ok {
		return s, nil
	}
	var names []string
	for _, s := range a.registry.Scope(sess.Role) {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return nil, fmt.Errorf("unknown entity %q, choose one of: %s", name, strings.Join(names, ", "))
}
