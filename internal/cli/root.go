package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/idilsaglam/usertodo/internal/config"
	"github.com/idilsaglam/usertodo/internal/directory"
	"github.com/idilsaglam/usertodo/internal/logging"
	"github.com/idilsaglam/usertodo/internal/store/jsonstore"
	"github.com/idilsaglam/usertodo/internal/store/sqlstore"
	"github.com/idilsaglam/usertodo/internal/todo"
	"github.com/idilsaglam/usertodo/internal/ui"
)

// Exit codes: 0 ok, 1 error, 2 usage.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// exitError carries an exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func failf(format string, args ...any) error {
	return &exitError{code: ExitError, err: fmt.Errorf(format, args...)}
}

func usagef(format string, args ...any) error {
	return &exitError{code: ExitUsage, err: fmt.Errorf(format, args...)}
}

// Options tune behavior from root flags; flags left unset keep the
// configured values.
type Options struct {
	ConfigFile string
	Backend    string
	DataFile   string
	Database   string
	Scope      string
	Theme      string
	LogLevel   string
	LogFormat  string
	User       string
}

// env is what every command works with once PersistentPreRunE ran.
type env struct {
	cfg   *config.Config
	log   *log.Logger
	users directory.Registry
	store *todo.Store
	close func() error
}

// NewRootCommand creates the root command. The returned env is filled in
// before any subcommand runs.
func NewRootCommand() (*cobra.Command, *env) {
	opts := &Options{}
	e := &env{}

	cmd := &cobra.Command{
		Use:   "todo",
		Short: "todo - per-user to-do lists",
		Long: `Per-user to-do lists kept in each user's flag storage.

Every user owns their own list. Records are addressed by id; run
"todo ls" to see them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd, opts)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.ConfigFile, "config", "", "config file (default ./todo.toml)")
	f.StringVar(&opts.Backend, "backend", "", "storage backend (json|sqlite|memory)")
	f.StringVar(&opts.DataFile, "data-file", "", "JSON data file for the json backend")
	f.StringVar(&opts.Database, "db", "", "SQLite database for the sqlite backend")
	f.StringVar(&opts.Scope, "scope", "", "flag namespace records are stored under")
	f.StringVar(&opts.Theme, "theme", "", "output theme (classic|neon|mono)")
	f.StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	f.StringVar(&opts.LogFormat, "log-format", "", "log format (text|json|logfmt)")
	f.StringVarP(&opts.User, "user", "u", "", "act as this user (default: logged-in user)")

	cmd.AddCommand(
		newUsersCommand(e),
		newLoginCommand(e),
		newLogoutCommand(e),
		newWhoAmICommand(e, opts),
		newListCommand(e),
		newAddCommand(e, opts),
		newDoneCommand(e, true),
		newDoneCommand(e, false),
		newRenameCommand(e),
		newRemoveCommand(e),
		newReplaceCommand(e, opts),
		newExportCommand(e, opts),
		newUICommand(e, opts),
	)
	return cmd, e
}

func (e *env) setup(cmd *cobra.Command, opts *Options) error {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return failf("config: %w", err)
	}
	flags := cmd.Flags()
	override := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	override("backend", &cfg.Backend, opts.Backend)
	override("data-file", &cfg.DataFile, opts.DataFile)
	override("db", &cfg.Database, opts.Database)
	override("scope", &cfg.Scope, opts.Scope)
	override("theme", &cfg.Theme, opts.Theme)
	override("log-level", &cfg.LogLevel, opts.LogLevel)
	override("log-format", &cfg.LogFormat, opts.LogFormat)
	if err := cfg.Validate(); err != nil {
		return usagef("%w", err)
	}

	l, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return usagef("%w", err)
	}
	ui.SetTheme(cfg.Theme)

	users, closeFn, err := openDirectory(cfg)
	if err != nil {
		return failf("open %s backend: %w", cfg.Backend, err)
	}
	l.Debug("backend ready", "backend", cfg.Backend, "scope", cfg.Scope, "config", cfg.Files)

	idLen := cfg.IDLength
	e.cfg = cfg
	e.log = l
	e.users = users
	e.close = closeFn
	e.store = todo.New(users,
		todo.WithScope(cfg.Scope),
		todo.WithLogger(l),
		todo.WithIDGenerator(func() string { return todo.RandomID(idLen) }),
	)
	return nil
}

func openDirectory(cfg *config.Config) (directory.Registry, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case config.BackendSQLite:
		s, err := sqlstore.Open(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendMemory:
		return directory.NewMemory(), noop, nil
	default:
		return jsonstore.Open(cfg.DataFile), noop, nil
	}
}

// Run executes args and returns an exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	cmd, e := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if e.close != nil {
		if cerr := e.close(); cerr != nil && err == nil {
			err = failf("close: %w", cerr)
		}
	}
	if err == nil {
		return ExitOK
	}
	ui.Fail(stderr, err.Error())
	var xe *exitError
	if errors.As(err, &xe) {
		return xe.code
	}
	// cobra's own errors: unknown command, bad args, bad flags
	fmt.Fprintln(stderr, ui.Current().Muted.Render("Run `todo --help` for usage."))
	return ExitUsage
}
