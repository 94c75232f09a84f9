// Package cli wires configuration, logging and storage behind the worktimer
// command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sadopc/worktimer/internal/config"
	"github.com/sadopc/worktimer/internal/logging"
	"github.com/sadopc/worktimer/internal/store"
	"github.com/sadopc/worktimer/internal/tui"
)

// App holds what the commands share. Fields left nil are built from flags,
// the environment and the config file before a command runs.
type App struct {
	Config *config.Config
	Store  store.Store
	Logger *slog.Logger
	Now    func() time.Time

	IsInteractive func() bool

	configPath string
	closers    []io.Closer
}

// Execute runs the worktimer command line.
func Execute() error {
	app := &App{
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}
	defer app.Close()
	return NewRootCmd(app).Execute()
}

// NewRootCmd creates the top-level "worktimer" command. Run without a
// subcommand it starts the terminal UI.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "worktimer",
		Short:         "Stopwatch that records work periods into monthly tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runTUI()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&app.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	pf.String("dir", "", "directory holding the month tables")
	pf.String("backend", "", fmt.Sprintf("storage backend %v", store.Backends))
	pf.Bool("by-year", false, "name tables by year and month (2026-06) instead of month only")
	pf.String("log-file", "", "log file path")
	pf.String("log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newTotalCmd(app),
		newMonthsCmd(app),
	)
	return root
}

func (app *App) now() time.Time {
	if app.Now != nil {
		return app.Now()
	}
	return time.Now()
}

func (app *App) setup(cmd *cobra.Command) error {
	if app.Config == nil {
		_ = godotenv.Load()
		cfg, err := config.Load(app.configPath)
		if err != nil {
			return err
		}
		if err := applyFlags(cfg, cmd.Flags()); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		app.Config = cfg
	}

	if app.Logger == nil {
		level, _ := logging.ParseLevel(app.Config.LogLevel)
		logger, closer, err := logging.Open(app.Config.LogFile, level)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; logging disabled\n", err)
		}
		app.closers = append(app.closers, closer)
		app.Logger = logger
	}

	if app.Store == nil {
		opts := app.Config.StoreOptions()
		opts.Logger = app.Logger
		s, err := store.Open(cmd.Context(), opts)
		if err != nil {
			return err
		}
		app.closers = append([]io.Closer{s}, app.closers...)
		app.Store = s
	}

	app.Logger.With("component", logging.ComponentCLI).Debug("command started", "command", cmd.Name(), "backend", app.Config.Backend)
	return nil
}

// applyFlags overrides cfg with the flags set on the command line.
func applyFlags(cfg *config.Config, fs *pflag.FlagSet) error {
	var err error
	if fs.Changed("dir") {
		cfg.Dir, err = fs.GetString("dir")
		if err != nil {
			return err
		}
	}
	if fs.Changed("backend") {
		cfg.Backend, err = fs.GetString("backend")
		if err != nil {
			return err
		}
	}
	if fs.Changed("by-year") {
		cfg.KeyByYear, err = fs.GetBool("by-year")
		if err != nil {
			return err
		}
	}
	if fs.Changed("log-file") {
		cfg.LogFile, err = fs.GetString("log-file")
		if err != nil {
			return err
		}
	}
	if fs.Changed("log-level") {
		cfg.LogLevel, err = fs.GetString("log-level")
		if err != nil {
			return err
		}
	}
	return nil
}

func (app *App) runTUI() error {
	if app.IsInteractive != nil && !app.IsInteractive() {
		return errors.New("the timer needs an interactive terminal; use 'worktimer total' or 'worktimer months' in scripts")
	}

	m := tui.NewApp(app.Store, tui.Options{
		KeyByYear:        app.Config.KeyByYear,
		DateLayout:       app.Config.DateLayout,
		DecimalSeparator: app.Config.DecimalSeparator,
		TickInterval:     app.Config.TickInterval,
		Now:              app.Now,
		Logger:           app.Logger,
	})
	app.Logger.Info("ui started", "backend", app.Config.Backend, "dir", app.Config.Dir)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	app.Logger.Info("ui stopped")
	return nil
}

// Close releases the store and the log file.
func (app *App) Close() error {
	var errs []error
	for _, c := range app.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}
