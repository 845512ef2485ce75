package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/dmitrijs2005/recordkeeper/internal/config"
	"github.com/dmitrijs2005/recordkeeper/internal/logging"
	"github.com/dmitrijs2005/recordkeeper/internal/models"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags and the application built from them.
type RootOptions struct {
	ConfigFile  string
	AskPassword bool

	// flags holds values bound to persistent flags; only flags set on the
	// command line are copied over the loaded configuration.
	flags  config.Config
	lookup config.LookupFunc
	app    *App
}

// NewRootCommand creates the root command of the recordkeeper CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(os.LookupEnv)
}

func newRootCommand(lookup config.LookupFunc) *cobra.Command {
	opts := &RootOptions{lookup: lookup}
	opts.flags.LoadDefaults()

	cmd := &cobra.Command{
		Use:   "recordkeeper",
		Short: "Fleet, purchase, anomaly and credential records with PostgreSQL and SQLite fallback",
		Long: `recordkeeper keeps four record collections in PostgreSQL and mirrors every
save to an embedded SQLite file, so work continues when the server is down.
Every change is written to an audit trail and deletions go to a trash that
can be restored or purged.`,
		SilenceUsage: true,
	}

	fs := cmd.PersistentFlags()
	fs.StringVarP(&opts.ConfigFile, "config", "c", "", "config file (JSON, or YAML by extension)")
	fs.BoolVar(&opts.AskPassword, "ask-password", false, "prompt for the PostgreSQL password")
	bindConfigFlags(fs, &opts.flags)

	cmd.AddCommand(
		newInitCommand(opts),
		newLoadCommand(opts),
		newSaveCommand(opts),
		newRecordCommand(opts),
		newTrashCommand(opts),
		newAuditCommand(opts),
		newStatsCommand(opts),
		newHealthCommand(opts),
		newShellCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

// App loads configuration and builds the application on first use.
func (o *RootOptions) App(cmd *cobra.Command) (*App, error) {
	if o.app != nil {
		return o.app, nil
	}

	cfg, err := config.Load(o.ConfigFile, o.lookup)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd.Flags(), cfg, &o.flags)
	if o.AskPassword {
		if cfg.PGPassword, err = GetPassword(cmd.ErrOrStderr()); err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	o.app = NewApp(cmd.Context(), cfg, log, cmd.InOrStdin(), cmd.OutOrStdout())
	return o.app, nil
}

// run adapts an App method to cobra's RunE. The command is timed and
// metrics are flushed whether or not it succeeds.
func (o *RootOptions) run(name string, fn func(ctx context.Context, a *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		a, err := o.App(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		defer func() {
			if cerr := a.Close(ctx); cerr != nil && err == nil {
				err = cerr
			}
		}()
		defer a.metrics.ObserveCommand(name, time.Now())
		return fn(ctx, a, args)
	}
}

func newInitCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the schema in both stores and record a startup entry",
		Args:  cobra.NoArgs,
		RunE: opts.run("init", func(ctx context.Context, a *App, _ []string) error {
			return a.Init(ctx)
		}),
	}
}

func newLoadCommand(opts *RootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Read and merge both stores",
		Args:  cobra.NoArgs,
		RunE: opts.run("load", func(ctx context.Context, a *App, _ []string) error {
			return a.Load(ctx, output)
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the merged snapshot to this JSON file")
	return cmd
}

func newSaveCommand(opts *RootOptions) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Replace the stored snapshot with a JSON file",
		Args:  cobra.NoArgs,
		RunE: opts.run("save", func(ctx context.Context, a *App, _ []string) error {
			return a.Import(ctx, input)
		}),
	}
	cmd.Flags().StringVarP(&input, "file", "f", "", "snapshot JSON file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newRecordCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "List, add, change and delete entities",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list <kind>",
			Short: "List the entities of a kind",
			Args:  cobra.ExactArgs(1),
			RunE: opts.run("record list", func(ctx context.Context, a *App, args []string) error {
				kind, err := models.ParseKind(args[0])
				if err != nil {
					return err
				}
				return a.List(ctx, kind)
			}),
		},
		&cobra.Command{
			Use:   "add <kind> name=value...",
			Short: "Add an entity",
			Args:  cobra.MinimumNArgs(2),
			RunE: opts.run("record add", func(ctx context.Context, a *App, args []string) error {
				kind, err := models.ParseKind(args[0])
				if err != nil {
					return err
				}
				return a.Add(ctx, kind, args[1:])
			}),
		},
		&cobra.Command{
			Use:   "set <kind> <key> name=value...",
			Short: "Change fields of an entity",
			Args:  cobra.MinimumNArgs(3),
			RunE: opts.run("record set", func(ctx context.Context, a *App, args []string) error {
				kind, err := models.ParseKind(args[0])
				if err != nil {
					return err
				}
				return a.Update(ctx, kind, args[1], args[2:])
			}),
		},
		&cobra.Command{
			Use:   "delete <kind> <key>",
			Short: "Move an entity to the trash",
			Args:  cobra.ExactArgs(2),
			RunE: opts.run("record delete", func(ctx context.Context, a *App, args []string) error {
				kind, err := models.ParseKind(args[0])
				if err != nil {
					return err
				}
				return a.Delete(ctx, kind, args[1])
			}),
		},
	)
	return cmd
}

func newTrashCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trash",
		Short: "Inspect, restore or purge deleted entities",
		Args:  cobra.NoArgs,
		RunE: opts.run("trash list", func(ctx context.Context, a *App, _ []string) error {
			return a.TrashList(ctx)
		}),
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "restore <id>",
			Short: "Put a trashed entity back in its collection",
			Args:  cobra.ExactArgs(1),
			RunE: opts.run("trash restore", func(ctx context.Context, a *App, args []string) error {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid trash id %q: %w", args[0], err)
				}
				return a.Restore(ctx, id)
			}),
		},
		&cobra.Command{
			Use:   "purge",
			Short: "Delete everything in the trash",
			Args:  cobra.NoArgs,
			RunE: opts.run("trash purge", func(ctx context.Context, a *App, _ []string) error {
				return a.Purge(ctx)
			}),
		},
	)
	return cmd
}

func newAuditCommand(opts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the most recent audit entries",
		Args:  cobra.NoArgs,
		RunE: opts.run("audit tail", func(ctx context.Context, a *App, _ []string) error {
			return a.AuditTail(ctx, limit)
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Write today's audit export file",
		Args:  cobra.NoArgs,
		RunE: opts.run("audit export", func(ctx context.Context, a *App, _ []string) error {
			return a.AuditExport(ctx)
		}),
	})
	return cmd
}

func newStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show entity counts and store statistics",
		Args:  cobra.NoArgs,
		RunE: opts.run("stats", func(ctx context.Context, a *App, _ []string) error {
			return a.Stats(ctx)
		}),
	}
}

func newHealthCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check whether the stores are reachable",
		Args:  cobra.NoArgs,
		RunE: opts.run("health", func(ctx context.Context, a *App, _ []string) error {
			return a.Health(ctx)
		}),
	}
}

func newShellCommand(opts *RootOptions) *cobra.Command {
	var every time.Duration
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		PreRunE: func(*cobra.Command, []string) error {
			if every <= 0 {
				return fmt.Errorf("--check-interval must be positive, got %s", every)
			}
			return nil
		},
		RunE: opts.run("shell", func(ctx context.Context, a *App, _ []string) error {
			if err := a.Init(ctx); err != nil {
				return err
			}
			a.Shell(ctx, every)
			return nil
		}),
	}
	cmd.Flags().DurationVar(&every, "check-interval", 30*time.Second, "how often to probe the primary store")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildVersion())
		},
	}
}

func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "recordkeeper (unknown version)"
	}
	v := info.Main.Version
	if v == "" {
		v = "(devel)"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			v += " " + s.Value[:7]
		}
	}
	return fmt.Sprintf("recordkeeper %s %s", v, info.GoVersion)
}
