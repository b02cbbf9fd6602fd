package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"stackrank/internal/config"
	"stackrank/internal/ledger"
	"stackrank/internal/livesource"
	"stackrank/internal/rank"
	"stackrank/internal/tui"
)

type App struct {
	PrettyJSON bool
	Format     string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "stackrank",
		Short:        "Pairwise task ranker backed by a persisted ledger",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Rank the configured list interactively
  stackrank

  # Print the current ranking
  stackrank show

  # First-time setup
  stackrank init
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive ranking session.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runRank(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("STACKRANK_FORMAT", "json"), "Output format (json)")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newShowCmd(app))

	return cmd
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func runRank(app *App) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	changed, err := cfg.EnsureLedgerPath()
	if err != nil {
		return err
	}
	if changed {
		if err := config.Save(cfg); err != nil {
			return err
		}
	}

	led := ledger.Ledger{Path: cfg.LedgerPath}
	client := livesource.NewClient(cfg.LiveBaseURL)

	ctx := context.Background()
	list, err := client.FindList(ctx, cfg.TaskList)
	if err != nil {
		return err
	}
	liveRoots, liveChildren, err := client.Snapshot(ctx, list.ID)
	if err != nil {
		return err
	}
	ledgerRoots, ledgerChildren, err := led.ReadFullState()
	if err != nil {
		return err
	}

	res := rank.Reconcile(ledgerRoots, ledgerChildren, liveRoots, liveChildren)
	logger, closeLog := sessionLogger()
	defer closeLog()

	orch := rank.NewOrchestrator(res, led, client, logger)
	categories, err := led.ReadCategories()
	if err != nil {
		return err
	}
	if err := tui.Run(orch, cfg.TaskList, categories); err != nil {
		return err
	}
	if w := orch.LastWarning(); w != "" {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	return nil
}

// sessionLogger logs to a file under the config dir. Stderr belongs to
// the TUI while a session runs.
func sessionLogger() (*slog.Logger, func()) {
	dir, err := config.Dir()
	if err != nil {
		return nil, func() {}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, "stackrank.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, func() {}
	}
	logger := slog.New(slog.NewTextHandler(io.Writer(f), nil))
	return logger, func() { _ = f.Close() }
}
