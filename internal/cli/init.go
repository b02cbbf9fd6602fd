package cli

import (
	"github.com/spf13/cobra"

	"stackrank/internal/config"
	"stackrank/internal/format"
	"stackrank/internal/ledger"
)

func newInitCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config and create the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				if _, missing := err.(*config.NotInitializedError); !missing {
					return err
				}
				cfg = config.Default()
			} else if force {
				cfg = config.Default()
			}

			if _, err := cfg.EnsureLedgerPath(); err != nil {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return err
			}

			led := ledger.Ledger{Path: cfg.LedgerPath}
			if err := led.SeedCategories(cfg.CategoriesSeed); err != nil {
				return err
			}

			path, err := config.Path()
			if err != nil {
				return err
			}
			return format.Write(cmd.OutOrStdout(), map[string]string{
				"config": path,
				"ledger": cfg.LedgerPath,
			}, app.Format, app.PrettyJSON)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reset an existing config to defaults")
	return cmd
}
