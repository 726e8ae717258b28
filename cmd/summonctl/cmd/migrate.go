package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Bidon15/summonpredict/internal/config"
	"github.com/Bidon15/summonpredict/internal/database"
	apierrors "github.com/Bidon15/summonpredict/internal/pkg/errors"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the deployment index schema",
		Long: `Apply or roll back the deployment index migrations. Requires
database.enabled in the config file or SUMMON_DATABASE_ENABLED=true.`,
		Args: cobra.NoArgs,
	}
	cmd.AddCommand(newMigrateUpCmd(opts), newMigrateDownCmd(opts))
	return cmd
}

func newMigrateUpCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pg, cfg, err := opts.postgres()
			if err != nil {
				return err
			}
			defer pg.Close()

			if err := pg.RunMigrations(cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}

func newMigrateDownCmd(opts *rootOptions) *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Long: `Roll back the most recent migrations.

Examples:
  summonctl migrate down
  summonctl migrate down --steps 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("invalid --steps %d: must be at least 1", steps)
			}
			pg, cfg, err := opts.postgres()
			if err != nil {
				return err
			}
			defer pg.Close()

			if err := pg.MigrateDown(cfg, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	return cmd
}

// postgres opens the configured database without the rest of the app.
func (o *rootOptions) postgres() (*database.Postgres, config.DatabaseConfig, error) {
	cfg, err := config.Read(o.v)
	if err != nil {
		return nil, config.DatabaseConfig{}, err
	}
	if !cfg.Database.Enabled {
		return nil, cfg.Database, apierrors.ErrServiceUnavailable.WithMessage("database is not enabled")
	}
	pg, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, cfg.Database, err
	}
	return pg, cfg.Database, nil
}
