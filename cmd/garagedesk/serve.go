package main

import (
	"github.com/smallbiznis/garagedesk/internal/migration"
	"github.com/smallbiznis/garagedesk/internal/scheduler"
	"github.com/smallbiznis/garagedesk/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate the schema, then run the HTTP API and the overdue scheduler",
		Example: `  # Run against a local SQLite file
  DATABASE_TYPE=sqlite DATABASE_PATH=garage.db garagedesk serve

  # Disable the background sweep
  SCHEDULER_ENABLED=false garagedesk serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				coreModules(cmd),
				migration.Module,
				domainModules(),
				server.Module,
				scheduler.Module,
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}
