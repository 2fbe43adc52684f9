package main

import (
	"context"
	"time"

	"github.com/smallbiznis/garagedesk/internal/migration"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

const commandTimeout = 2 * time.Minute

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				coreModules(cmd),
				migration.Module,
			)
			return runOnce(cmd.Context(), app)
		},
	}
}

// runOnce starts the app, which runs its invokes, and stops it again.
func runOnce(parent context.Context, app *fx.App) error {
	if parent == nil {
		parent = context.Background()
	}
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(parent, commandTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	return app.Stop(stopCtx)
}
