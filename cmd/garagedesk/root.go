package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/garagedesk/internal/audit"
	"github.com/smallbiznis/garagedesk/internal/billingoverview"
	"github.com/smallbiznis/garagedesk/internal/billingsetting"
	"github.com/smallbiznis/garagedesk/internal/clock"
	"github.com/smallbiznis/garagedesk/internal/config"
	"github.com/smallbiznis/garagedesk/internal/customer"
	"github.com/smallbiznis/garagedesk/internal/invoice"
	"github.com/smallbiznis/garagedesk/internal/observability"
	"github.com/smallbiznis/garagedesk/internal/payment"
	"github.com/smallbiznis/garagedesk/internal/providers/pdf"
	"github.com/smallbiznis/garagedesk/internal/ratelimit"
	"github.com/smallbiznis/garagedesk/internal/servicerecord"
	"github.com/smallbiznis/garagedesk/internal/statement"
	"github.com/smallbiznis/garagedesk/internal/technician"
	"github.com/smallbiznis/garagedesk/internal/vehicle"
	"github.com/smallbiznis/garagedesk/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var version = "0.1.0"

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "garagedesk",
		Short: "Garage back office: services, invoices and payments",
		Long: `garagedesk keeps customers, vehicles and service work for a garage,
derives invoices from completed services and reconciles payments against them.

Configuration is read from the environment and an optional .env file.
Billing fallbacks live in billing.yml (see BILLING_CONFIG_PATH).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().Int64("node", 1, "snowflake node id for this instance (0-1023)")

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newSweepOverdueCommand(),
	)
	return root
}

// coreModules wires configuration, logging, tracing, metrics, the
// database handle and the id generator.
func coreModules(cmd *cobra.Command) fx.Option {
	nodeID, _ := cmd.Flags().GetInt64("node")
	return fx.Options(
		config.Module,
		observability.Module,
		fx.Provide(func() (*snowflake.Node, error) {
			return snowflake.NewNode(nodeID)
		}),
		db.Module,
		clock.Module,
	)
}

func domainModules() fx.Option {
	return fx.Options(
		audit.Module,
		billingsetting.Module,
		customer.Module,
		vehicle.Module,
		technician.Module,
		servicerecord.Module,
		invoice.Module,
		payment.Module,
		statement.Module,
		billingoverview.Module,
		pdf.Module,
		ratelimit.Module,
	)
}
