package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"basegraph.app/issuesearch/common/id"
	"basegraph.app/issuesearch/common/logger"
	"basegraph.app/issuesearch/common/otel"
	"basegraph.app/issuesearch/core/config"
	"basegraph.app/issuesearch/internal/authz"
)

const appName = "issuesearch"

var (
	flagUser   string
	flagGroups []string
	flagRoot   bool
	flagPretty bool
)

// current is the application of the running command, set up before any
// subcommand runs.
var current *app

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Search and aggregate indexed code issues",
	Long: "Search and aggregate indexed code issues.\n\n" +
		"Issues are served from Typesense, or from the JSON fixture named by\n" +
		"SEARCH_FIXTURE_PATH. Permissions come from Postgres when DATABASE_URL is\n" +
		"set and portfolio members from Redis when REDIS_URL is set.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return bootstrap(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if current == nil {
			return nil
		}
		return current.Close(cmd.Context())
	},
}

func main() {
	rootCmd.AddCommand(searchCmd, tagsCmd, authorsCmd, countTagsCmd, branchesCmd, securityReportCmd)

	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "uuid of the calling user (anonymous when empty)")
	rootCmd.PersistentFlags().StringSliceVar(&flagGroups, "groups", nil, "group uuids of the calling user")
	rootCmd.PersistentFlags().BoolVar(&flagRoot, "root", false, "search as an administrator that sees every project")
	rootCmd.PersistentFlags().BoolVar(&flagPretty, "pretty", false, "indent JSON output")

	registerSearchFlags()
	registerListFlags()
	registerReportFlags()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		if current != nil {
			_ = current.Close(context.Background())
		}
		os.Exit(1)
	}
}

func bootstrap(ctx context.Context) error {
	cfg, err := config.Load(config.ServiceTypeCLI)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing otel: %w", err)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.DebugContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	}

	if err := id.Init(cfg.NodeID); err != nil {
		return fmt.Errorf("initializing snowflake id generator: %w", err)
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		_ = telemetry.Shutdown(ctx)
		return err
	}
	a.telemetry = telemetry
	current = a
	return nil
}

func identity() authz.Identity {
	groups := make([]string, 0, len(flagGroups))
	for _, g := range flagGroups {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return authz.Identity{UserUUID: flagUser, GroupUUIDs: groups, Root: flagRoot}
}
