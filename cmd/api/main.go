package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"library-service/cmd/api/app"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "library-service",
		Short:         "Library management service: catalog, members and lending",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(),
		"directory containing app.env (CONFIG_PATH)")

	var migrate bool
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST, gRPC and ops servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, configPath)
			if err != nil {
				return err
			}
			if migrate {
				if err := a.Migrate(); err != nil {
					_ = a.Close()
					return err
				}
			}
			return a.Run(ctx)
		},
	}
	serve.Flags().BoolVar(&migrate, "migrate", false, "migrate the schema before serving")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			return a.Migrate()
		},
	}

	root.AddCommand(serve, migrateCmd)
	return root
}

func defaultConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "."
}
