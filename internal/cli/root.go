package cli

import (
	"context"
	"fmt"
	"os"

	"fxengine/internal/app"
	"fxengine/internal/config"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	appCfg   *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:           "fxengine",
	Short:         "FX rate cache, backfill and lookup engine",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appCfg != nil {
			return nil
		}

		cfg, err := config.Init(cfgFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}

		app.SetupLogger(cfg.Logging)
		appCfg = cfg
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

// Execute runs the root command. Without a subcommand the engine serves HTTP.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level defined in config")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(volatilityCmd)
	rootCmd.AddCommand(migrateCmd)
}

// withApp builds the engine for one command and releases it afterwards.
func withApp(ctx context.Context, run func(ctx context.Context, a *app.App) error) error {
	if appCfg == nil {
		panic("configuration not loaded; PersistentPreRunE not executed")
	}
	a, err := app.New(ctx, appCfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return run(ctx, a)
}
