package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/flotiq/flotiq-setup/internal/auth"
	"github.com/flotiq/flotiq-setup/internal/config"
	"github.com/flotiq/flotiq-setup/internal/console"
	"github.com/flotiq/flotiq-setup/internal/logger"
	"github.com/flotiq/flotiq-setup/internal/server"
	"github.com/flotiq/flotiq-setup/internal/setup"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// errReported marks failures that were already shown to the user
var errReported = errors.New("setup failed")

func main() {
	Execute()
}

var configFile string

// rootCmd runs the setup flow
var rootCmd = &cobra.Command{
	Use:   "flotiq-setup",
	Short: "Connect the project with Flotiq",
	Long: `Use flotiq-setup to authenticate your local project with Flotiq API keys.

The command opens the Flotiq login page in your browser, waits for the redirect
on a local port and stores the received keys in your .env files.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSetup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, errReported) {
			pterm.Error.Println(err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a flotiq-setup.yaml config file")
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
	config.InitFlags(rootCmd.Flags())

	rootCmd.AddCommand(configCmd, versionCmd)
}

// newApp assembles the setup dependencies for cfg
func newApp(cfg *config.Config, populate ...interface{}) *fx.App {
	return fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		config.Module,
		logger.Module,
		console.Module,
		auth.Module,
		server.Module,
		setup.Module,
		fx.Populate(populate...),
	)
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags(), configFile)
	if err != nil {
		return err
	}

	var (
		runner   *setup.Runner
		reporter console.Reporter
	)
	app := newApp(cfg, &runner, &reporter)
	if err := app.Err(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	if _, err := runner.Run(ctx); err != nil {
		logger.Error("Setup failed", zap.Error(err), zap.Stringer("kind", auth.KindOf(err)))
		reporter.Error("%s", failureMessage(err))
		return errReported
	}
	return nil
}

// failureMessage maps a setup error to the text shown to the user
func failureMessage(err error) string {
	if auth.KindOf(err) == auth.KindUnknown && !errors.Is(err, context.Canceled) {
		return "A system error occurred: " + err.Error()
	}
	return auth.Message(err)
}
