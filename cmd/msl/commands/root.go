package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"msl/internal/app"
	"msl/internal/logging"
)

var (
	cfg      app.Config
	logLevel string
	verbose  bool
	wire     *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:          "msl",
		Short:        "MSL session client for manifests and licenses",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(logLevel)
			if verbose {
				logging.Debug(true)
			}
			cfg.ApplyEnv(os.Getenv)
			cfg.Interactive = true

			w, err := app.NewWire(cfg)
			if err != nil {
				return err
			}
			wire = w
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if wire == nil {
				return nil
			}
			return wire.Close()
		},
	}

	cfg.BindFlags(root.PersistentFlags())
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "shorthand for --log-level=debug")

	root.AddCommand(handshakeCmd(), manifestCmd(), licenseCmd(), fingerprintCmd(), statusCmd(), resetCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return root.ExecuteContext(ctx)
}
