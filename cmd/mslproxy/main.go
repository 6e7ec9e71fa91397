package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"msl/internal/app"
	"msl/internal/logging"
	"msl/internal/proxy"
)

const shutdownGrace = 5 * time.Second

func main() {
	var (
		cfg      app.Config
		listen   string
		logLevel string
		verbose  bool
	)
	root := &cobra.Command{
		Use:          "mslproxy",
		Short:        "Serve MSL manifests and licenses to a local player",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(logLevel)
			if verbose {
				logging.Debug(true)
			}
			cfg.ApplyEnv(os.Getenv)

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			cfg.Registerer = reg

			w, err := app.NewWire(cfg)
			if err != nil {
				return err
			}
			defer w.Close()

			fp, err := w.Fingerprint()
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:              listen,
				Handler:           proxy.New(w.Playback, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(cmd.Context(), srv, fp)
		},
	}
	cfg.BindFlags(root.Flags())
	root.Flags().StringVar(&listen, "listen", "127.0.0.1:8080", "listen address")
	root.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "shorthand for --log-level=debug")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context, srv *http.Server, fingerprint string) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logging.Log.WithField("addr", srv.Addr).WithField("fingerprint", fingerprint).Info("mslproxy: listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logging.Log.Info("mslproxy: shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
