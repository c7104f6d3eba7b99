package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/scbrown/shelf/internal/logging"
	"github.com/scbrown/shelf/internal/metrics"
	"github.com/scbrown/shelf/internal/server"
	"github.com/scbrown/shelf/internal/store"
	"github.com/spf13/cobra"
)

var (
	serveAddr      string
	serveNoMetrics bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an HTTP server answering recommendation requests",
	Long: `Start an HTTP server that loads the catalog once and answers
recommendation requests over a JSON API at /api/v1/.

Endpoints:
  GET  /api/v1/health
  GET  /api/v1/products?limit=N
  GET  /api/v1/products/trending?top=N
  GET  /api/v1/recommendations?q=TERM&top=N
  POST /api/v1/recommendations   (form field "prod", or JSON {"query","top"})
  GET  /api/v1/stats
  GET  /metrics                  (Prometheus, unless --no-metrics)

Use shelf config to set store_mode=remote and remote_url to point other shelf
instances at this server instead of a local database.`,
	Example: `  # Serve the local database on the default port
  shelf serve

  # Serve a CSV catalog on a custom address
  shelf serve --catalog clean_data.csv --addr localhost:9090`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, s, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		if s != nil {
			defer s.Close()
		}

		opts := server.Options{}
		if !serveNoMetrics {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			opts.Metrics = metrics.New(reg)
			opts.Gatherer = reg
		}
		// Only a local database describes the catalog being served.
		if _, ok := s.(*store.SQLiteStore); ok {
			opts.Store = s
		}

		srv := server.New(newRecommender(c, opts.Metrics), opts)

		addr := serveAddr
		if !cmd.Flags().Changed("addr") {
			addr = settings.Addr()
		}
		// Listen first so we can report the actual address.
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "shelf serve listening on %s (%s products)\n",
			ln.Addr(), humanize.Comma(int64(c.Len())))
		logging.Ctx(cmd.Context()).Info().Str("addr", ln.Addr().String()).Int("products", c.Len()).Msg("server started")

		// Graceful shutdown on SIGINT/SIGTERM.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Serve(ln)
		}()

		select {
		case <-ctx.Done():
			fmt.Fprintln(cmd.ErrOrStderr(), "shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "address to listen on (host:port, default listen_addr or :7480)")
	serveCmd.Flags().BoolVar(&serveNoMetrics, "no-metrics", false, "do not expose /metrics")
	rootCmd.AddCommand(serveCmd)
}
