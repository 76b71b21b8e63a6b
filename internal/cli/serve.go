package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"seo-analytics-mcp/internal/server"
	"seo-analytics-mcp/pkg/config"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var httpMode bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `Run the MCP server on stdio (the default) or, with --http, as an HTTP
endpoint at /mcp. HTTP callers may pass their own platform API key as
"Authorization: Bearer <key>".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := a.newServer(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, srv, httpMode, a.cfg.Server.HTTPAddr, cmd)
		},
	}

	cmd.Flags().BoolVar(&httpMode, "http", false, "serve HTTP instead of stdio")
	cmd.Flags().String("addr", config.DefaultHTTPAddr, "HTTP listen address")
	_ = a.v.BindPFlag(config.KeyServerHTTPAddr, cmd.Flags().Lookup("addr"))
	return cmd
}

// runServer runs the chosen transport and shuts the server down once the
// transport returns or ctx is cancelled
func runServer(ctx context.Context, srv *server.MCPServer, httpMode bool, addr string, cmd *cobra.Command) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		if httpMode {
			return srv.ListenAndServe(gctx, addr)
		}
		return srv.ServeStdio(gctx, cmd.InOrStdin(), cmd.OutOrStdout())
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
