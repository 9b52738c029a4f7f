package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/pbaille/cfaprep/internal/api"
	"github.com/pbaille/cfaprep/internal/mcpserver"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			if a.cfg.Server.AdminToken == "" {
				a.log.Warn("no admin token configured, admin routes are disabled")
			}

			retriever, err := a.retriever()
			if err != nil {
				return err
			}
			ingester, err := a.ingester()
			if err != nil {
				return err
			}
			qgen, err := a.questionGenerator(retriever)
			if err != nil {
				return err
			}
			bgen, err := a.blogGenerator(retriever)
			if err != nil {
				return err
			}

			srv := api.New(api.Deps{
				Store:        a.store,
				Entitlements: a.billing(),
				Questions:    qgen,
				Blog:         bgen,
				Retriever:    retriever,
				Ingester:     ingester,
				Log:          a.log,
			}, a.cfg.Server, a.cfg.Billing.FreeSampleSize)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address (overrides config)")
	return cmd
}

func mcpCmd() *cobra.Command {
	var (
		transport string
		addr      string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve curriculum search and question generation as MCP tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadAppWithLog(os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			retriever, err := a.retriever()
			if err != nil {
				return err
			}
			qgen, err := a.questionGenerator(retriever)
			if err != nil {
				return err
			}

			srv := mcpserver.New(&mcpserver.Tools{
				Retriever:  retriever,
				Questions:  qgen,
				Curriculum: a.store,
				Log:        a.log,
			})

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			switch transport {
			case "stdio":
				a.log.Info("mcp server starting", "transport", "stdio")
				return srv.Run(ctx, &mcp.StdioTransport{})
			case "http":
				handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
					return srv
				}, nil)
				a.log.Info("mcp server listening", "addr", addr)
				httpSrv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					httpSrv.Close()
				}()
				if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			default:
				return fmt.Errorf("unknown transport: %s (use stdio or http)", transport)
			}
		},
	}

	cmd.Flags().StringVarP(&transport, "transport", "t", "stdio", "transport: stdio or http")
	cmd.Flags().StringVar(&addr, "addr", ":8081", "listen address for the http transport")
	return cmd
}
