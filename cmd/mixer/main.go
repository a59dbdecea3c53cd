package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/honeycarbs/mixer-client/internal/app"
	"github.com/honeycarbs/mixer-client/internal/config"
	"github.com/honeycarbs/mixer-client/internal/console"
	"github.com/honeycarbs/mixer-client/internal/export"
	"github.com/honeycarbs/mixer-client/internal/mcp"
	"github.com/honeycarbs/mixer-client/pkg/graphql"
	"github.com/honeycarbs/mixer-client/pkg/logging"
	"github.com/honeycarbs/mixer-client/pkg/shutdown"
)

var version = "0.1.0"

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP}

func main() {
	if err := rootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var (
		endpoint string
		logLevel string
		a        *app.App
	)

	root := &cobra.Command{
		Use:          "mixer",
		Short:        "Upload audio to the mixer backend and follow its jobs",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if endpoint != "" {
				cfg.GraphQLEndpoint = endpoint
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cmd.ErrOrStderr()})

			a, err = app.InitializeApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize client: %w", err)
			}

			logger.Debug("client initialized", "endpoint", a.GraphQL.Endpoint())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				_ = a.Logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&endpoint, "endpoint", "", "GraphQL endpoint (overrides GRAPHQL_ENDPOINT)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	getApp := func() *app.App { return a }

	root.AddCommand(
		jobsCommand(getApp),
		uploadCommand(getApp),
		shellCommand(getApp),
		mcpCommand(getApp),
	)

	return root
}

func jobsCommand(getApp func() *app.App) *cobra.Command {
	var (
		output string
		sheet  string
		tab    string
	)

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recent jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals...)
			defer stop()

			jobs, err := a.Jobs.List(ctx)
			if graphql.IsCanceled(err) {
				return err
			}

			out := cmd.OutOrStdout()
			if output == "json" && err == nil {
				if err := console.RenderJobsJSON(out, jobs); err != nil {
					return err
				}
			} else if rerr := console.RenderJobs(out, jobs, err); rerr != nil {
				return rerr
			}
			if err != nil {
				return err
			}

			if sheet != "" || cmd.Flags().Changed("tab") {
				res, err := a.Exporter.Export(ctx, export.Params{SpreadsheetID: sheet, Tab: tab}, jobs)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d row(s) to %s/%s\n", res.WrittenRows, res.SpreadsheetID, res.Tab)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table or json")
	cmd.Flags().StringVar(&sheet, "sheet", "", "also export the list to this Google Sheets ID")
	cmd.Flags().StringVar(&tab, "tab", "", "Google Sheets tab to overwrite (default GOOGLE_SHEETS_TAB)")

	return cmd
}

func uploadCommand(getApp func() *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an audio file and print the created job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals...)
			defer stop()

			uploader := console.NewUploader(a.Jobs)
			sel, err := uploader.Select(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", sel.Name, console.FormatFileSize(sel.Size))

			_, err = uploader.Submit(ctx)
			fmt.Fprintln(out, uploader.View().Status)
			return err
		},
	}
}

func shellCommand(getApp func() *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive upload page with the recent jobs list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			uploader := console.NewUploader(a.Jobs)
			go shutdown.Graceful(ctx, shutdownSignals, stopFunc(func(sctx context.Context) error {
				err := uploader.Shutdown(sctx)
				cancel()
				return err
			}), 5*time.Second, a.Logger)

			sh := console.NewShell(a.Jobs, uploader, cmd.InOrStdin(), cmd.OutOrStdout(), a.Logger)
			if err := sh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func mcpCommand(getApp func() *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve list_jobs, upload_audio and export_jobs as MCP tools over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			srv := mcp.NewServer(a.Logger, a.Config, a.Jobs, a.Exporter, version)
			go shutdown.Graceful(ctx, shutdownSignals, srv, 10*time.Second, a.Logger)

			if err := srv.Run(); err != nil {
				a.Logger.Error("MCP server exited with error", "err", err)
				return err
			}
			a.Logger.Info("MCP server stopped")
			return nil
		},
	}
}

// stopFunc adapts a function to shutdown.Stoppable
type stopFunc func(ctx context.Context) error

func (f stopFunc) Shutdown(ctx context.Context) error {
	return f(ctx)
}
