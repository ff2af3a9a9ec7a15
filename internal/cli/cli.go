// Package cli implements the routeframe command line tool.
//
//	routeframe routes FILE [--format table|csv|json]
//	routeframe dict FILE
//	routeframe save FILE DEST [--atomic]
//	routeframe serve [-c config.yaml]
//	routeframe version
//
// FILE is an engine solution document; "-" reads standard input.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"routeframe/internal/api"
	"routeframe/internal/buildinfo"
	"routeframe/internal/config"
	"routeframe/internal/engine"
	"routeframe/internal/logging"
	"routeframe/internal/solution"
)

func BuildCLI() *cobra.Command {
	root := &cobra.Command{
		Use:           "routeframe",
		Short:         "Inspect and serve vehicle routing solutions",
		Version:       buildinfo.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(buildRoutesCommand())
	root.AddCommand(buildDictCommand())
	root.AddCommand(buildSaveCommand())
	root.AddCommand(buildServeCommand())
	root.AddCommand(buildVersionCommand())
	return root
}

func buildRoutesCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "routes FILE",
		Short: "Print the per-step routes table of a solution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sol, err := loadSolution(cmd, args[0])
			if err != nil {
				return err
			}
			frame, err := sol.Routes()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format {
			case "table":
				return writeTable(out, frame)
			case "csv":
				return frame.WriteCSV(out)
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(frame)
			default:
				return fmt.Errorf("unknown format %q (want table, csv or json)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "output format: table, csv or json")
	return cmd
}

func buildDictCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dict FILE",
		Short: "Print the structured view of a solution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sol, err := loadSolution(cmd, args[0])
			if err != nil {
				return err
			}
			dict, err := sol.ToDict()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(dict)
		},
	}
}

func buildSaveCommand() *cobra.Command {
	var atomic bool
	cmd := &cobra.Command{
		Use:   "save FILE DEST",
		Short: "Write the canonical JSON of a solution to DEST",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sol, err := loadSolution(cmd, args[0])
			if err != nil {
				return err
			}
			save := sol.SaveJSON
			if atomic {
				save = sol.SaveJSONAtomic
			}
			if err := save(args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", args[1])
			return nil
		},
	}
	cmd.Flags().BoolVar(&atomic, "atomic", false, "write through a temporary file and rename")
	return cmd
}

func buildServeCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger := logging.NewStructuredLogger(cmd.ErrOrStderr(), logging.ParseLevel(cfg.Log.Level))
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ln, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				return err
			}
			return Serve(ctx, cfg, logger, ln)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	return cmd
}

func buildVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "routeframe "+buildinfo.String())
		},
	}
}

// Serve runs the HTTP service on ln until ctx is cancelled, then drains
// in-flight requests within the configured shutdown timeout.
func Serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, ln net.Listener) error {
	srvDeps := api.NewServer(cfg, logger)
	defer logging.SafeCloseWithLogging(srvDeps, logger, "close_broker")

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()
	if cfg.Webhook.URL != "" {
		go srvDeps.NewWebhookWorker().Run(workerCtx)
	}

	srv := &http.Server{
		Handler:           srvDeps.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	logger.Info("api listening", slog.String("addr", ln.Addr().String()), slog.String("version", buildinfo.Version))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func loadSolution(cmd *cobra.Command, path string) (*solution.Solution, error) {
	var (
		res *engine.Result
		err error
	)
	if path == "-" {
		res, err = engine.Decode(cmd.InOrStdin())
	} else {
		res, err = engine.Load(path)
	}
	if err != nil {
		return nil, err
	}
	return solution.New(res), nil
}

// writeTable renders the frame with aligned columns; missing cells print as
// "-".
func writeTable(w io.Writer, f *solution.Frame) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	names := f.Names()
	fmt.Fprintln(tw, strings.Join(names, "\t"))
	cells := make([]string, len(names))
	for i := 0; i < f.Len(); i++ {
		row := f.Row(i)
		for j, name := range names {
			v := row[name]
			if v == nil {
				cells[j] = "-"
			} else {
				cells[j] = fmt.Sprint(v)
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
