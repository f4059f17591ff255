package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"vscan/internal/bootstrap"
	enginedto "vscan/internal/modules/engine/dto"
	"vscan/internal/platform/config"
	"vscan/internal/platform/logging"
	"vscan/internal/platform/metrics"
)

const shutdownTimeout = 5 * time.Second

type globalFlags struct {
	home     string
	source   string
	decoder  string
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	home, _ := os.UserHomeDir()

	root := &cobra.Command{
		Use:           "vscan",
		Short:         "Scan barcodes from a live video source",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.home, "home", home, "directory holding .vscan state")
	root.PersistentFlags().StringVar(&flags.source, "source", "", "video source: camera:<n>, dir:<path>, file:<path> or a URL")
	root.PersistentFlags().StringVar(&flags.decoder, "decoder", "", "decoder name (default builtin)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "trace|debug|info|warn|error")

	root.AddCommand(newScanCmd(flags))
	root.AddCommand(newInspectCmd(flags))
	root.AddCommand(newDecoderCmd(flags))
	root.AddCommand(newHistoryCmd(flags))
	root.AddCommand(newTUICmd(flags))
	return root
}

func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg, err := config.New(flags.home, flags.source, flags.decoder)
	if err != nil {
		return config.Config{}, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	return cfg, nil
}

func loadApp(flags *globalFlags, logOutput io.Writer, exporter *metrics.Exporter) (*bootstrap.App, config.Config, hclog.Logger, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	logger := logging.New("vscan", cfg.LogLevel, logOutput)
	var app *bootstrap.App
	if exporter != nil {
		app, err = bootstrap.New(cfg, logger, exporter.Registry())
	} else {
		app, err = bootstrap.New(cfg, logger, nil)
	}
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	return app, cfg, logger, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func closeApp(app *bootstrap.App, logger hclog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Close(ctx); err != nil {
		logger.Warn("shutdown incomplete", "error", err)
	}
}

func newScanCmd(flags *globalFlags) *cobra.Command {
	var formats []string
	var metricsAddr string
	var asJSON, once bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Start the stream and print detected symbols until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var exporter *metrics.Exporter
			if metricsAddr != "" {
				exporter = metrics.NewExporter(metricsAddr)
			}
			app, cfg, logger, err := loadApp(flags, cmd.ErrOrStderr(), exporter)
			if err != nil {
				return err
			}
			defer closeApp(app, logger)

			ctx, stop := signalContext()
			defer stop()
			group, ctx := errgroup.WithContext(ctx)

			events := app.EngineCLI.Events(ctx, 64)
			out, err := app.EngineCLI.Start(ctx, cfg.Decoder, formats)
			if err != nil {
				return err
			}
			logger.Info("stream started", "stream", out.Stream.StreamID, "phase", out.Stream.Phase, "decoder", out.Decoder)

			group.Go(func() error { return app.EngineCLI.Follow(ctx) })
			if exporter != nil {
				group.Go(func() error { return exporter.Serve(ctx) })
			}
			group.Go(func() error {
				return printEvents(ctx, cmd.OutOrStdout(), events, asJSON, once, stop)
			})
			return group.Wait()
		},
	}
	cmd.Flags().StringSliceVar(&formats, "formats", nil, "formats the decoder must support")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print detections as JSON lines")
	cmd.Flags().BoolVar(&once, "once", false, "exit after the first detection")
	return cmd
}

func printEvents(ctx context.Context, w io.Writer, events <-chan enginedto.Event, asJSON, once bool, stop func()) error {
	enc := json.NewEncoder(w)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev.Kind {
			case enginedto.EventDetect:
			case enginedto.EventScanClose:
				stop()
				return nil
			default:
				continue
			}
			for _, item := range ev.Items {
				if !item.New {
					continue
				}
				if asJSON {
					if err := enc.Encode(item); err != nil {
						return err
					}
					continue
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\n", item.Format, item.Text)
			}
			if once {
				stop()
				return nil
			}
		}
	}
}

func newInspectCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Open the stream and print track capabilities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, _, logger, err := loadApp(flags, cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}
			defer closeApp(app, logger)

			ctx, stop := signalContext()
			defer stop()
			stream, err := app.MediaCLI.Start(ctx)
			if err != nil {
				return err
			}
			out, err := app.MediaCLI.Inspect(ctx)
			if err != nil {
				return err
			}
			if err := app.MediaCLI.Stop(ctx); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"stream":     stream.StreamID,
				"tracks":     stream.Tracks,
				"inspection": out.Inspection,
			})
		},
	}
}

func newDecoderCmd(flags *globalFlags) *cobra.Command {
	decoder := &cobra.Command{Use: "decoder", Short: "Decoder operations"}
	decoder.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured decoders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, _, logger, err := loadApp(flags, cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}
			defer closeApp(app, logger)
			decoders, err := app.DecoderCLI.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, d := range decoders {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s@%s enabled=%t formats=%s", d.Name, d.Version, d.Enabled, strings.Join(d.Formats, ","))
				if d.Binary != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), " binary=%s", d.Binary)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	})

	decoder.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Validate decoder checksums, lifecycle and formats",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, _, logger, err := loadApp(flags, cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}
			defer closeApp(app, logger)
			results, err := app.DecoderCLI.Doctor(cmd.Context())
			if err != nil {
				return err
			}
			for _, r := range results {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s checksum=%t binary=%t lifecycle=%t", r.Name, r.ChecksumValid, r.BinaryReachable, r.LifecycleOK)
				if r.Error != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), " error=%q", r.Error)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	})
	return decoder
}

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently detected symbols",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, _, logger, err := loadApp(flags, cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}
			defer closeApp(app, logger)
			items, err := app.ScanCLI.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no detections")
				return nil
			}
			for _, it := range items {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", it.SeenAt.Format(time.RFC3339), it.Format, it.Text, it.SessionID)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries")
	return cmd
}

func newTUICmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the vscan terminal monitor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			logPath := filepath.Join(filepath.Dir(cfg.DBPath), "vscan.log")
			if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
				return err
			}
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer logFile.Close()

			app, cfg, logger, err := loadApp(flags, logFile, nil)
			if err != nil {
				return err
			}
			defer closeApp(app, logger)

			ctx, stop := signalContext()
			defer stop()
			group, ctx := errgroup.WithContext(ctx)
			group.Go(func() error { return app.EngineCLI.Follow(ctx) })
			group.Go(func() error {
				defer stop()
				return bootstrap.RunTUI(ctx, app, cfg.Decoder)
			})
			return group.Wait()
		},
	}
}
