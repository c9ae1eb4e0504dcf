package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"tomgalvin.uk/thermalprint/internal/config"
	"tomgalvin.uk/thermalprint/internal/printer"
	"tomgalvin.uk/thermalprint/internal/transport"
)

var (
	configPath string
	debug      bool

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "thermalprint",
	Short:         "Drive a serial thermal receipt printer",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
		logger = newLogger(debug || cfg.App.Debug)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default .env if present)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log debug messages")
}

// Text logs on a terminal, JSON otherwise.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// openPrinter connects to the configured printer and runs its start up
// sequence. The caller closes the link.
func openPrinter() (*printer.Printer, transport.Link, error) {
	link, err := transport.Open(cfg.Link(), logger.With("src", "transport"))
	if err != nil {
		return nil, nil, err
	}

	opts := []printer.Option{printer.WithLogger(logger.With("src", "printer"))}
	if s, ok := link.(*transport.SerialLink); ok && s.HasReadyLine() {
		opts = append(opts, printer.WithReadySignal(s))
	}

	p, err := printer.New(link, cfg.Printer.Driver(), opts...)
	if err != nil {
		link.Close()
		return nil, nil, fmt.Errorf("Couldn't create printer:\n%w", err)
	}
	p.Begin()
	return p, link, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
