package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/RMahshie/runningls/pkg/periodogram"
)

var logLevel = "info"

func setupLogger() error {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		NoColor:    !term.IsTerminal(int(os.Stderr.Fd())),
		TimeFormat: time.Kitchen,
	})
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, periodogram.ErrInvalidInput) {
			fmt.Fprintln(os.Stderr, "\nCheck the light curve and the window and frequency settings.")
		}
		stop()
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	o := newRunOptions()

	cmd := &cobra.Command{
		Use:   "runningls [flags] <lightcurve>",
		Short: "runningls computes and plots a running Lomb-Scargle periodogram",
		Long: `runningls slides a window along a light curve, computes a Lomb-Scargle
periodogram inside every window and draws the stack as a time-frequency image.

The light curve is a text file of whitespace- or comma-separated columns.
Lines starting with # are ignored. Times are in days.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.complete(cmd.Flags()); err != nil {
				return err
			}
			return o.run(cmd.Context(), args[0])
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")

	o.addFlags(cmd.Flags())
	return cmd
}
