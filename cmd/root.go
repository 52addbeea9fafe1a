// Package cmd wires the CLI surface onto Monitor, flowtable, and render:
// flag parsing, signal handling, and the sampling consumer loop.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flowtopdev/nettop/internal/cmderr"
	"github.com/flowtopdev/nettop/internal/printer"
	"github.com/flowtopdev/nettop/pkg/flowtable"
	"github.com/flowtopdev/nettop/pkg/monitor"
	"github.com/flowtopdev/nettop/pkg/render"
	"github.com/flowtopdev/nettop/version"
)

var (
	ifaceFlag    = &onceString{name: "i"}
	sortFlag     = &onceString{name: "s", value: "b"}
	intervalFlag = &onceInt{name: "t", value: 1}
	snapshotDir  = &onceString{name: "d"}
	debugFlag    bool
)

var rootCmd = &cobra.Command{
	Use:           "nettop",
	Short:         "Live terminal bandwidth monitor.",
	Version:       version.DisplayString(),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().VarP(ifaceFlag, "iface", "i", "interface to capture on (required)")
	rootCmd.Flags().VarP(sortFlag, "sort", "s", "sort key: b(ytes) or p(ackets)")
	rootCmd.Flags().VarP(intervalFlag, "interval", "t", "sample interval in seconds")
	rootCmd.Flags().VarP(snapshotDir, "snapshot-dir", "d", "directory in which to snapshot rendered frames")

	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().MarkHidden("debug")
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

// Execute runs the command, translating whatever error reaches the top
// into the appropriate exit code and usage-printing behavior.
func Execute() {
	cmd, err := rootCmd.ExecuteC()
	if err != nil {
		if cmderr.NeedsUsage(err) {
			cmd.Println(cmd.UsageString())
		}
		printer.Stderr.Errorf("%s\n", err)
		os.Exit(cmderr.ExitCode(err))
	}
}

func run(cmd *cobra.Command, args []string) error {
	if !ifaceFlag.set {
		return cmderr.Usagef("missing required flag -i (interface)")
	}

	sortKey, err := parseSortKey(sortFlag.value)
	if err != nil {
		return cmderr.Usagef("%s", err)
	}
	if intervalFlag.value <= 0 {
		return cmderr.Usagef("-t must be a positive integer, got %d", intervalFlag.value)
	}

	var snapshotter *render.SnapshotWriter
	if snapshotDir.set {
		snapshotter, err = render.NewSnapshotWriter(snapshotDir.value)
		if err != nil {
			return cmderr.Usagef("%s", err)
		}
	}

	m, err := monitor.New(ifaceFlag.value, sortKey)
	if err != nil {
		return cmderr.RuntimeErr{Err: errors.Wrapf(err, "failed to start capture on %s", ifaceFlag.value)}
	}

	ui := render.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	producerErr := make(chan error, 1)
	go func() { producerErr <- m.Start(ctx) }()

	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt)
	signal.Notify(sig, syscall.SIGTERM)

	result := make(chan error, 1)
	go runConsumer(ctx, cancel, m, ui, snapshotter, intervalFlag.value, sig, producerErr, result)

	// ui.Run blocks until the 'q' keybinding or ui.Stop() (called by
	// runConsumer on shutdown) ends the terminal event loop.
	runErr := ui.Run()

	cancel()
	m.Stop()
	consumerErr := <-result

	if runErr != nil {
		return cmderr.RuntimeErr{Err: errors.Wrap(runErr, "terminal renderer failed")}
	}
	if consumerErr != nil {
		return cmderr.RuntimeErr{Err: consumerErr}
	}
	return nil
}

// runConsumer is the consumer goroutine: it samples the monitor every
// intervalSeconds, hands the result to the renderer and optional snapshot
// writer, and tears everything down on a signal or a producer error. The
// final producer error (nil on a clean ctx-driven stop) is sent once on
// result.
func runConsumer(
	ctx context.Context,
	cancel context.CancelFunc,
	m *monitor.Monitor,
	ui *render.Renderer,
	snapshotter *render.SnapshotWriter,
	intervalSeconds int,
	sig chan os.Signal,
	producerErr chan error,
	result chan<- error,
) {
	ticker := time.NewTicker(time.Duration(intervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ui.Stop()
			result <- <-producerErr
			return
		case received := <-sig:
			printer.Stderr.Infof("received %v, stopping...\n", received)
			// cancel before Stop: Start's error path only treats a closed
			// handle as a clean shutdown when ctx is already done, so the
			// order here matters, not just the fact that both are called.
			cancel()
			m.Stop()
			ui.Stop()
			result <- <-producerErr
			return
		case err := <-producerErr:
			if err != nil {
				printer.Stderr.Errorf("capture stopped: %s\n", err)
			}
			ui.Stop()
			result <- err
			return
		case <-ticker.C:
			entries := m.Snapshot()
			ui.Update(entries, intervalSeconds)
			if snapshotter != nil {
				if err := snapshotter.Write(entries, intervalSeconds); err != nil {
					printer.Stderr.Warningf("%s\n", err)
				}
			}
		}
	}
}

func parseSortKey(s string) (flowtable.SortKey, error) {
	switch s {
	case "b":
		return flowtable.SortByBytes, nil
	case "p":
		return flowtable.SortByPackets, nil
	default:
		return 0, errors.Errorf("-s must be 'b' or 'p', got %q", s)
	}
}
