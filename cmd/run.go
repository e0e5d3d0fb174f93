package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"heating_scheduler/internal/service"

	"github.com/spf13/cobra"
)

// Run modes accepted by --mode.
const (
	modeAll          = "all"
	modeSetHeaters   = "set_heaters"
	modeGetSchedules = "get_schedules"
)

var (
	runMode string
	dryRun  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch schedules and/or reconcile heaters once",
	RunE:  runOnce,
}

var schedulesCmd = &cobra.Command{
	Use:   "schedules",
	Short: "Fetch upcoming bookings from the calendar",
	RunE: func(cmd *cobra.Command, _ []string) error {
		runMode = modeGetSchedules
		return runOnce(cmd, nil)
	},
}

func init() {
	runCmd.Flags().StringVar(&runMode, "mode", modeAll, "One of all, set_heaters, get_schedules")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute decisions without sending commands or saving")
}

// steps returns which stages a run mode covers.
func steps(mode string) (fetch, reconcile bool, err error) {
	switch mode {
	case modeAll:
		return true, true, nil
	case modeSetHeaters:
		return false, true, nil
	case modeGetSchedules:
		return true, false, nil
	default:
		return false, false, fmt.Errorf("unknown mode %q (want %s, %s or %s)", mode, modeAll, modeSetHeaters, modeGetSchedules)
	}
}

func runOnce(cmd *cobra.Command, _ []string) error {
	fetch, reconcile, err := steps(runMode)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if fetch {
		n, err := a.services.Schedules.Fetch(ctx)
		if err != nil {
			a.log.Errorw("get_schedules_failed", "err", err)
			return err
		}
		a.log.Infow("get_schedules_done", "count", n)
	}
	if reconcile {
		return a.setHeaters(ctx, dryRun)
	}
	return nil
}

func (a *app) setHeaters(ctx context.Context, dry bool) error {
	report, err := a.services.Heaters.Run(ctx, service.RunOptions{DryRun: dry})
	if err != nil {
		return err
	}
	if dry {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return nil
}
