package main

import (
	"fmt"
	"os"

	"heating_scheduler/internal/config"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "heaters",
	Short:         "Drive heaters from calendar bookings",
	Long:          `heaters fetches bookings from a calendar and reconciles radiators and pellet stoves toward the scheduled modes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "configs", config.DefaultPath, "Path to the YAML configuration")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(schedulesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(hashPasswordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
