// Package cli implements the rotatechain command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NMsby/rotatechain-sub000/internal/api"
	"github.com/NMsby/rotatechain-sub000/internal/daemon"
)

var rootCmd = &cobra.Command{
	Use:   "rotatechain",
	Short: "Rotational savings chain engine",
	Long: `RotateChain runs rotational savings chains: fixed-length seasons of
equal rounds where members contribute once per round and may extend
peer-to-peer loans to each other. The engine advances rounds on a
steady tick, expires overdue loans, and serves the live chain view
over HTTP.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", daemon.ConfigPath(), "Path to config file")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the engine version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "rotatechain %s\n", api.Version)
	},
}

// loadConfig reads the config file named by the --config flag.
func loadConfig(cmd *cobra.Command) (daemon.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return daemon.Load(path)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
