package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configDir string
	rootCmd   = &cobra.Command{
		Use:   "eve-overview",
		Short: "EVE-Overview - Live window previews for multiboxing",
		Long: `EVE-Overview shows small live previews of your other game clients
and lets you jump to one with a click or a hotkey.

Features:
  • Enumerate client windows via wmctrl or xdotool
  • Live preview thumbnails with configurable refresh rate
  • Click a preview to activate the client window
  • Named layout profiles stored as JSON
  • REST API and event stream for integration`,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default is $HOME/.config/eve-overview)")
	rootCmd.PersistentFlags().Int("port", 0, "control server port (default is 8089)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	// Bind flags to viper
	viper.BindPFlag("server_port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigDir returns the config directory path
func GetConfigDir() string {
	return configDir
}
