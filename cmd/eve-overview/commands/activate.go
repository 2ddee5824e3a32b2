package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AreteDriver/EVE-Overview/internal/proc"
	"github.com/AreteDriver/EVE-Overview/internal/window"
)

var activateCmd = &cobra.Command{
	Use:   "activate <window>",
	Short: "Raise and focus a window",
	Long: `Raise and focus a window by id or title substring.

An argument starting with 0x, or consisting only of digits, is treated as
a window id. Anything else matches against window titles.`,
	Example: `  # Activate by id
  eve-overview activate 0x03a00041

  # Activate the first window whose title contains "Pilot Two"
  eve-overview activate "Pilot Two"`,
	Args: cobra.ExactArgs(1),
	RunE: runActivate,
}

func init() {
	rootCmd.AddCommand(activateCmd)
}

func runActivate(cmd *cobra.Command, args []string) error {
	runner := proc.NewRunner(proc.DefaultTimeout)
	activator := window.NewActivator(runner)

	if id, err := window.ParseID(args[0]); err == nil {
		return activator.Activate(cmd.Context(), window.Handle{ID: id})
	}

	enum := window.NewEnumerator(runner)
	handles, err := enum.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list windows: %w", err)
	}
	for _, h := range handles {
		if strings.Contains(h.Title, args[0]) {
			fmt.Printf("Activating %s (%s)\n", h.Title, window.FormatHex(h.ID))
			return activator.Activate(cmd.Context(), h)
		}
	}
	return fmt.Errorf("no window matches %q", args[0])
}
