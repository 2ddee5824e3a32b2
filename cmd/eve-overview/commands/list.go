package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AreteDriver/EVE-Overview/internal/proc"
	"github.com/AreteDriver/EVE-Overview/internal/window"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List visible windows",
	Long: `List the windows currently visible on the desktop.

Uses wmctrl when available and falls back to xdotool. The printed ids can
be used in profiles and with the activate command.`,
	Example: `  # List windows in table format (default)
  eve-overview list

  # List windows in JSON format
  eve-overview list --format json`,
	RunE: runList,
}

var listFormat string

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table or json)")
}

func runList(cmd *cobra.Command, args []string) error {
	runner := proc.NewRunner(proc.DefaultTimeout)
	enum := window.NewEnumerator(runner)

	handles, err := enum.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list windows: %w", err)
	}

	switch listFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(handles)
	case "table":
		return printWindowsTable(handles)
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", listFormat)
	}
}

func printWindowsTable(handles []window.Handle) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tGEOMETRY\tTITLE")
	fmt.Fprintln(w, "--\t--------\t-----")

	for _, h := range handles {
		fmt.Fprintf(w, "%s\t%dx%d at (%d, %d)\t%s\n",
			window.FormatHex(h.ID),
			h.Geometry.Width, h.Geometry.Height,
			h.Geometry.X, h.Geometry.Y,
			h.Title)
	}
	return nil
}
