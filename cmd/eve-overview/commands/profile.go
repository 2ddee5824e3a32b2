package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AreteDriver/EVE-Overview/internal/config"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage preview profiles",
	Long: `Manage the named layout profiles stored under the config directory.

A profile records which windows to preview, where each preview sits and
how fast they refresh. The Default profile always exists.`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	RunE:  runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a profile as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileShow,
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileCreate,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileDelete,
}

var profileUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the current profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileUse,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd, profileShowCmd, profileCreateCmd, profileDeleteCmd, profileUseCmd)
}

func openConfig() (*config.Manager, error) {
	mgr, err := config.NewManager(GetConfigDir())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config manager: %w", err)
	}
	return mgr, nil
}

func runProfileList(cmd *cobra.Command, args []string) error {
	mgr, err := openConfig()
	if err != nil {
		return err
	}
	names, err := mgr.ListProfiles()
	if err != nil {
		return err
	}
	current := mgr.Settings().CurrentProfile

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "NAME\tWINDOWS\tRATE\tCURRENT")
	for _, name := range names {
		p, err := mgr.LoadProfile(name)
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t(unreadable: %v)\n", name, err)
			continue
		}
		marker := ""
		if name == current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", name, len(p.Windows), p.RefreshRate, marker)
	}
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	mgr, err := openConfig()
	if err != nil {
		return err
	}
	p, err := mgr.LoadProfile(args[0])
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(p)
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	mgr, err := openConfig()
	if err != nil {
		return err
	}
	p := config.DefaultProfile()
	p.Name = args[0]
	if err := mgr.SaveProfile(p); err != nil {
		return err
	}
	fmt.Printf("Profile %q created\n", p.Name)
	return nil
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	mgr, err := openConfig()
	if err != nil {
		return err
	}
	if err := mgr.DeleteProfile(args[0]); err != nil {
		return err
	}
	fmt.Printf("Profile %q deleted\n", args[0])
	return nil
}

func runProfileUse(cmd *cobra.Command, args []string) error {
	mgr, err := openConfig()
	if err != nil {
		return err
	}
	if err := mgr.SetCurrentProfile(args[0]); err != nil {
		return err
	}
	fmt.Printf("Current profile set to %q\n", args[0])
	return nil
}
