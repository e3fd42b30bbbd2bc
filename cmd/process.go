package cmd

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/wicsp/hostsnap/collector"
	"github.com/wicsp/hostsnap/model"
	"github.com/wicsp/hostsnap/ui"
)

func newFindCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "find NAME",
		Short: "List processes whose name or command line contains NAME",
		Long: `List processes whose name or command line contains NAME, ignoring case.
Exits with status 5 when nothing matches.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			procs := a.collector.FindProcess(cmd.Context(), args[0])
			if err := a.emit(procs, func(r ui.Renderer) string { return r.Processes(procs) }); err != nil {
				return err
			}
			if len(procs) == 0 {
				return fmt.Errorf("%q: %w", args[0], errNoMatch)
			}
			return nil
		},
	}
}

func newKillCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "kill PID",
		Short: "Send SIGTERM (or SIGKILL with --force) to a process",
		Long: `Send SIGTERM to PID, or SIGKILL with --force. Delivery is fire-and-forget:
the process may still be running when the command returns.

Exit status 3 means the process does not exist, 4 means permission denied.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := strconv.Atoi(args[0])
			if err != nil {
				return usageError(fmt.Errorf("invalid pid %q", args[0]))
			}
			outcome, err := a.collector.KillProcess(pid, force)
			if err != nil {
				return err
			}
			if outcome != model.KillSucceeded {
				return collector.OutcomeError(pid, outcome)
			}
			sig := "SIGTERM"
			if force {
				sig = "SIGKILL"
			}
			fmt.Fprintf(a.out, "sent %s to %d\n", sig, pid)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "send SIGKILL instead of SIGTERM")
	return cmd
}

func newBrowseCmd(a *app) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Interactive process browser (filter, sort, signal)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := ui.NewBrowser(cmd.Context(), a.collector, filter)
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err := p.Run()
			return err
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "initial name filter")
	return cmd
}
