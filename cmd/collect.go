package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wicsp/hostsnap/export"
	"github.com/wicsp/hostsnap/model"
	"github.com/wicsp/hostsnap/ui"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show hostname, platform, architecture, IP and uptime",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			info := maskSystemInfo(a.collector.SystemInfo(cmd.Context()), a.cfg.Output.MaskIPs)
			return a.emit(info, func(r ui.Renderer) string { return r.SystemInfo(info) })
		},
	}
}

func newMemCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "mem",
		Aliases: []string{"memory"},
		Short:   "Show total, available and used memory",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := a.collector.MemoryUsage(cmd.Context())
			return a.emit(m, func(r ui.Renderer) string { return r.Memory(m) })
		},
	}
}

func newCPUCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cpu",
		Short: "Show CPU usage, per-core usage and load averages",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.collector.CPUUsage(cmd.Context())
			return a.emit(c, func(r ui.Renderer) string { return r.CPU(c) })
		},
	}
}

func newDiskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "disk",
		Aliases: []string{"df"},
		Short:   "Show usage of every mounted filesystem",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := a.collector.DiskUsage(cmd.Context())
			return a.emit(d, func(r ui.Renderer) string { return r.Disks(d) })
		},
	}
}

func newPsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "ps",
		Short: "List processes, busiest first",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			procs := a.collector.ListProcesses(cmd.Context())
			return a.emit(procs, func(r ui.Renderer) string {
				r.MaxProcesses = limit
				return r.Processes(procs)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most N processes in table output (0 = all)")
	return cmd
}

func newSnapshotCmd(a *app) *cobra.Command {
	var (
		textfile string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Collect every metric at once",
		Long: `Collect system info, memory, CPU, disks and processes in one pass.

With --textfile the snapshot is also written in Prometheus text exposition
format, suitable for node_exporter's textfile collector.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := a.collector.Snapshot(cmd.Context())
			snap.System = maskSystemInfo(snap.System, a.cfg.Output.MaskIPs)
			if textfile != "" {
				if err := export.WriteTextfile(textfile, snap); err != nil {
					return fmt.Errorf("write textfile: %w", err)
				}
				a.log.Info().Str("path", textfile).Msg("textfile written")
				return nil
			}
			return a.emit(snap, func(r ui.Renderer) string {
				r.MaxProcesses = limit
				return r.Snapshot(snap)
			})
		},
	}
	cmd.Flags().StringVar(&textfile, "textfile", "", "write Prometheus text format to FILE instead of stdout")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "processes shown in table output (0 = all)")
	return cmd
}

// maskSystemInfo hides the address in every output format, not just tables.
func maskSystemInfo(info model.SystemInfo, mask bool) model.SystemInfo {
	if mask {
		info.IPAddress = model.MaskIP(info.IPAddress)
	}
	return info
}
