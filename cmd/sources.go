package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/wicsp/hostsnap/collector"
	"github.com/wicsp/hostsnap/ui"
)

// sourceChain is one metric's ordered source list.
type sourceChain struct {
	Metric  string   `json:"metric" yaml:"metric"`
	Sources []string `json:"sources" yaml:"sources"`
}

func newSourcesCmd(a *app) *cobra.Command {
	var goos string
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Show which data sources are tried for each metric, in order",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform := a.collector.Platform()
			strategy := a.collector.Strategy()
			if goos != "" {
				platform = goos
				strategy = collector.Select(goos)
			}
			chains := make([]sourceChain, 0, len(collector.Metrics))
			for _, m := range collector.Metrics {
				chains = append(chains, sourceChain{Metric: string(m), Sources: strategy.Names(m)})
			}
			return a.emit(chains, func(r ui.Renderer) string {
				rows := make([][]string, 0, len(chains))
				for _, c := range chains {
					names := strings.Join(c.Sources, " → ")
					if names == "" {
						names = "unsupported"
					}
					rows = append(rows, []string{c.Metric, names})
				}
				return r.KeyValues("Sources ("+platform+")", "METRIC", "SOURCES", rows)
			})
		},
	}
	cmd.Flags().StringVar(&goos, "platform", "", "show the chains for another platform (linux, darwin, ...)")
	return cmd
}
