package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wicsp/hostsnap/collector"
	"github.com/wicsp/hostsnap/config"
	"github.com/wicsp/hostsnap/util"
)

// Version is set at build time via ldflags.
var Version = "0.1.0"

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	timeout    time.Duration
	output     string
	maskIPs    bool
}

// app is the state a subcommand runs with, built once flags are parsed.
type app struct {
	cfg       config.Config
	cfgPath   string
	log       zerolog.Logger
	collector *collector.Collector
	out       io.Writer
	errOut    io.Writer
}

// newCollector is swapped in tests to inject fakes.
var newCollector = func(cfg config.CollectorConfig, log zerolog.Logger) *collector.Collector {
	return collector.New(cfg, collector.WithLogger(log))
}

func newRootCmd(a *app) *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "hostsnap",
		Short: "Point-in-time host telemetry: system, memory, CPU, disks, processes",
		Long: `hostsnap reads host telemetry from the native tools and pseudo-files of the
running platform (Linux /proc, macOS vm_stat/top/sysctl, ps, df) and prints
one snapshot per invocation as a table, JSON or YAML.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/hostsnap/config.toml)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error, disabled")
	pf.DurationVar(&flags.timeout, "timeout", 0, "per-command timeout, e.g. 3s")
	pf.StringVarP(&flags.output, "output", "o", "", "output format: table, json, yaml")
	pf.BoolVar(&flags.maskIPs, "mask-ips", false, "mask IP addresses in output")

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})

	root.AddCommand(
		newInfoCmd(a),
		newMemCmd(a),
		newCPUCmd(a),
		newDiskCmd(a),
		newPsCmd(a),
		newSnapshotCmd(a),
		newFindCmd(a),
		newKillCmd(a),
		newBrowseCmd(a),
		newSourcesCmd(a),
		newDoctorCmd(a),
		newConfigCmd(a),
	)
	return root
}

// setup layers flags over the loaded config and builds the collector.
func (a *app) setup(cmd *cobra.Command, flags globalFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return usageError(err)
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Collector.CommandTimeout = config.Duration{Duration: flags.timeout}
	}
	if flags.output != "" {
		cfg.Output.Format = flags.output
	}
	if cmd.Flags().Changed("mask-ips") {
		cfg.Output.MaskIPs = flags.maskIPs
	}
	if err := cfg.Validate(); err != nil {
		return usageError(err)
	}

	a.cfg = cfg
	a.cfgPath = flags.configPath
	a.log = util.NewLogger(cfg.Log.Level, cfg.Log.Format, a.errOut)
	a.collector = newCollector(cfg.Collector, a.log)
	a.log.Debug().
		Str("platform", a.collector.Platform()).
		Dur("timeout", cfg.Collector.CommandTimeout.Duration).
		Msg("collector ready")
	return nil
}

// Run parses os.Args and executes the selected command.
func Run() error {
	return execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{out: stdout, errOut: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		if strings.HasPrefix(err.Error(), "unknown command") {
			err = usageError(err)
		}
		if ExitCode(err) == ExitUsage {
			fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", root.Name())
		}
		return err
	}
	return nil
}
