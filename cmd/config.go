package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/wicsp/hostsnap/config"
	"github.com/wicsp/hostsnap/ui"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialise the configuration file",
		Args:  usageArgs(cobra.NoArgs),
	}
	cmd.AddCommand(newConfigShowCmd(a), newConfigInitCmd(a))
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration after file, .env, environment and flags",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.emit(a.cfg, func(ui.Renderer) string {
				var b strings.Builder
				if err := toml.NewEncoder(&b).Encode(a.cfg); err != nil {
					return "error: " + err.Error()
				}
				return strings.TrimRight(b.String(), "\n")
			})
		},
	}
}

func newConfigInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file holding the defaults",
		Long: `Write the default configuration as TOML to --config, or to
$XDG_CONFIG_HOME/hostsnap/config.toml. An existing file is kept unless --force is given.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfgPath
			if path == "" {
				path = config.Path()
			}
			if path == "" {
				return errors.New("cannot determine config directory; pass --config")
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			a.log.Info().Str("path", path).Msg("config written")
			_, err := fmt.Fprintf(a.out, "wrote %s\n", path)
			return err
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}
