package main

import (
	"fmt"
	"strings"

	"github.com/antiwork/shortest/pkg/config"
	"github.com/antiwork/shortest/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var cliLog *logging.Logger

func init() {
	var err error
	cliLog, err = logging.NewLogger("cli")
	if err != nil {
		cliLog.Warnf("Failed to initialize cli logger, using stderr fallback: %v", err)
	}
}

// cli carries the state shared by all commands.
type cli struct {
	v       *viper.Viper
	cfgFile string
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:           "shortest",
		Short:         "AI powered end to end testing in plain English",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.v.BindPFlag("logging.level", cmd.Flags().Lookup("log-level"))
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", "", "config file (default is ./shortest.yaml)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newTestCmd(c),
		newExploreCmd(c),
		newCrawlCmd(c),
		newRunsCmd(c),
	)
	return root
}

// bind maps command flags onto config keys so that flags given on the
// command line override the file and the environment.
func (c *cli) bind(flags *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("unknown flag %q", name)
		}
		if err := c.v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}

// load reads the configuration and installs the global logger.
func (c *cli) load() (*config.Config, error) {
	cfg, err := config.LoadWithViper(c.v, c.cfgFile)
	if err != nil {
		return nil, err
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	if err := logging.Initialize(cfg.Logging); err != nil {
		cliLog.Warnf("file logging disabled: %v", err)
	}
	cliLog.Debugf("shortest %s, provider=%s model=%s base_url=%s", version, cfg.AI.Provider, cfg.AI.Model, cfg.Browser.BaseURL)
	return cfg, nil
}
