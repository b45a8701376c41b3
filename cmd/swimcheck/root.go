package main

import (
	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"strings"
)

const envPrefix = "SWIMCHECK"

// fileConfig is the layout of the toml file passed with --config. Its values
// are defaults that flags and SWIMCHECK_* environment variables override.
type fileConfig struct {
	Verbose bool   `toml:"verbose"`
	CS      string `toml:"cs"`
	Journal string `toml:"journal"`
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:           "swimcheck",
		Short:         "inspect membership checksums, cluster test sessions and run journals",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(v)
		},
	}
	root.PersistentFlags().String("config", "", "toml file holding default flag values")
	root.PersistentFlags().BoolP("verbose", "v", false, "log at debug level")
	_ = v.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root.AddCommand(newChecksumCmd(v), newSessionCmd(v), newJournalCmd(v))
	return root
}

func loadConfig(v *viper.Viper) error {
	path := v.GetString("config")
	if path == "" {
		return nil
	}
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return errors.Wrapf(err, "failed to read config %s", path)
	}
	v.SetDefault("verbose", fc.Verbose)
	if fc.CS != "" {
		v.SetDefault("cs", fc.CS)
	}
	if fc.Journal != "" {
		v.SetDefault("dir", fc.Journal)
	}
	return nil
}

func newLogger(v *viper.Viper) (*zap.Logger, error) {
	if v.GetBool("verbose") {
		return zap.NewDevelopment()
	}
	return zap.NewNop(), nil
}
