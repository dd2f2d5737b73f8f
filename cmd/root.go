// Package cmd contains the CLI setup and commands exposed to the user
package cmd

import (
	"io"
	"os"

	"github.com/mcg25035/RiceCall-sub002/configs"
	"github.com/mcg25035/RiceCall-sub002/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var ConfigFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ricecall-server",
	Short: "Keeps RiceCall sessions, relationships and memberships in sync and relays WebRTC signaling",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// deferring this allows user to override config path with cli option
		return configs.InitConfig(ConfigFile)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&ConfigFile, "config", configs.DefaultConfigFile(), "config file")
}

// newLogger builds the logger from the log.* config keys. Lines go to w unless log.file
// is set.
func newLogger(w io.Writer) (zerolog.Logger, func() error, error) {
	b := logger.New().FromWriter(w).WithLevel(viper.GetString("log.level"))
	if file := viper.GetString("log.file"); file != "" {
		b = b.FromPath(file)
	}
	if viper.GetBool("debug") {
		b = b.WithLevel("debug")
	}
	return b.Make()
}
