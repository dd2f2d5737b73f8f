package cmd

import (
	"github.com/mcg25035/RiceCall-sub002/configs"
	server "github.com/mcg25035/RiceCall-sub002/internal"
	"github.com/mcg25035/RiceCall-sub002/internal/routes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var memory bool

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the RiceCall server",
	Args:  cobra.NoArgs,
	RunE:  runServer,
}

func init() {
	runCmd.Flags().BoolVar(&memory, "memory", false, "keep all records in memory instead of sqlite")
	rootCmd.AddCommand(runCmd)
}

func runServer(cmd *cobra.Command, _ []string) error {
	log, closeLog, err := newLogger(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeLog()

	opts := server.Options{
		Debug:        viper.GetBool("debug"),
		Host:         viper.GetString("host"),
		Port:         viper.GetInt("port"),
		DatabasePath: configs.DatabasePath(),
		Memory:       memory,
		AuthSecret:   viper.GetString("auth.secret"),
		AuthIssuer:   viper.GetString("auth.issuer"),
		Limits: routes.Limits{
			MaxFrameBytes:   viper.GetInt("ws.max-frame-bytes"),
			FramesPerSecond: viper.GetInt("ws.frames-per-second"),
		},
	}
	if err := server.CreateAndListen(opts, log); err != nil {
		log.Error().Err(err).Msg("server stopped")
		return err
	}
	return nil
}
