package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP control API and metrics",
	Long: `Serve a JSON API over the configured cameras:

  GET  /api/cameras
  GET  /api/cameras/:name/state
  GET  /api/cameras/:name/status
  POST /api/cameras/:name/power/on
  POST /api/cameras/:name/power/off
  POST /api/cameras/:name/record/start
  POST /api/cameras/:name/record/stop
  GET  /metrics`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		listen := serveListen
		if listen == "" {
			listen = viper.GetString("listen")
		}
		return runServer(cmd.Context(), listen, true)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Address to listen on (default listen from config)")
}
