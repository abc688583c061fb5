package cli

import (
	"github.com/spf13/cobra"
)

var powerCmd = &cobra.Command{
	Use:   "power",
	Short: "Wake cameras or put them to sleep",
}

var powerOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Enable wired control and take external control of the cameras",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		return reportResults(cmd.OutOrStdout(), "power on", s.rig.PowerOnAll(cmd.Context()))
	},
}

var powerOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Release control and disable wired control",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		return reportResults(cmd.OutOrStdout(), "power off", s.rig.PowerOffAll(cmd.Context()))
	},
}

func init() {
	rootCmd.AddCommand(powerCmd)
	powerCmd.AddCommand(powerOnCmd, powerOffCmd)
}
