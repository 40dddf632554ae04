package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vecplay/vecplay/internal/util"
)

var rootCmd = &cobra.Command{
	Use:   "vecplay",
	Short: "Vector animation playback tool",
	Long: `vecplay loads keyframed vector-animation documents (optionally gzip-wrapped),
validates them and plays them back with time-correct frame pacing. Rendered
frames can be cached on disk so subsequent runs skip the decoder entirely.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	cobra.OnInitialize(func() {
		util.InitLogger(util.IsVerbose())
	})

	rootCmd.AddCommand(NewProbeCommand())
	rootCmd.AddCommand(NewPlayCommand())
	rootCmd.AddCommand(NewServeCommand())
}
