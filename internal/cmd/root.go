package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the markupr CLI
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "markupr",
		Short: "Turn screen recordings into structured feedback reports",
		Long:  "markupr - captures screen+voice recordings, transcribes them, and emits structured feedback reports",
	}

	rootCmd.AddCommand(NewWatchCmd())
	rootCmd.AddCommand(NewProcessCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}
