package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fractal version %s\n", version)
		fmt.Println("A deterministic fractal-breakout backtester")
		fmt.Println("https://github.com/rustyeddy/fractal")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
