package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taskchat",
	Short: "Taskchat is a conversational task assistant",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Welcome to Taskchat! Use --help to see available commands.")
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
