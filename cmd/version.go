package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.Long = fmt.Sprintf(`Taskchat %s

Chat with an assistant that manages your todo list through natural language.
Every turn is rebuilt from storage, so any number of instances can serve the
same conversations.

Get started:
  taskchat chat <user_id>  Chat from the terminal
  taskchat serve           Run the HTTP/WebSocket server`, Version)
}
