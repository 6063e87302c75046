package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"taskchat/cli"
	"taskchat/conversation"
)

var chatConfigPath string
var chatLogLevel string

var chatCmd = &cobra.Command{
	Use:   "chat [user_id]",
	Short: "Chat with the task assistant from the terminal",
	Long:  `Start an interactive chat session managing the given user's task list.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		userID := args[0]
		ctx := context.Background()

		eng, err := buildEngine(ctx, chatConfigPath, chatLogLevel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer eng.Close()

		handler := cli.NewChatHandler()
		handler.Welcome(userID, eng.model.ModelName)

		conversationID := ""
		for {
			input, err := handler.AwaitInput()
			if err != nil {
				if err == io.EOF {
					handler.Goodbye()
					break
				}
				handler.Error(err)
				break
			}

			if input == "" {
				continue
			}

			if input == "exit" || input == "quit" {
				handler.Goodbye()
				break
			}

			resp, cerr := eng.service.ProcessTurn(ctx, conversation.TurnRequest{
				UserID:         userID,
				ConversationID: conversationID,
				Message:        input,
			}, handler)
			if cerr != nil {
				handler.Error(cerr)
				continue
			}

			conversationID = resp.ConversationID
			handler.ShowAnswer(resp.Content)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatConfigPath, "config", "c", ".", "Path to config file or directory")
	chatCmd.Flags().StringVar(&chatLogLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")
}
