package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"taskchat/server"
)

var serveConfigPath string
var serveLogLevel string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket chat server",
	Long: `Start a long-running server exposing the conversation engine.

POST /api/{user_id}/chat accepts a JSON body with message and optional
conversation_id. GET /ws/{user_id}/chat upgrades to a WebSocket that streams
agent progress events per turn.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		eng, err := buildEngine(ctx, serveConfigPath, serveLogLevel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer eng.Close()

		srv := server.New(eng.service, eng.cfg.Server.Listen, eng.log.Named("http"))

		errCh := make(chan error, 1)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		case <-stop:
		}

		fmt.Println("\nShutting down...")
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", ".", "Path to config file or directory")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
}
