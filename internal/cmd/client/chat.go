package client

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/labelwire/labelwire/internal/channel"
	logpkg "github.com/labelwire/labelwire/pkg/log"
)

// NewChatCommand constructs the `chat` command group. The test subcommand
// talks to the channel directly rather than through a running server, so it
// also works before the instance is up.
func NewChatCommand() *cobra.Command {
	chatCmd := &cobra.Command{Use: "chat", Short: "Chat channel operations"}

	testCmd := &cobra.Command{
		Use:   "test",
		Short: "Post a connection test message to the chat channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, _ := cmd.Flags().GetString("channel-url")
			instance, _ := cmd.Flags().GetString("instance")
			if url == "" {
				return fmt.Errorf("--channel-url is required")
			}
			logger := logpkg.NewLogger(logpkg.WithFormatter(&logpkg.TextFormatter{}), logpkg.WithOutput(logpkg.NewConsoleOutput()))
			d := channel.NewDispatcher(url, logger)
			if err := d.TestConnection(cmd.Context(), instance); err != nil {
				return err
			}
			fmt.Println("channel acknowledged test message")
			return nil
		},
	}
	testCmd.Flags().String("channel-url", "", "Chat channel webhook URL")
	testCmd.Flags().String("instance", "labelwire", "Instance tag to announce")

	chatCmd.AddCommand(testCmd)
	return chatCmd
}
