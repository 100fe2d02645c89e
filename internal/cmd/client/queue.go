package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewQueueCommand constructs the `queue` command group.
func NewQueueCommand(baseURL BaseURLFunc) *cobra.Command {
	queueCmd := &cobra.Command{Use: "queue", Short: "Queue operations"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored queue items (in-flight first)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := getJSON(baseURL, "/v1/queue")
			if err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}

	kickCmd := &cobra.Command{
		Use:   "kick",
		Short: "Trigger an immediate work pass",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := postJSON(baseURL, "/v1/kick", map[string]any{})
			if err != nil {
				return err
			}
			if out["success"] != true {
				return fmt.Errorf("kick refused: %v", out)
			}
			fmt.Println("work pass requested")
			return nil
		},
	}

	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent audit entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			out, err := getJSON(baseURL, fmt.Sprintf("/v1/audit?limit=%d", limit))
			if err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	auditCmd.Flags().Int("limit", 50, "Maximum entries to return")

	queueCmd.AddCommand(listCmd, kickCmd, auditCmd)
	return queueCmd
}
