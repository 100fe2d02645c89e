package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLabelsCommand constructs the `labels` command group.
func NewLabelsCommand(baseURL BaseURLFunc) *cobra.Command {
	labelsCmd := &cobra.Command{Use: "labels", Short: "Label operations"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the cached label inventory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommand(baseURL, map[string]any{"command": "GET_LABELS"})
		},
	}

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh the label inventory from the mailbox",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommand(baseURL, map[string]any{"command": "SYNC_LABELS"})
		},
	}

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply labels to a message",
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			names, _ := cmd.Flags().GetString("labels")
			return runCommand(baseURL, map[string]any{"command": "APPLY_LABELS", "emailId": email, "labels": names})
		},
	}
	applyCmd.Flags().String("email", "", "Message id")
	applyCmd.Flags().String("labels", "", "Comma-separated labels")

	removeCmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove labels from a message",
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			names, _ := cmd.Flags().GetString("labels")
			return runCommand(baseURL, map[string]any{"command": "REMOVE_LABELS", "emailId": email, "labels": names})
		},
	}
	removeCmd.Flags().String("email", "", "Message id")
	removeCmd.Flags().String("labels", "", "Comma-separated labels")

	labelsCmd.AddCommand(listCmd, syncCmd, applyCmd, removeCmd)
	return labelsCmd
}

func runCommand(baseURL BaseURLFunc, body map[string]any) error {
	out, err := postJSON(baseURL, "/command", body)
	if err != nil {
		return err
	}
	printJSON(out)
	if out["success"] != true {
		return fmt.Errorf("command failed")
	}
	return nil
}
