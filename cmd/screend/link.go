package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clearbrook/screend/internal/client"
	"github.com/clearbrook/screend/internal/ui"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Issue and manage delegated access links",
}

var linkIssueCmd = &cobra.Command{
	Use:   "issue <subject-id>",
	Short: "Issue a new access link for a student or session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		req := &client.IssueCapabilityRequest{
			SubjectID: args[0],
			Kind:      kind,
		}
		if ttl > 0 {
			req.TTLSeconds = int(ttl.Seconds())
		}

		out, err := api.IssueCapability(cmd.Context(), req)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(out)
			return nil
		}
		fmt.Printf("Link token: %s\n", ui.RenderAccent(out.Token))
		fmt.Printf("Capability: %s (%s, expires %s)\n",
			out.Capability.ID, out.Capability.Kind,
			out.Capability.ExpiresAt.Format("2006-01-02 15:04"))
		fmt.Println(ui.RenderMuted("The token is shown once and cannot be recovered. Share it only with the intended recipient."))
		return nil
	},
}

var linkListCmd = &cobra.Command{
	Use:   "list <subject-id>",
	Short: "List active links for a subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		caps, err := api.ListCapabilities(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(caps)
			return nil
		}
		if len(caps) == 0 {
			fmt.Println("no links for this subject")
			return nil
		}
		printCapabilityTable(caps)
		return nil
	},
}

var linkRevokeCmd = &cobra.Command{
	Use:   "revoke <capability-id>",
	Short: "Revoke a link immediately",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.RevokeCapability(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("link %s revoked\n", args[0])
		return nil
	},
}

func init() {
	linkIssueCmd.Flags().String("kind", "guardian_portal", "link kind (guardian_portal or substitute_proctor)")
	linkIssueCmd.Flags().Duration("ttl", 0, "link lifetime (default: server default, 24h)")
	linkCmd.AddCommand(linkIssueCmd)
	linkCmd.AddCommand(linkListCmd)
	linkCmd.AddCommand(linkRevokeCmd)
}
