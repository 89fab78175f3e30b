package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clearbrook/screend/internal/client"
)

// gatewayCall runs one action against a delegated-access gateway and
// prints the raw result.
func gatewayCall(cmd *cobra.Command, call func(req *client.GatewayRequest) (json.RawMessage, error), action string, payload any) error {
	token, _ := cmd.Flags().GetString("link")
	if token == "" {
		return fmt.Errorf("--link is required")
	}

	req := &client.GatewayRequest{Action: action, Token: token}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		req.Payload = data
	}

	out, err := call(req)
	if err != nil {
		return err
	}
	var pretty any
	if err := json.Unmarshal(out, &pretty); err != nil {
		fmt.Println(string(out))
		return nil
	}
	printJSON(pretty)
	return nil
}

var portalCmd = &cobra.Command{
	Use:   "portal",
	Short: "Call the guardian portal with an access link",
}

var portalValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check whether a portal link is still valid",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return gatewayCall(cmd, func(req *client.GatewayRequest) (json.RawMessage, error) {
			return api.Portal(cmd.Context(), req)
		}, "validate", nil)
	},
}

var portalDataCmd = &cobra.Command{
	Use:   "data",
	Short: "Fetch the guardian portal view",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return gatewayCall(cmd, func(req *client.GatewayRequest) (json.RawMessage, error) {
			return api.Portal(cmd.Context(), req)
		}, "get_data", nil)
	},
}

var portalChecklistCmd = &cobra.Command{
	Use:   "checklist <item-id>",
	Short: "Toggle a preparation checklist item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		done, _ := cmd.Flags().GetBool("done")
		return gatewayCall(cmd, func(req *client.GatewayRequest) (json.RawMessage, error) {
			return api.Portal(cmd.Context(), req)
		}, "update_checklist", map[string]any{"item_id": args[0], "done": done})
	},
}

var accessCmd = &cobra.Command{
	Use:   "access",
	Short: "Call the substitute-proctor surface with an access link",
}

var accessValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check whether a session link is still valid",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return gatewayCall(cmd, func(req *client.GatewayRequest) (json.RawMessage, error) {
			return api.SessionAccess(cmd.Context(), req)
		}, "validate", nil)
	},
}

var accessDataCmd = &cobra.Command{
	Use:   "data",
	Short: "Fetch the substitute view of a session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return gatewayCall(cmd, func(req *client.GatewayRequest) (json.RawMessage, error) {
			return api.SessionAccess(cmd.Context(), req)
		}, "get_session_data", nil)
	},
}

func init() {
	for _, c := range []*cobra.Command{portalValidateCmd, portalDataCmd, portalChecklistCmd, accessValidateCmd, accessDataCmd} {
		c.Flags().String("link", "", "capability link token")
	}
	portalChecklistCmd.Flags().Bool("done", true, "mark the item done (use --done=false to undo)")

	portalCmd.AddCommand(portalValidateCmd)
	portalCmd.AddCommand(portalDataCmd)
	portalCmd.AddCommand(portalChecklistCmd)
	accessCmd.AddCommand(accessValidateCmd)
	accessCmd.AddCommand(accessDataCmd)
}
