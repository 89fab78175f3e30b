package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/clearbrook/screend/internal/client"
	"github.com/clearbrook/screend/internal/ui"
)

var (
	serverURL  string
	authToken  string
	jsonOutput bool

	api *client.HTTPClient
)

func defaultServerURL() string {
	if s := os.Getenv("SCREEND_SERVER"); s != "" {
		return s
	}
	if u := activeRemoteURL(); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultAuthToken() string {
	if t := os.Getenv("SCREEND_AUTH_TOKEN"); t != "" {
		return t
	}
	return activeRemoteToken()
}

var rootCmd = &cobra.Command{
	Use:   "screend <command>",
	Short: "Screening session service and operator CLI",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		api = client.NewHTTPClient(serverURL, authToken)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if api != nil {
			api.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServerURL(), "server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultAuthToken(), "operator bearer token")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(studentCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(portalCmd)
	rootCmd.AddCommand(accessCmd)
	rootCmd.AddCommand(remoteCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
