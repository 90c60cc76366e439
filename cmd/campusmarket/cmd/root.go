package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "campusmarket",
	Short: "CampusMarket is a university community marketplace",
	Long: `A marketplace backend for a university community: item listings,
roommate ads, trades, and chats, behind cookie-session authentication.
Configuration is read from CM_* environment variables.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
