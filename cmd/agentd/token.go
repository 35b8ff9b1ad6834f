package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/agentd/internal/config"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the daemon's bearer token",
	}
	cmd.AddCommand(tokenShowCmd())
	cmd.AddCommand(tokenRotateCmd())
	return cmd
}

func tokenShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current bearer token, generating one if none exists",
		Run: func(cmd *cobra.Command, args []string) {
			tok, err := loadOrCreateToken()
			if err != nil {
				fmt.Fprintf(os.Stderr, "token show: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(tok)
		},
	}
}

func tokenRotateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rotate",
		Short: "Generate and persist a new bearer token",
		Run: func(cmd *cobra.Command, args []string) {
			tok, err := rotateToken()
			if err != nil {
				fmt.Fprintf(os.Stderr, "token rotate: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(tok)
		},
	}
}

// loadOrCreateToken and rotateToken are thin wrappers over
// internal/config's token persistence (0600 file under ConfigDir) so the
// CLI and the daemon's --new-token/--show-token serve flags share one
// on-disk token format.
func loadOrCreateToken() (string, error) {
	return config.LoadToken()
}

func rotateToken() (string, error) {
	return config.RotateToken()
}
