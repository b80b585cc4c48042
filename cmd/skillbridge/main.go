// SkillBridge — skill-based matching platform for internal challenges.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "skillbridge",
	Short: "SkillBridge — skill-based matching platform for internal challenges.",
	Long: `SkillBridge connects employees to internal challenges based on their skills.
It serves an HTTP API for profiles, challenges, chat, and a leaderboard, with
LLM-assisted profile suggestions that degrade to a deterministic matcher when
no provider is configured.`,
	RunE:          runServe, // Default to server mode.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, seedCmd, versionCmd)
	_ = godotenv.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
