package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	crystallizeCmd := &cobra.Command{
		Use:   "crystallize",
		Short: "Report the most significant echoes",
		Run:   runCrystallize,
	}
	crystallizeCmd.Flags().IntP("top", "k", 10, "Number of echoes to report")
	crystallizeCmd.Flags().Bool("wisdom", false, "Restrict to wisdom-bearing types")

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Show the content-quality report",
		Run:   runHealth,
	}

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Force an immediate snapshot",
		Run:   runSnapshot,
	}

	RootCmd.AddCommand(crystallizeCmd, healthCmd, snapshotCmd)
}

func runCrystallize(cmd *cobra.Command, args []string) {
	k, _ := cmd.Flags().GetInt("top")
	wisdom, _ := cmd.Flags().GetBool("wisdom")

	client, closer, err := connect()
	if err != nil {
		exitErr("connect", err)
	}
	defer closer()

	echoes, err := client.Crystallize(cmd.Context(), k, wisdom)
	if err != nil {
		exitErr("crystallize", err)
	}
	printEchoes(echoes)
}

func runHealth(cmd *cobra.Command, args []string) {
	client, closer, err := connect()
	if err != nil {
		exitErr("connect", err)
	}
	defer closer()

	h, err := client.Health(cmd.Context())
	if err != nil {
		exitErr("health", err)
	}
	b, _ := json.MarshalIndent(h, "", "  ")
	fmt.Println(string(b))
}

func runSnapshot(cmd *cobra.Command, args []string) {
	client, closer, err := connect()
	if err != nil {
		exitErr("connect", err)
	}
	defer closer()

	snap, err := client.Snapshot(cmd.Context())
	if err != nil {
		exitErr("snapshot", err)
	}
	b, _ := json.MarshalIndent(snap, "", "  ")
	fmt.Println(string(b))
}
