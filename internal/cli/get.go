package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch an echo without strengthening it",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	retrieveCmd := &cobra.Command{
		Use:   "retrieve <id>",
		Short: "Recall an echo, bumping its resonance and weight",
		Args:  cobra.ExactArgs(1),
		Run:   runRetrieve,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an echo",
		Args:  cobra.ExactArgs(1),
		Run:   runDelete,
	}

	RootCmd.AddCommand(getCmd, retrieveCmd, deleteCmd)
}

func runGet(cmd *cobra.Command, args []string) {
	client, closer, err := connect()
	if err != nil {
		exitErr("connect", err)
	}
	defer closer()

	echo, err := client.Get(cmd.Context(), args[0])
	if err != nil {
		exitErr("get", err)
	}
	b, _ := json.MarshalIndent(echo, "", "  ")
	fmt.Println(string(b))
}

func runRetrieve(cmd *cobra.Command, args []string) {
	client, closer, err := connect()
	if err != nil {
		exitErr("connect", err)
	}
	defer closer()

	echo, err := client.Retrieve(cmd.Context(), args[0])
	if err != nil {
		exitErr("retrieve", err)
	}
	b, _ := json.MarshalIndent(echo, "", "  ")
	fmt.Println(string(b))
}

func runDelete(cmd *cobra.Command, args []string) {
	client, closer, err := connect()
	if err != nil {
		exitErr("connect", err)
	}
	defer closer()

	if err := client.Delete(cmd.Context(), args[0]); err != nil {
		exitErr("delete", err)
	}
	fmt.Println("deleted")
}
