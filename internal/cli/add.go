package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gftdcojp/echo-memory/pkg/ecm"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Record a new echo",
		Args:  cobra.ExactArgs(1),
		Run:   runAdd,
	}

	cmd.Flags().StringP("author", "a", "", "Author of the echo (required)")
	cmd.Flags().String("type", "interaction", "Echo type (interaction, emotion, wisdom, memory, dream, question, revelation)")
	cmd.Flags().Float64P("weight", "w", 0, "Initial weight (server default when omitted)")
	cmd.Flags().StringToString("meta", nil, "Metadata key=value pairs")

	cmd.MarkFlagRequired("author")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	author, _ := cmd.Flags().GetString("author")
	echoType, _ := cmd.Flags().GetString("type")
	meta, _ := cmd.Flags().GetStringToString("meta")

	params := ecm.AddParams{
		Content:  args[0],
		Author:   author,
		Type:     echoType,
		Metadata: meta,
	}
	if cmd.Flags().Changed("weight") {
		w, _ := cmd.Flags().GetFloat64("weight")
		params.Weight = &w
	}

	client, closer, err := connect()
	if err != nil {
		exitErr("connect", err)
	}
	defer closer()

	echo, err := client.Add(cmd.Context(), params)
	if err != nil {
		exitErr("add", err)
	}

	b, _ := json.MarshalIndent(echo, "", "  ")
	fmt.Println(string(b))
}
