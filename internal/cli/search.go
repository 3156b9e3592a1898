package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gftdcojp/echo-memory/pkg/ecm"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Search echoes ranked by significance",
		Args:  cobra.MaximumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().StringP("author", "a", "", "Filter by author")
	cmd.Flags().String("type", "", "Filter by echo type")
	cmd.Flags().String("layer", "", "Filter by layer (immediate, recent, deep, ancient, eternal)")
	cmd.Flags().IntP("limit", "n", 10, "Maximum results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	author, _ := cmd.Flags().GetString("author")
	echoType, _ := cmd.Flags().GetString("type")
	layerName, _ := cmd.Flags().GetString("layer")
	limit, _ := cmd.Flags().GetInt("limit")

	text := ""
	if len(args) > 0 {
		text = args[0]
	}

	client, closer, err := connect()
	if err != nil {
		exitErr("connect", err)
	}
	defer closer()

	echoes, err := client.Search(cmd.Context(), ecm.SearchParams{
		Text:   text,
		Author: author,
		Type:   echoType,
		Layer:  layerName,
		Limit:  limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	printEchoes(echoes)
}

func printEchoes(echoes []*ecm.Echo) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCORE\tLAYER\tTYPE\tAUTHOR\tCONTENT")
	for _, e := range echoes {
		content := e.Content
		if len(content) > 48 {
			content = content[:45] + "..."
		}
		fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\t%s\t%s\n",
			e.ID, e.Score(), e.Layer, e.Type, e.Author, content)
	}
	w.Flush()
}
