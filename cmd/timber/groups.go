package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/crimson-sun/timber/internal/engine/taxonomy"
)

var groupsJSON bool

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List the task groups and the events classified into each",
	RunE: func(cmd *cobra.Command, args []string) error {
		tax := taxonomy.New(taxonomy.DefaultGroups())
		if groupsJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tax.Groups())
		}

		bold := color.New(color.Bold).SprintFunc()
		dim := color.New(color.FgHiBlack).SprintFunc()
		w := cmd.OutOrStdout()
		for _, g := range tax.Groups() {
			fmt.Fprintf(w, "%s %s\n", bold(g.Label), dim("("+string(g.ID)+")"))
			if g.Desc != "" {
				fmt.Fprintf(w, "  %s\n", g.Desc)
			}
			if len(g.Events) > 0 {
				fmt.Fprintf(w, "  %s\n", strings.Join(g.Events, ", "))
			}
		}
		return nil
	},
}

func init() {
	groupsCmd.Flags().BoolVar(&groupsJSON, "json", false, "print the catalog as JSON")
}
