package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search arxiv.org and print the newest matching papers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := limit
			if n <= 0 {
				n = a.cfg.SearchMaxResults
			}
			papers, err := a.searchClient().Search(cmd.Context(), strings.Join(args, " "), n)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(papers)
			}
			if len(papers) == 0 {
				fmt.Fprintln(out, "no papers found")
				return nil
			}
			for i, p := range papers {
				fmt.Fprintf(out, "%d. %s [%s] %s\n", i+1, p.Title, p.ID, p.Published.Format("2006-01-02"))
				if len(p.Authors) > 0 {
					fmt.Fprintf(out, "   %s\n", strings.Join(p.Authors, ", "))
				}
				if p.PDFURL != "" {
					fmt.Fprintf(out, "   %s\n", p.PDFURL)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "max", "n", 0, "Number of papers (default from config)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print papers as JSON")
	return cmd
}
