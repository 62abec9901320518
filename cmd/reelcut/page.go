package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newPageCmd(load loader) *cobra.Command {
	var size int
	var specialty string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "page [index]",
		Short: "Print one page from the configured source",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			index := 0
			if len(args) == 1 {
				index, err = strconv.Atoi(args[0])
				if err != nil || index < 0 {
					return fmt.Errorf("invalid page index %q", args[0])
				}
			}
			if size <= 0 {
				size = cfg.Feed.PageSize
			}
			if specialty != "" {
				cfg.Feed.Specialty = specialty
			}

			ctx := cmd.Context()
			src, closeSrc, err := openSource(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeSrc()

			items, err := src.Query(ctx, index, size, criterion(cfg))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}
			if len(items) == 0 {
				fmt.Fprintf(out, "Page %d is empty.\n", index)
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tAUTHOR\tSPECIALTY\tCREATED\tLIKES\tCAPTION")
			for _, it := range items {
				author := it.AuthorName
				if author == "" {
					author = it.AuthorID
				}
				fmt.Fprintf(tw, "%s\t@%s\t%s\t%s\t%d\t%s\n",
					truncate(it.ID, 12), author, it.Specialty,
					it.CreatedAt.Local().Format("2006-01-02 15:04"), it.Counters.Likes, truncate(it.Caption, 40))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&size, "size", "n", 0, "page size (default feed.page_size)")
	cmd.Flags().StringVarP(&specialty, "specialty", "s", "", "filter by specialty")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print items as JSON")
	return cmd
}
