package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"basegraph.app/issuesearch/internal/search"
)

var (
	flagTextQuery    string
	flagOrganization string
	flagSize         int
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List the tags of visible issues alphabetically",
	RunE: func(cmd *cobra.Command, args []string) error {
		tags, err := current.index.ListTags(cmd.Context(), identity(), flagOrganization, flagTextQuery, flagSize)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), tags)
	},
}

var authorsCmd = &cobra.Command{
	Use:   "authors",
	Short: "List the authors of matching issues alphabetically",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := authorQuery.build(cmd.Flags(), current.location())
		if err != nil {
			return err
		}
		authors, err := current.index.ListAuthors(cmd.Context(), identity(), q, flagTextQuery, flagSize)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), authors)
	},
}

var countTagsCmd = &cobra.Command{
	Use:   "count-tags",
	Short: "Count the tags of matching issues, most used first",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := tagQuery.build(cmd.Flags(), current.location())
		if err != nil {
			return err
		}
		counts, err := current.index.CountTags(cmd.Context(), identity(), q, flagSize)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), counts)
	},
}

func registerListFlags() {
	tagsCmd.Flags().StringVar(&flagOrganization, "organization", "", "organization uuid (all organizations when empty)")
	for _, c := range []*cobra.Command{tagsCmd, authorsCmd} {
		c.Flags().StringVarP(&flagTextQuery, "query", "q", "", "only values containing this text")
	}
	for _, c := range []*cobra.Command{tagsCmd, authorsCmd, countTagsCmd} {
		c.Flags().IntVar(&flagSize, "size", 10, "maximum number of values")
	}
	tagsCmd.Flags().Lookup("size").Usage = fmt.Sprintf("maximum number of tags (at most %d)", search.MaxTagPageSize)

	authorQuery.register(authorsCmd.Flags())
	tagQuery.register(countTagsCmd.Flags())
}
