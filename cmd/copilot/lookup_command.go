package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netcopilot/api/internal/model"
)

type searchFlags struct {
	first   string
	last    string
	context string
	url     string
}

func (f *searchFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.first, "first", "", "First name")
	cmd.Flags().StringVar(&f.last, "last", "", "Last name")
	cmd.Flags().StringVar(&f.context, "context", "", "Additional context such as company or links")
	cmd.Flags().StringVar(&f.url, "search-url", "", "Search URL override")
	_ = cmd.MarkFlagRequired("first")
	_ = cmd.MarkFlagRequired("last")
}

func (f *searchFlags) request() *model.SearchRequest {
	return &model.SearchRequest{
		FirstName:         f.first,
		LastName:          f.last,
		AdditionalContext: f.context,
		LinkedInURL:       f.url,
	}
}

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Search, select and enrich a person (cached)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			result, err := c.Lookup.SearchAndEnrich(cmd.Context(), flags.request())
			if err != nil {
				return fmt.Errorf("lookup %s %s: %w", flags.first, flags.last, err)
			}
			return writeJSON(cmd, result)
		},
	}
	flags.bind(cmd)
	return cmd
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search and select the best matching profile without enrichment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			selection, err := c.Lookup.SearchProfile(cmd.Context(), flags.request())
			if err != nil {
				return fmt.Errorf("search %s %s: %w", flags.first, flags.last, err)
			}
			return writeJSON(cmd, model.SearchResponse{
				SelectedProfile:   selection.Selected,
				SelectorRationale: selection.Rationale,
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func newFetchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <profile-url>",
		Short: "Fetch a profile snapshot by URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			snapshot, err := c.Lookup.FetchProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, snapshot)
		},
	}
}
