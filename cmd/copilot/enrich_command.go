package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/netcopilot/api/internal/agent"
)

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "enrich <profile.json|->",
		Short: "Run the enrichment crew on a profile record or list of records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return fmt.Errorf("read profile: %w", err)
			}
			if !json.Valid(data) {
				return fmt.Errorf("%s is not valid JSON", args[0])
			}
			c, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			outputs, err := c.Lookup.RunCrew(cmd.Context(), data)
			if err != nil {
				return err
			}
			return writeJSON(cmd, outputs)
		},
	}
}

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "capture <image>",
		Short: "Run the capture pipeline on a badge or card image and save the contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			c, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.ErrOrStderr()
			record, err := c.Capture.ProcessCapture(cmd.Context(), image, filepath.Base(args[0]), progressPrinter(out))
			if err != nil {
				return err
			}
			return writeJSON(cmd, record)
		},
	}
}

func newPeopleCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var summary bool
	cmd := &cobra.Command{
		Use:   "people",
		Short: "List saved contacts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			people, err := c.People.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if !summary {
				return writeJSON(cmd, people)
			}
			for i := range people {
				fmt.Fprintln(cmd.OutOrStdout(), agent.FormatPersonSummary(&people[i]))
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of contacts")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print short text summaries instead of JSON")
	return cmd
}
