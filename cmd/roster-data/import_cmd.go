package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/munigov/munigov-sdk/modules/roster/services"
)

type importOptions struct {
	file         string
	termID       uuid.UUID
	strategy     services.Strategy
	allowPartial bool
	apply        bool
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a roster file into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Roster file, csv or xlsx (required)")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Apply changes to DB (default is dry-run: validate and print the report)")
	cmd.Flags().BoolVar(&opts.allowPartial, "allow-partial", false, "Import clean rows even when the batch has validation issues")
	var termFlag, strategyFlag string
	cmd.Flags().StringVar(&termFlag, "term", "", "Governing term UUID (required)")
	cmd.Flags().StringVar(&strategyFlag, "strategy", "skip", "Duplicate strategy: skip, update or restore")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("term")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(strings.TrimSpace(termFlag))
		if err != nil {
			return withCode(exitUsage, fmt.Errorf("invalid --term: %w", err))
		}
		opts.termID = id

		strategy, ok := services.ParseStrategy(strategyFlag)
		if !ok {
			return withCode(exitUsage, fmt.Errorf("invalid --strategy %q (expected skip, update or restore)", strategyFlag))
		}
		opts.strategy = strategy
		return nil
	}

	return cmd
}

func runImport(ctx context.Context, opts importOptions) error {
	file, format, err := openRosterFile(opts.file)
	if err != nil {
		return err
	}
	defer file.Close()

	pool, err := openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	ctx = commandContext(ctx, pool)

	svc := newImportService()
	input := services.ImportInput{
		File:   file,
		Format: format,
		TermID: opts.termID,
	}

	if !opts.apply {
		report, err := svc.Validate(ctx, input)
		if err != nil {
			return mapServiceError(err)
		}
		return writeJSONLine(report)
	}

	report, err := svc.Import(ctx, input, services.ImportOptions{
		Strategy:     opts.strategy,
		AllowPartial: opts.allowPartial,
	})
	if err != nil {
		return mapServiceError(err)
	}
	return writeJSONLine(report)
}
