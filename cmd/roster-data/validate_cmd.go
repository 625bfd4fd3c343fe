package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/munigov/munigov-sdk/modules/roster/services"
)

type validateOptions struct {
	file   string
	termID uuid.UUID
}

func newValidateCmd() *cobra.Command {
	var opts validateOptions

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a roster file without writing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Roster file, csv or xlsx (required)")
	var termFlag string
	cmd.Flags().StringVar(&termFlag, "term", "", "Governing term UUID (required)")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("term")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(strings.TrimSpace(termFlag))
		if err != nil {
			return withCode(exitUsage, fmt.Errorf("invalid --term: %w", err))
		}
		opts.termID = id
		return nil
	}

	return cmd
}

func runValidate(ctx context.Context, opts validateOptions) error {
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

	report, err := newImportService().Validate(ctx, services.ImportInput{
		File:   file,
		Format: format,
		TermID: opts.termID,
	})
	if err != nil {
		return mapServiceError(err)
	}
	if err := writeJSONLine(report); err != nil {
		return err
	}
	if report.Summary.InvalidRecords > 0 {
		return withCode(exitValidation, fmt.Errorf("%d of %d rows are invalid", report.Summary.InvalidRecords, report.Summary.TotalRecords))
	}
	return nil
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, services.ErrMalformedInput),
		errors.Is(err, services.ErrSchemaMismatch),
		errors.Is(err, services.ErrTooManyRows),
		errors.Is(err, services.ErrBatchNotClean):
		return withCode(exitValidation, err)
	case errors.Is(err, services.ErrImportConflict):
		return withCode(exitConflict, err)
	default:
		return withCode(exitDB, err)
	}
}
