package services

// buildValidationReport folds per-row outcomes into the report returned by
// Validate. Row order mirrors file order.
func buildValidationReport(rows []*CandidateRow) *ValidationReport {
	report := &ValidationReport{
		Rows: make([]ValidationRow, 0, len(rows)),
	}
	report.Summary.TotalRecords = len(rows)

	for _, row := range rows {
		if row.Valid() {
			report.Summary.ValidRecords++
		} else {
			report.Summary.InvalidRecords++
		}
		if row.Duplicate.InFile || row.Duplicate.InDBActive || row.Duplicate.InDBInactive {
			report.Summary.DuplicateRecords++
		}
		if row.Duplicate.InFile {
			report.Summary.DuplicateInFile++
		}
		if row.Duplicate.InDBActive {
			report.Summary.DuplicateInDBActive++
		}
		if row.Duplicate.InDBInactive {
			report.Summary.DuplicateInDBInactive++
		}

		issues := row.Issues
		if issues == nil {
			issues = []Issue{}
		}
		report.Rows = append(report.Rows, ValidationRow{
			RowNumber:        row.RowNumber,
			Status:           row.Status,
			Issues:           issues,
			Normalized:       row.normalizedFields(),
			ResolvedUnitName: row.UnitName,
			Duplicate:        row.Duplicate,
		})
	}
	return report
}

func newImportReport(total int, strategy Strategy) *ImportReport {
	return &ImportReport{
		Summary: ImportSummary{Total: total, DuplicateStrategy: strategy},
		Rows:    make([]ImportRow, 0, total),
	}
}

func (r *ImportReport) add(row *CandidateRow, action ImportAction, message string) {
	switch action {
	case ActionCreated:
		r.Summary.Created++
	case ActionUpdated:
		r.Summary.Updated++
	case ActionRestored:
		r.Summary.Restored++
	case ActionSkipped:
		r.Summary.Skipped++
	case ActionFailed:
		r.Summary.Failed++
	}
	r.Rows = append(r.Rows, ImportRow{
		RowNumber: row.RowNumber,
		Action:    action,
		Message:   message,
		Data:      row.normalizedFields(),
	})
}
