package export

import "strings"

// validateRequest is step 1 of the Export Coordinator's pipeline (spec
// §4.8): required fields, known export_type/template, data/filters mutual
// exclusivity, and program_id's conditional requirement for filter-sourced
// requests.
func validateRequest(req ExportRequest) error {
	if strings.TrimSpace(string(req.ExportType)) == "" {
		return NewError(KindValidation, "export_type is required", nil)
	}
	if strings.TrimSpace(req.TemplateName) == "" {
		return NewError(KindValidation, "template is required", nil)
	}
	if req.OutputFormat != FormatSpreadsheet && req.OutputFormat != FormatCSV {
		return NewError(KindValidation, "output_format must be excel or csv", nil)
	}

	hasInline := req.Data.InlineRows != nil
	hasFilters := req.Data.Filters != nil
	if hasInline == hasFilters {
		return NewError(KindValidation, "exactly one of data or filters is required", nil)
	}

	if hasFilters {
		if err := validateFilterSpec(*req.Data.Filters); err != nil {
			return err
		}
	}

	if _, err := templates.Lookup(req.ExportType, req.TemplateName); err != nil {
		return err
	}

	if req.ChunkSize < 0 {
		return NewError(KindValidation, "chunk_size must not be negative", nil)
	}

	return nil
}

// validateFilterSpec enforces the program_id-required rule and the
// fixed-vocabulary sort_order check. The FilterSpec type itself is closed at
// compile time, so there is no "unknown field" case to reject here; an HTTP
// decoder rejects unknown JSON keys before this point.
func validateFilterSpec(f FilterSpec) error {
	if strings.TrimSpace(f.ProgramID) == "" {
		return NewError(KindValidation, "program_id is required for filter-sourced exports", nil)
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return NewError(KindValidation, "date_from must not be after date_to", nil)
	}
	if f.SortOrder != "" && f.SortOrder != "asc" && f.SortOrder != "desc" {
		return NewError(KindValidation, "sort_order must be asc or desc", nil)
	}
	if f.Limit < 0 {
		return NewError(KindValidation, "limit must not be negative", nil)
	}
	return nil
}
