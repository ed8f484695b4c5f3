package command

import (
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-export/export"
)

// CreateExport runs one export job through the Export Coordinator.
type CreateExport struct {
	Request export.ExportRequest
	Result  *export.ExportRecord
}

func (CreateExport) Type() string { return "export:create" }

func (msg CreateExport) Validate() error {
	if msg.Request.ExportType == "" {
		return errors.New("export_type is required", errors.CategoryValidation).
			WithTextCode("EXPORT_TYPE_REQUIRED")
	}
	if msg.Request.TemplateName == "" {
		return errors.New("template is required", errors.CategoryValidation).
			WithTextCode("TEMPLATE_REQUIRED")
	}
	return nil
}

// CleanupExports runs a regular registry sweep: TTL eviction, then
// keep-last-N, then storage-pressure eviction (spec §4.7).
type CleanupExports struct {
	Result *int
}

func (CleanupExports) Type() string { return "export:cleanup" }

func (CleanupExports) Validate() error { return nil }

// ForceCleanup evicts every live export record regardless of TTL, keep-N,
// or storage pressure (the POST /cleanup/force administrative override in
// spec §6.1).
type ForceCleanup struct {
	Now time.Time
}

func (ForceCleanup) Type() string { return "export:cleanup:force" }

func (ForceCleanup) Validate() error { return nil }
