// Package exportsql adapts a bun-backed relational store to the export
// package's RowSource contract (spec §3 "Source Adapter").
package exportsql

import (
	"fmt"
	"sync"

	"github.com/goliatone/go-export/export"
)

// TableConfig describes how one export.ExportType maps onto a SQL table:
// which column backs each categorical/date/join predicate FilterSpec can
// express, so the Source never has to special-case a dataset by name.
type TableConfig struct {
	Table        string
	DateField    string // column backing FilterSpec.DateFrom/DateTo
	ProgramField string // column backing FilterSpec.ProgramID

	// JoinExists maps a FilterSpec.Exists token (e.g. "has_payment") to a
	// correlated-subquery fragment, e.g. "EXISTS (SELECT 1 FROM payments p
	// WHERE p.participant_id = t.id)". "t" is always the base table's alias.
	JoinExists map[string]string

	// SortableFields allow-lists the column names FilterSpec.SortBy may
	// reference. A sort_by value outside this set is rejected before it
	// ever reaches a query, since it otherwise flows into the ORDER BY
	// clause as caller-controlled text.
	SortableFields []string
}

// IsSortable reports whether field is one of cfg's allow-listed sort
// columns.
func (cfg TableConfig) IsSortable(field string) bool {
	for _, f := range cfg.SortableFields {
		if f == field {
			return true
		}
	}
	return false
}

// Registry holds the per-export-type table configuration. It is populated
// once at startup (see cmd/server/main.go) and read concurrently by Source,
// mirroring the teacher's RWMutex-guarded named-query registry.
type Registry struct {
	mu      sync.RWMutex
	tables  map[export.ExportType]TableConfig
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[export.ExportType]TableConfig)}
}

// Register binds a TableConfig to an export type.
func (r *Registry) Register(exportType export.ExportType, cfg TableConfig) error {
	if cfg.Table == "" {
		return export.NewError(export.KindValidation, fmt.Sprintf("table name is required for %q", exportType), nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[exportType] = cfg
	return nil
}

// Resolve returns the TableConfig for an export type.
func (r *Registry) Resolve(exportType export.ExportType) (TableConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.tables[exportType]
	return cfg, ok
}
