package exportsql

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goliatone/go-export/export"
	"github.com/uptrace/bun"
)

// Source implements export.RowSource against a bun-backed relational store.
// One Source serves every export type the Registry knows a TableConfig for.
type Source struct {
	DB       *bun.DB
	Registry *Registry
}

// NewSource builds a bun-backed Source Adapter.
func NewSource(db *bun.DB, reg *Registry) *Source {
	return &Source{DB: db, Registry: reg}
}

// Count reports how many rows match filters, without materializing them.
func (s *Source) Count(ctx context.Context, exportType export.ExportType, filters export.FilterSpec) (int, error) {
	cfg, ok := s.lookup(exportType)
	if !ok {
		return 0, export.NewError(export.KindSourceUnavailable, fmt.Sprintf("no table configured for export type %q", exportType), nil)
	}
	q := s.baseQuery(cfg, filters)
	count, err := q.Count(ctx)
	if err != nil {
		return 0, export.NewError(export.KindSourceUnavailable, "count query failed", err)
	}
	return count, nil
}

// Open executes the filtered query and returns a restartable row iterator.
// Restartable here means Close releases the cursor; a second Open call
// re-executes the query fresh, since *sql.Rows itself cannot be rewound.
func (s *Source) Open(ctx context.Context, exportType export.ExportType, filters export.FilterSpec) (export.RowIterator, error) {
	cfg, ok := s.lookup(exportType)
	if !ok {
		return nil, export.NewError(export.KindSourceUnavailable, fmt.Sprintf("no table configured for export type %q", exportType), nil)
	}
	q := s.baseQuery(cfg, filters)
	if filters.SortBy != "" {
		if !cfg.IsSortable(filters.SortBy) {
			return nil, export.NewError(export.KindValidation, fmt.Sprintf("sort_by %q is not a sortable field for %q", filters.SortBy, exportType), nil)
		}
		if strings.EqualFold(filters.SortOrder, "desc") {
			q = q.OrderExpr("? DESC", bun.Ident(filters.SortBy))
		} else {
			q = q.OrderExpr("? ASC", bun.Ident(filters.SortBy))
		}
	}
	if filters.Limit > 0 {
		q = q.Limit(filters.Limit)
	}

	rows, err := q.Rows(ctx)
	if err != nil {
		return nil, export.NewError(export.KindSourceUnavailable, "query execution failed", err)
	}
	return newSQLIterator(rows)
}

func (s *Source) lookup(exportType export.ExportType) (TableConfig, bool) {
	if s.Registry == nil {
		return TableConfig{}, false
	}
	return s.Registry.Resolve(exportType)
}

// baseQuery applies FilterSpec's closed predicate set (spec §3) to a plain
// table scan: program_id equality, a date window, categorical equals/in,
// and join-exists correlated subqueries.
func (s *Source) baseQuery(cfg TableConfig, filters export.FilterSpec) *bun.SelectQuery {
	q := s.DB.NewSelect().TableExpr(cfg.Table + " AS t").ColumnExpr("t.*")

	if filters.ProgramID != "" && cfg.ProgramField != "" {
		q = q.Where("t.? = ?", bun.Ident(cfg.ProgramField), filters.ProgramID)
	}
	if cfg.DateField != "" {
		if filters.DateFrom != nil {
			q = q.Where("t.? >= ?", bun.Ident(cfg.DateField), *filters.DateFrom)
		}
		if filters.DateTo != nil {
			q = q.Where("t.? <= ?", bun.Ident(cfg.DateField), *filters.DateTo)
		}
	}
	for field, value := range filters.Equals {
		q = q.Where("t.? = ?", bun.Ident(field), value)
	}
	for field, values := range filters.In {
		if len(values) == 0 {
			continue
		}
		q = q.Where("t.? IN (?)", bun.Ident(field), bun.In(values))
	}
	for _, token := range filters.Exists {
		if fragment, ok := cfg.JoinExists[token]; ok {
			q = q.Where(fragment)
		}
	}

	return q
}

// sqlIterator adapts *sql.Rows to export.RowIterator, converting each row
// into a Record keyed by its column name.
type sqlIterator struct {
	rows    *sql.Rows
	columns []string
	closed  bool
}

func newSQLIterator(rows *sql.Rows) (*sqlIterator, error) {
	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, export.NewError(export.KindSourceUnavailable, "failed to read result columns", err)
	}
	return &sqlIterator{rows: rows, columns: columns}, nil
}

func (it *sqlIterator) Next(ctx context.Context) (export.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return nil, export.NewError(export.KindSourceUnavailable, "row iteration failed", err)
		}
		return nil, io.EOF
	}

	values := make([]any, len(it.columns))
	pointers := make([]any, len(it.columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	if err := it.rows.Scan(pointers...); err != nil {
		return nil, export.NewError(export.KindSourceUnavailable, "row scan failed", err)
	}

	record := make(export.Record, len(it.columns))
	for i, col := range it.columns {
		record[col] = normalizeScanValue(values[i])
	}
	return record, nil
}

func (it *sqlIterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	return it.rows.Close()
}

// normalizeScanValue converts driver-returned []byte and time values into
// the plain scalars the Value Transformer expects.
func normalizeScanValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val
	default:
		return val
	}
}
