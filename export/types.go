// Package export implements the Export Engine: validation, field projection,
// spreadsheet writing, archiving, retention, and download serving for large
// tabular exports.
package export

import (
	"context"
	"io"
	"time"
)

// Format is the requested output format for an export.
type Format string

const (
	FormatSpreadsheet Format = "excel"
	FormatCSV         Format = "csv"
)

// ExportType is the closed set of dataset kinds the engine knows how to export.
type ExportType string

const (
	TypeParticipants ExportType = "participants"
	TypePayments     ExportType = "payments"
	TypeAmbassadors  ExportType = "ambassadors"
)

// Value is a single scalar field value. Absence and explicit null are
// equivalent: a Record simply omits the key.
type Value any

// Record is an ordered mapping from field name to scalar value, as produced
// by an inline request body or a Source Adapter row.
type Record map[string]Value

// Strategy is the Strategy Planner's single/multi decision.
type Strategy string

const (
	StrategySingle Strategy = "single"
	StrategyMulti  Strategy = "multi"
)

// SortOrder is an advisory sort hint passed to the Source Adapter.
type SortOrder struct {
	Field string
	Desc  bool
}

// FilterSpec is the closed set of predicates the Source Adapter understands.
// Unknown fields are a validation error (enforced by the HTTP decoder, not
// here, since this type is built only from already-validated input).
type FilterSpec struct {
	ProgramID string `json:"program_id,omitempty"`

	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Equality and membership predicates over categorical fields, e.g.
	// Equals {"category": "scholar"} or In {"status": ["approved", "pending"]}.
	Equals  map[string]string   `json:"equals,omitempty"`
	In      map[string][]string `json:"in,omitempty"`

	// Join-based existence predicates, e.g. "has_payment", "has_form".
	Exists []string `json:"exists,omitempty"`

	Limit int `json:"limit,omitempty"`

	SortBy    string `json:"sort_by,omitempty"`
	SortOrder string `json:"sort_order,omitempty"`
}

// DataSource is the mutually exclusive choice between inline rows and a
// filter-driven query against the Source Adapter.
type DataSource struct {
	InlineRows []Record
	Filters    *FilterSpec
}

// IsInline reports whether the request supplies rows directly.
func (d DataSource) IsInline() bool {
	return d.InlineRows != nil
}

// ExportRequest is the validated input to the Export Coordinator.
type ExportRequest struct {
	ExportType     ExportType
	TemplateName   string
	OutputFormat   Format
	FilenameHint   string
	SheetLabelHint string
	Data           DataSource
	ChunkSize      int
	ForceChunking  bool
	RequestID      string
}

// ColumnDescriptor is the immutable tuple describing one output column.
type ColumnDescriptor struct {
	SourceField    string
	HeaderLabel    string
	TransformKind  TransformKind
	TransformParams map[string]any
}

// Template is a named, ordered list of column descriptors with its limits.
// Templates are code-defined and immutable at runtime; see templates.go.
type Template struct {
	ExportType            ExportType
	Name                  string
	Columns               []ColumnDescriptor
	MaxRecordsSingleFile  int
	RecommendedChunkSize  int
	IncludesSensitive     bool
}

// Row is a header-aligned slice of already-transformed presentation values.
type Row []string

// RowIterator is a restartable finite iterator over Records. Next returns
// io.EOF once exhausted. Close releases any underlying resources (a cursor,
// a connection) and must be safe to call more than once.
type RowIterator interface {
	Next(ctx context.Context) (Record, error)
	Close() error
}

// RowEmitter yields header-aligned, transformed output rows: the Row
// Projector's output, and what the CSV and Workbook writers consume. The
// header row (when present) is just another element, emitted first.
type RowEmitter interface {
	Next(ctx context.Context) (Row, error)
	Close() error
}

// RowSource provides a restartable finite row iterator given a FilterSpec,
// and can report the total matching row count without materializing rows.
// This is the external Source Adapter contract (spec §3): only this
// interface is specified, not any particular backing store.
type RowSource interface {
	Count(ctx context.Context, exportType ExportType, filters FilterSpec) (int, error)
	Open(ctx context.Context, exportType ExportType, filters FilterSpec) (RowIterator, error)
}

// Artifact is an in-memory byte buffer representing one downloadable file.
type Artifact struct {
	Bytes             []byte
	MimeType          string
	SuggestedFilename string
	UncompressedSize  int64
	RecordCount       int
}

// ChunkRange is the inclusive, 1-indexed record range a chunk covers.
type ChunkRange struct {
	BatchNumber int
	From        int
	To          int
}

// ChunkArtifact pairs a chunk's artifact with its record range.
type ChunkArtifact struct {
	Artifact Artifact
	Range    ChunkRange
}

// ArchiveArtifact is the compressed bundle of chunk artifacts.
type ArchiveArtifact struct {
	Artifact         Artifact
	UncompressedTotal int64
	CompressedTotal   int64
	CompressionRatio  float64
}

// ExportArtifacts holds either a single artifact or a chunk set plus archive,
// matching the ExportRecord.artifacts union in spec §3.
type ExportArtifacts struct {
	Single  *Artifact
	Chunks  []ChunkArtifact
	Archive *ArchiveArtifact
}

// ProcessingMetrics captures the Export Coordinator's measurements.
type ProcessingMetrics struct {
	ElapsedMS       int64
	PeakRSSMB       *float64
	BytesPerRecord  float64
	RecordsPerSecond float64
	PerChunkElapsedMS []int64
}

// ExportRecord is the Export Registry's entry for one completed export job.
type ExportRecord struct {
	ID                string
	Strategy          Strategy
	Artifacts         ExportArtifacts
	ExportType        ExportType
	TemplateName      string
	RecordCount       int
	CreatedAt         time.Time
	ExpiresAt         time.Time
	ProcessingMetrics ProcessingMetrics

	tombstoned bool
	refCount   int
}

// Logger provides the narrow logging hooks components depend on so this
// package never takes a dependency on a concrete logging library.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger discards everything; useful in tests.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

// ArtifactMirror persists a completed record's artifact bytes somewhere
// outside the in-memory registry (spec.md Lifecycle: "stateless across
// restarts except for on-disk artifacts"). The Coordinator calls Persist
// best-effort after a successful Insert; a mirror failure is logged, never
// fails the export job. Registry.SetEvictionHook is the matching cleanup
// half: when the registry actually drops a record, the hook should call
// back into the mirror to remove its copy.
type ArtifactMirror interface {
	Persist(record *ExportRecord) error
}

// countingWriter and stringify live in render_helpers.go.
var _ io.Writer = (*countingWriter)(nil)
