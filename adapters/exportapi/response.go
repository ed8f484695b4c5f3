package exportapi

import "io"

// Response provides a minimal response interface for transport adapters.
type Response interface {
	SetHeader(name, value string)
	DelHeader(name string)
	WriteHeader(status int)
	Write(data []byte) (int, error)
	WriteJSON(status int, payload any) error
	Writer() (io.Writer, bool)
}

// successEnvelope is the spec §6.1 success response shape.
type successEnvelope struct {
	Status             string `json:"status"`
	Data               any    `json:"data,omitempty"`
	PerformanceMetrics any    `json:"performance_metrics,omitempty"`
	SystemInfo         any    `json:"system_info,omitempty"`
}

// errorEnvelope is the spec §6.1 error response shape.
type errorEnvelope struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code"`
	RequestID string `json:"request_id,omitempty"`
}

// individualFilePayload describes one chunk in a multi-strategy response.
type individualFilePayload struct {
	BatchNumber int    `json:"batch_number"`
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`
	RecordCount int    `json:"record_count"`
	RecordRange string `json:"record_range"`
}

// archivePayload describes the archive summary in a multi-strategy response.
type archivePayload struct {
	Filename         string  `json:"filename"`
	CompressedSize   int64   `json:"compressed_size"`
	UncompressedSize int64   `json:"uncompressed_size"`
	CompressionRatio float64 `json:"compression_ratio"`
}

// createExportPayload is data.* for POST /export/{type} (spec §6.1).
type createExportPayload struct {
	ExportID        string                  `json:"export_id"`
	FileName        string                  `json:"file_name,omitempty"`
	FileSize        int64                   `json:"file_size,omitempty"`
	RecordCount     int                     `json:"record_count"`
	DownloadURL     string                  `json:"download_url"`
	ExpiresAt       string                  `json:"expires_at"`
	TotalFiles      int                     `json:"total_files,omitempty"`
	IndividualFiles []individualFilePayload `json:"individual_files,omitempty"`
	Archive         *archivePayload         `json:"archive,omitempty"`
}

// statusPayload is data.* for GET /export/{id}/status (spec §6.1).
type statusPayload struct {
	ExportID          string `json:"export_id"`
	Strategy          string `json:"strategy"`
	ExportType        string `json:"export_type"`
	Template          string `json:"template"`
	RecordCount       int    `json:"record_count"`
	FileSize          int64  `json:"file_size,omitempty"`
	CreatedAt         string `json:"created_at"`
	ExpiresAt         string `json:"expires_at"`
	ElapsedMS         int64  `json:"elapsed_ms"`
	BytesPerRecord    float64 `json:"bytes_per_record,omitempty"`
	RecordsPerSecond  float64 `json:"records_per_second,omitempty"`
}

// templatePayload is one entry of data.templates for GET /templates/{type}.
type templatePayload struct {
	Name                 string   `json:"name"`
	Columns              []string `json:"columns"`
	MaxRecordsSingleFile int      `json:"max_records_single_file"`
	RecommendedChunkSize int      `json:"recommended_chunk_size"`
	IncludesSensitive    bool     `json:"includes_sensitive"`
}

// storageInfoPayload is data.* for GET /storage/info.
type storageInfoPayload struct {
	TotalBytes   int64 `json:"total_bytes"`
	RecordCount  int   `json:"record_count"`
	WarningBytes int64 `json:"warning_bytes,omitempty"`
	CleanupBytes int64 `json:"cleanup_bytes,omitempty"`
	OverWarning  bool  `json:"over_warning"`
}

// healthPayload is data.* for GET /health.
type healthPayload struct {
	Status        string `json:"status"`
	SourceWired   bool   `json:"source_wired"`
	RegistrySize  int    `json:"registry_size"`
}
