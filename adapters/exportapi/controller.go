// Package exportapi is the transport-agnostic HTTP surface for the export
// engine (spec §6.1): one Controller method per route, talking only to the
// Request/Response interfaces so any router adapter (see
// adapters/router) can drive it.
package exportapi

import (
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/goliatone/go-export/export"
)

// Config wires a Controller's dependencies.
type Config struct {
	Coordinator *export.Coordinator
	Registry    *export.Registry
	Logger      export.Logger
}

// Controller implements every route in spec §6.1.
type Controller struct {
	coordinator *export.Coordinator
	registry    *export.Registry
	logger      export.Logger
	requestSeq  uint64
}

// NewController builds a Controller from its dependencies.
func NewController(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = export.NopLogger{}
	}
	return &Controller{coordinator: cfg.Coordinator, registry: cfg.Registry, logger: logger}
}

// HandleCreate serves POST /export/{type} (spec §6.1).
func (c *Controller) HandleCreate(req Request, res Response) {
	exportType := export.ExportType(req.Param("type"))
	if !isKnownExportType(exportType) {
		c.writeError(res, req, export.NewError(export.KindValidation, "unknown export type", nil))
		return
	}

	decoded, err := DecodeRequest(req, exportType)
	if err != nil {
		c.writeError(res, req, err)
		return
	}

	record, err := c.coordinator.Run(req.Context(), decoded)
	if err != nil {
		c.writeError(res, req, err)
		return
	}

	c.writeSuccess(res, http.StatusOK, createExportPayloadFrom(record), nil, nil)
}

// HandleStatus serves GET /export/{id}/status.
func (c *Controller) HandleStatus(req Request, res Response) {
	id := req.Param("id")
	record, err := c.registry.LookupAndPin(id)
	if err != nil {
		c.writeError(res, req, err)
		return
	}
	defer c.registry.Release(id)

	c.writeSuccess(res, http.StatusOK, statusPayloadFrom(record), nil, nil)
}

// HandleDownload serves GET /export/{id}/download, honoring ?type=single|zip.
func (c *Controller) HandleDownload(req Request, res Response) {
	id := req.Param("id")
	record, err := c.registry.LookupAndPin(id)
	if err != nil {
		c.writeError(res, req, err)
		return
	}
	defer c.registry.Release(id)

	want := req.Query("type")
	switch {
	case want == "zip" || (want == "" && record.Strategy == export.StrategyMulti):
		c.streamArchive(res, record)
	default:
		c.streamSingle(res, record)
	}
}

// HandleDownloadBatch serves GET /export/{id}/download/batch/{n}.
func (c *Controller) HandleDownloadBatch(req Request, res Response) {
	id := req.Param("id")
	record, err := c.registry.LookupAndPin(id)
	if err != nil {
		c.writeError(res, req, err)
		return
	}
	defer c.registry.Release(id)

	if record.Strategy != export.StrategyMulti || len(record.Artifacts.Chunks) == 0 {
		c.writeError(res, req, export.NewError(export.KindVariantMismatch, "batch download is not available for a single-file export", nil))
		return
	}

	n, convErr := strconv.Atoi(req.Param("n"))
	if convErr != nil || n < 1 || n > len(record.Artifacts.Chunks) {
		c.writeError(res, req, export.NewError(export.KindNotFound, "batch not found", nil))
		return
	}

	chunk := record.Artifacts.Chunks[n-1]
	c.stream(res, chunk.Artifact)
}

// HandleDownloadZip serves GET /export/{id}/download/zip.
func (c *Controller) HandleDownloadZip(req Request, res Response) {
	id := req.Param("id")
	record, err := c.registry.LookupAndPin(id)
	if err != nil {
		c.writeError(res, req, err)
		return
	}
	defer c.registry.Release(id)

	c.streamArchive(res, record)
}

func (c *Controller) streamSingle(res Response, record *export.ExportRecord) {
	if record.Artifacts.Single == nil {
		c.writeError(res, nil, export.NewError(export.KindVariantMismatch, "single artifact not available for this export", nil))
		return
	}
	c.stream(res, *record.Artifacts.Single)
}

func (c *Controller) streamArchive(res Response, record *export.ExportRecord) {
	if record.Artifacts.Archive == nil {
		c.writeError(res, nil, export.NewError(export.KindVariantMismatch, "archive not available for this export", nil))
		return
	}
	c.stream(res, record.Artifacts.Archive.Artifact)
}

func (c *Controller) stream(res Response, artifact export.Artifact) {
	filename := sanitizeDownloadFilename(artifact.SuggestedFilename)
	res.SetHeader("Content-Type", artifact.MimeType)
	res.SetHeader("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	res.SetHeader("Content-Length", strconv.FormatInt(int64(len(artifact.Bytes)), 10))
	res.SetHeader("Cache-Control", "no-store")
	res.WriteHeader(http.StatusOK)
	if _, err := res.Write(artifact.Bytes); err != nil {
		c.logger.Errorf("download write failed: %v", err)
	}
}

// HandleTemplates serves GET /templates/{type}.
func (c *Controller) HandleTemplates(req Request, res Response) {
	exportType := export.ExportType(req.Param("type"))
	tmpls, err := export.ListTemplates(exportType)
	if err != nil {
		c.writeError(res, req, err)
		return
	}
	payload := make([]templatePayload, 0, len(tmpls))
	for _, t := range tmpls {
		payload = append(payload, templatePayload{
			Name:                 t.Name,
			Columns:              columnLabels(t),
			MaxRecordsSingleFile: t.MaxRecordsSingleFile,
			RecommendedChunkSize: t.RecommendedChunkSize,
			IncludesSensitive:    t.IncludesSensitive,
		})
	}
	c.writeSuccess(res, http.StatusOK, map[string]any{"templates": payload}, nil, nil)
}

// HandleHealth serves GET /health.
func (c *Controller) HandleHealth(req Request, res Response) {
	size := 0
	if c.registry != nil {
		size = c.registry.Info().RecordCount
	}
	c.writeSuccess(res, http.StatusOK, healthPayload{
		Status:       "ok",
		SourceWired:  c.coordinator != nil,
		RegistrySize: size,
	}, nil, nil)
}

// HandleCleanup serves POST /cleanup: a manual sweep respecting retention-N.
func (c *Controller) HandleCleanup(req Request, res Response) {
	if c.registry == nil {
		c.writeError(res, req, export.NewError(export.KindInternal, "registry not configured", nil))
		return
	}
	c.registry.Sweep()
	c.writeSuccess(res, http.StatusOK, map[string]any{"swept": true}, nil, nil)
}

// HandleCleanupForce serves POST /cleanup/force: an administrative purge
// that ignores retention-N (spec §6.1).
func (c *Controller) HandleCleanupForce(req Request, res Response) {
	if c.registry == nil {
		c.writeError(res, req, export.NewError(export.KindInternal, "registry not configured", nil))
		return
	}
	c.registry.ForceEvictAll()
	c.writeSuccess(res, http.StatusOK, map[string]any{"swept": true, "forced": true}, nil, nil)
}

// HandleStorageInfo serves GET /storage/info.
func (c *Controller) HandleStorageInfo(req Request, res Response) {
	if c.registry == nil {
		c.writeError(res, req, export.NewError(export.KindInternal, "registry not configured", nil))
		return
	}
	info := c.registry.Info()
	c.writeSuccess(res, http.StatusOK, storageInfoPayload{
		TotalBytes:   info.TotalBytes,
		RecordCount:  info.RecordCount,
		WarningBytes: info.WarningBytes,
		CleanupBytes: info.CleanupBytes,
		OverWarning:  info.OverWarning,
	}, nil, nil)
}

func (c *Controller) writeSuccess(res Response, status int, data, metrics, systemInfo any) {
	_ = res.WriteJSON(status, successEnvelope{
		Status:             "success",
		Data:               data,
		PerformanceMetrics: metrics,
		SystemInfo:         systemInfo,
	})
}

func (c *Controller) writeError(res Response, req Request, err error) {
	kind := export.KindFromError(err)
	requestID := ""
	if req != nil {
		requestID = req.Header("X-Request-Id")
	}
	if requestID == "" {
		requestID = c.nextRequestID()
	}
	_ = res.WriteJSON(kind.HTTPStatus(), errorEnvelope{
		Status:    "error",
		Message:   err.Error(),
		ErrorCode: string(kind),
		RequestID: requestID,
	})
}

func (c *Controller) nextRequestID() string {
	n := atomic.AddUint64(&c.requestSeq, 1)
	return fmt.Sprintf("req-%d", n)
}

func createExportPayloadFrom(record *export.ExportRecord) createExportPayload {
	payload := createExportPayload{
		ExportID:    record.ID,
		RecordCount: record.RecordCount,
		ExpiresAt:   record.ExpiresAt.Format(timeLayout),
	}

	switch record.Strategy {
	case export.StrategySingle:
		if record.Artifacts.Single != nil {
			payload.FileName = record.Artifacts.Single.SuggestedFilename
			payload.FileSize = int64(len(record.Artifacts.Single.Bytes))
		}
		payload.DownloadURL = fmt.Sprintf("/export/%s/download", record.ID)
	default:
		payload.TotalFiles = len(record.Artifacts.Chunks)
		payload.DownloadURL = fmt.Sprintf("/export/%s/download/zip", record.ID)
		for _, chunk := range record.Artifacts.Chunks {
			payload.IndividualFiles = append(payload.IndividualFiles, individualFilePayload{
				BatchNumber: chunk.Range.BatchNumber,
				FileName:    chunk.Artifact.SuggestedFilename,
				FileSize:    int64(len(chunk.Artifact.Bytes)),
				RecordCount: chunk.Artifact.RecordCount,
				RecordRange: fmt.Sprintf("%d-%d", chunk.Range.From, chunk.Range.To),
			})
		}
		if record.Artifacts.Archive != nil {
			payload.Archive = &archivePayload{
				Filename:         record.Artifacts.Archive.Artifact.SuggestedFilename,
				CompressedSize:   record.Artifacts.Archive.CompressedTotal,
				UncompressedSize: record.Artifacts.Archive.UncompressedTotal,
				CompressionRatio: record.Artifacts.Archive.CompressionRatio,
			}
		}
	}

	return payload
}

func statusPayloadFrom(record *export.ExportRecord) statusPayload {
	var fileSize int64
	if record.Artifacts.Single != nil {
		fileSize = int64(len(record.Artifacts.Single.Bytes))
	} else if record.Artifacts.Archive != nil {
		fileSize = record.Artifacts.Archive.CompressedTotal
	}
	return statusPayload{
		ExportID:         record.ID,
		Strategy:         string(record.Strategy),
		ExportType:       string(record.ExportType),
		Template:         record.TemplateName,
		RecordCount:      record.RecordCount,
		FileSize:         fileSize,
		CreatedAt:        record.CreatedAt.Format(timeLayout),
		ExpiresAt:        record.ExpiresAt.Format(timeLayout),
		ElapsedMS:        record.ProcessingMetrics.ElapsedMS,
		BytesPerRecord:   record.ProcessingMetrics.BytesPerRecord,
		RecordsPerSecond: record.ProcessingMetrics.RecordsPerSecond,
	}
}

func columnLabels(t export.Template) []string {
	labels := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		label := col.HeaderLabel
		if label == "" {
			label = col.SourceField
		}
		labels[i] = label
	}
	return labels
}

func isKnownExportType(t export.ExportType) bool {
	switch t {
	case export.TypeParticipants, export.TypePayments, export.TypeAmbassadors:
		return true
	default:
		return false
	}
}

const timeLayout = "2006-01-02T15:04:05Z07:00"
