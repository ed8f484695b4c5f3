package export

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CoordinatorConfig carries the Export Coordinator's tunables (spec §4.8,
// §5, §6.4).
type CoordinatorConfig struct {
	JobTimeout      time.Duration
	RetentionWindow time.Duration
}

// DefaultCoordinatorConfig mirrors the env defaults in spec §6.4.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		JobTimeout:      5 * time.Minute,
		RetentionWindow: 168 * time.Hour,
	}
}

// Coordinator is the Export Coordinator (spec §4.8): it owns the end-to-end
// pipeline from a validated request to a registered ExportRecord, wiring
// together every other component in the package.
type Coordinator struct {
	source   RowSource
	registry *Registry
	gate     *ConcurrencyGate
	cfg      CoordinatorConfig
	log      Logger
	mirror   ArtifactMirror
}

// SetMirror registers an optional on-disk artifact mirror. nil (the
// default) disables mirroring; Run then keeps artifacts in memory only.
func (c *Coordinator) SetMirror(mirror ArtifactMirror) {
	c.mirror = mirror
}

// NewCoordinator wires a Coordinator from its dependencies. source may be
// nil if the deployment only ever serves inline-data requests.
func NewCoordinator(source RowSource, registry *Registry, gate *ConcurrencyGate, cfg CoordinatorConfig, log Logger) *Coordinator {
	if log == nil {
		log = NopLogger{}
	}
	return &Coordinator{source: source, registry: registry, gate: gate, cfg: cfg, log: log}
}

// Run executes the full pipeline (spec §4.8):
//  1. validate the request
//  2. pre-sweep the registry so a stale record doesn't hold storage that
//     this job's admission or retention bookkeeping should see as free
//  3. resolve the data source (inline rows, or a Source Adapter query)
//  4. plan the strategy (single vs. multi) from the resolved record count
//  5. choose filenames
//  6. emit artifacts (single file, or per-chunk files plus an archive)
//  7. register the completed record
//  8. return its metadata
//
// Multi-file emission is all-or-nothing: if any chunk fails, the whole job
// fails and nothing is registered (spec §8 "Testable properties").
func (c *Coordinator) Run(ctx context.Context, req ExportRequest) (*ExportRecord, error) {
	start := time.Now()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	tmpl, err := templates.Lookup(req.ExportType, req.TemplateName)
	if err != nil {
		return nil, err
	}

	if c.registry != nil {
		c.registry.Sweep()
	}

	if c.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.JobTimeout)
		defer cancel()
	}

	rowCount, opener, err := c.resolveSource(ctx, req)
	if err != nil {
		return nil, err
	}

	strategyPlan := planStrategy(rowCount, tmpl, req.ChunkSize, req.ForceChunking)

	admission, err := c.acquire(ctx, strategyPlan.Strategy == StrategyMulti)
	if err != nil {
		return nil, err
	}
	defer admission.Release()

	id := uuid.NewString()
	sid := shortID(id)
	now := time.Now()

	var artifacts ExportArtifacts
	var perChunkElapsed []int64

	switch strategyPlan.Strategy {
	case StrategySingle:
		chunkStart := time.Now()
		artifact, err := c.emitSingle(ctx, opener, tmpl, req, sid, now)
		if err != nil {
			return nil, err
		}
		artifacts.Single = &artifact
		perChunkElapsed = append(perChunkElapsed, time.Since(chunkStart).Milliseconds())

	default:
		chunks := make([]ChunkArtifact, 0, len(strategyPlan.Chunks))
		total := len(strategyPlan.Chunks)
		for _, r := range strategyPlan.Chunks {
			chunkStart := time.Now()
			chunkArtifact, err := c.emitChunk(ctx, opener, tmpl, req, r, total, sid, now)
			if err != nil {
				// all-or-nothing: any chunk failure fails the whole job.
				return nil, err
			}
			chunks = append(chunks, chunkArtifact)
			perChunkElapsed = append(perChunkElapsed, time.Since(chunkStart).Milliseconds())
		}
		artifacts.Chunks = chunks

		archive, err := buildArchive(chunks)
		if err != nil {
			return nil, err
		}
		archive.Artifact.SuggestedFilename = archiveFilename(req.FilenameHint, req, sid, now)
		archive.Artifact.MimeType = "application/zip"
		artifacts.Archive = &archive
	}

	elapsed := time.Since(start)
	totalBytes := artifactsByteSize(artifacts)
	metrics := ProcessingMetrics{
		ElapsedMS:         elapsed.Milliseconds(),
		PerChunkElapsedMS: perChunkElapsed,
	}
	if rowCount > 0 {
		metrics.BytesPerRecord = float64(totalBytes) / float64(rowCount)
		metrics.RecordsPerSecond = float64(rowCount) / elapsed.Seconds()
	}

	record := &ExportRecord{
		ID:                id,
		Strategy:          strategyPlan.Strategy,
		Artifacts:         artifacts,
		ExportType:        req.ExportType,
		TemplateName:      req.TemplateName,
		RecordCount:       rowCount,
		CreatedAt:         now,
		ExpiresAt:         now.Add(c.cfg.RetentionWindow),
		ProcessingMetrics: metrics,
	}

	if c.registry != nil {
		c.registry.Insert(record)
	}

	if c.mirror != nil {
		if err := c.mirror.Persist(record); err != nil {
			c.log.Errorf("export %s: artifact mirror failed: %v", id, err)
		}
	}

	c.log.Infof("export %s completed: type=%s template=%s strategy=%s records=%d elapsed_ms=%d",
		id, req.ExportType, req.TemplateName, strategyPlan.Strategy, rowCount, metrics.ElapsedMS)

	return record, nil
}

func (c *Coordinator) acquire(ctx context.Context, isLarge bool) (*admission, error) {
	if c.gate == nil {
		return nil, nil
	}
	return c.gate.Acquire(ctx, isLarge)
}

// sourceOpener reopens a fresh RowIterator over the resolved data set,
// letting the Coordinator request independent iterators for each chunk
// without re-resolving the query or re-validating inline rows.
type sourceOpener func(ctx context.Context) (RowIterator, error)

// resolveSource implements step 3: either the request carries inline rows,
// or the Source Adapter is queried for a count and given an opener that
// re-runs the same query for each chunk.
func (c *Coordinator) resolveSource(ctx context.Context, req ExportRequest) (int, sourceOpener, error) {
	if req.Data.IsInline() {
		rows := req.Data.InlineRows
		return len(rows), func(context.Context) (RowIterator, error) {
			return newSliceIterator(rows), nil
		}, nil
	}

	if c.source == nil {
		return 0, nil, NewError(KindSourceUnavailable, "no data source configured for filter-driven export", nil)
	}

	filters := *req.Data.Filters
	count, err := c.source.Count(ctx, req.ExportType, filters)
	if err != nil {
		return 0, nil, NewError(KindSourceUnavailable, "failed to count matching records", err)
	}
	opener := func(ctx context.Context) (RowIterator, error) {
		it, err := c.source.Open(ctx, req.ExportType, filters)
		if err != nil {
			return nil, NewError(KindSourceUnavailable, "failed to open data source", err)
		}
		return it, nil
	}
	return count, opener, nil
}

func (c *Coordinator) emitSingle(ctx context.Context, opener sourceOpener, tmpl Template, req ExportRequest, sid string, now time.Time) (Artifact, error) {
	it, err := opener(ctx)
	if err != nil {
		return Artifact{}, err
	}
	defer it.Close()

	proj := newProjector(it, tmpl, true)
	defer proj.Close()

	artifact, err := c.writeArtifact(ctx, proj, req, tmpl, now)
	if err != nil {
		return Artifact{}, err
	}
	artifact.SuggestedFilename = singleFilename(req.FilenameHint, req, sid, now)
	return artifact, nil
}

func (c *Coordinator) emitChunk(ctx context.Context, opener sourceOpener, tmpl Template, req ExportRequest, r ChunkRange, total int, sid string, now time.Time) (ChunkArtifact, error) {
	it, err := opener(ctx)
	if err != nil {
		return ChunkArtifact{}, err
	}
	defer it.Close()

	ranged := newRangeIterator(it, r)
	proj := newProjector(ranged, tmpl, true)
	defer proj.Close()

	artifact, err := c.writeArtifact(ctx, proj, req, tmpl, now)
	if err != nil {
		return ChunkArtifact{}, err
	}
	artifact.SuggestedFilename = chunkFilename(req.FilenameHint, req, sid, r.BatchNumber, total, now)
	return ChunkArtifact{Artifact: artifact, Range: r}, nil
}

// writeArtifact dispatches to the Workbook Writer or the CSV writer per the
// request's output_format. A spreadsheet-engine failure is returned as-is;
// spec §9's "Fallback spreadsheet engines" leaves a CSV fallback optional,
// and this coordinator does not implement one.
func (c *Coordinator) writeArtifact(ctx context.Context, rows RowEmitter, req ExportRequest, tmpl Template, now time.Time) (Artifact, error) {
	label := sheetName(req.SheetLabelHint, req.ExportType, now)

	if req.OutputFormat == FormatCSV {
		data, dataRows, err := writeCSV(ctx, rows)
		if err != nil {
			return Artifact{}, err
		}
		return Artifact{Bytes: data, MimeType: "text/csv", UncompressedSize: int64(len(data)), RecordCount: dataRows}, nil
	}

	data, dataRows, err := writeXLSX(ctx, rows, label)
	if err != nil {
		c.log.Errorf("xlsx writer failed: %v", err)
		return Artifact{}, err
	}
	return Artifact{
		Bytes:            data,
		MimeType:         "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		UncompressedSize: int64(len(data)),
		RecordCount:      dataRows,
	}, nil
}
