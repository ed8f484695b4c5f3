package export

import (
	"context"
	"sort"
	"sync"
	"time"
)

// RegistryConfig carries the Export Registry's tunables (spec §6.4).
type RegistryConfig struct {
	RetentionWindow time.Duration
	KeepLastN       int
	WarningBytes    int64
	CleanupBytes    int64
	SweepInterval   time.Duration
}

// DefaultRegistryConfig mirrors the env defaults in spec §6.4.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		RetentionWindow: 168 * time.Hour,
		KeepLastN:       5,
		WarningBytes:    0,
		CleanupBytes:    0,
		SweepInterval:   30 * time.Minute,
	}
}

// Registry is the Export Registry (spec §4.7, §9 "Global mutable state").
// It is modeled as an owned component with an internal lock and reference
// counting, exposed only through narrow operations; callers never see the
// underlying map. A pinned record (one a download handler currently holds)
// is never evicted by sweep, TTL, keep-N, or storage pressure; it is
// tombstoned instead and removed once its last reader releases it.
type Registry struct {
	mu      sync.Mutex
	records map[string]*ExportRecord
	order   []string // insertion order, oldest first, for keep-N eviction
	cfg     RegistryConfig
	log     Logger

	stopOnce sync.Once
	stopCh   chan struct{}

	evictHook func(id string)
}

// SetEvictionHook registers fn to run whenever a record is actually removed
// from the registry (TTL, keep-N, storage pressure, or a forced eviction,
// once its last pinned reader releases it). Spec's "destruction deletes the
// byte buffers and all derived on-disk copies" (spec.md, Lifecycle) is
// satisfied in-process by dropping the ExportRecord; fn lets a caller also
// clean up any on-disk mirror of the record's artifacts, such as
// adapters/store/fs.Store.
func (r *Registry) SetEvictionHook(fn func(id string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictHook = fn
}

// NewRegistry constructs an empty registry.
func NewRegistry(cfg RegistryConfig, log Logger) *Registry {
	if log == nil {
		log = NopLogger{}
	}
	return &Registry{
		records: make(map[string]*ExportRecord),
		cfg:     cfg,
		log:     log,
		stopCh:  make(chan struct{}),
	}
}

// Insert adds a newly completed export record, stamping CreatedAt and
// ExpiresAt (from the registry's retention window) only where the caller
// left them zero, and immediately sweeps to enforce keep-N and
// storage pressure (spec §4.7: "the registry always retains the N most
// recent successful exports").
func (r *Registry) Insert(record *ExportRecord) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	if record.ExpiresAt.IsZero() {
		record.ExpiresAt = record.CreatedAt.Add(r.cfg.RetentionWindow)
	}

	r.mu.Lock()
	r.records[record.ID] = record
	r.order = append(r.order, record.ID)
	r.mu.Unlock()

	r.Sweep()
}

// LookupAndPin returns the record for id with its reference count
// incremented, preventing eviction until Release is called. Returns
// KindNotFound if the id is unknown or tombstoned (even while earlier
// readers still hold it), KindExpired if its TTL has passed.
func (r *Registry) LookupAndPin(id string) (*ExportRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return nil, NewError(KindNotFound, "export not found", nil)
	}
	if record.tombstoned {
		return nil, NewError(KindNotFound, "export not found", nil)
	}
	if time.Now().After(record.ExpiresAt) {
		return nil, NewError(KindExpired, "export has expired", nil)
	}
	record.refCount++
	return record, nil
}

// Release decrements id's reference count. If the record was tombstoned
// while readers were pinned, the last release removes it from the map.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return
	}
	if record.refCount > 0 {
		record.refCount--
	}
	if record.tombstoned && record.refCount == 0 {
		delete(r.records, id)
		r.removeFromOrder(id)
		if r.evictHook != nil {
			r.evictHook(id)
		}
	}
}

// Sweep evicts by TTL, then keep-last-N, then storage pressure, in that
// order (spec §4.7). Pinned records are tombstoned rather than deleted
// outright; Release finishes the job once the last reader is done.
func (r *Registry) Sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, id := range r.order {
		record, ok := r.records[id]
		if !ok || record.tombstoned {
			continue
		}
		if now.After(record.ExpiresAt) {
			r.tombstoneLocked(record)
		}
	}

	r.enforceKeepLastNLocked()
	r.enforceStoragePressureLocked()
	r.compactOrderLocked()
}

func (r *Registry) enforceKeepLastNLocked() {
	if r.cfg.KeepLastN <= 0 {
		return
	}
	live := r.liveRecordsLocked()
	if len(live) <= r.cfg.KeepLastN {
		return
	}
	sort.Slice(live, func(i, j int) bool { return live[i].CreatedAt.Before(live[j].CreatedAt) })
	excess := len(live) - r.cfg.KeepLastN
	for i := 0; i < excess; i++ {
		r.tombstoneLocked(live[i])
	}
}

func (r *Registry) enforceStoragePressureLocked() {
	if r.cfg.CleanupBytes <= 0 {
		return
	}
	live := r.liveRecordsLocked()
	total := totalBytes(live)
	if total <= r.cfg.CleanupBytes {
		return
	}
	sort.Slice(live, func(i, j int) bool { return live[i].CreatedAt.Before(live[j].CreatedAt) })
	for _, record := range live {
		if total <= r.cfg.CleanupBytes {
			break
		}
		total -= artifactsByteSize(record.Artifacts)
		r.tombstoneLocked(record)
	}
}

func (r *Registry) liveRecordsLocked() []*ExportRecord {
	live := make([]*ExportRecord, 0, len(r.records))
	for _, record := range r.records {
		if !record.tombstoned {
			live = append(live, record)
		}
	}
	return live
}

func (r *Registry) tombstoneLocked(record *ExportRecord) {
	record.tombstoned = true
	if record.refCount == 0 {
		delete(r.records, record.ID)
		if r.evictHook != nil {
			r.evictHook(record.ID)
		}
	}
}

func (r *Registry) compactOrderLocked() {
	kept := r.order[:0]
	for _, id := range r.order {
		if _, ok := r.records[id]; ok {
			kept = append(kept, id)
		}
	}
	r.order = kept
}

func (r *Registry) removeFromOrder(id string) {
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

// ForceEvictAll tombstones every live record regardless of TTL, keep-N, or
// storage pressure (the POST /cleanup/force administrative override in spec
// §6.1). Pinned records still wait for their last reader to Release.
func (r *Registry) ForceEvictAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, record := range r.liveRecordsLocked() {
		r.tombstoneLocked(record)
	}
	r.compactOrderLocked()
}

// StorageInfo reports aggregate byte usage for the /storage/info endpoint.
type StorageInfo struct {
	TotalBytes   int64
	RecordCount  int
	WarningBytes int64
	CleanupBytes int64
	OverWarning  bool
}

// Info returns the registry's current aggregate storage usage.
func (r *Registry) Info() StorageInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	live := r.liveRecordsLocked()
	total := totalBytes(live)
	return StorageInfo{
		TotalBytes:   total,
		RecordCount:  len(live),
		WarningBytes: r.cfg.WarningBytes,
		CleanupBytes: r.cfg.CleanupBytes,
		OverWarning:  r.cfg.WarningBytes > 0 && total > r.cfg.WarningBytes,
	}
}

func totalBytes(records []*ExportRecord) int64 {
	var total int64
	for _, record := range records {
		total += artifactsByteSize(record.Artifacts)
	}
	return total
}

func artifactsByteSize(artifacts ExportArtifacts) int64 {
	var total int64
	if artifacts.Single != nil {
		total += int64(len(artifacts.Single.Bytes))
	}
	for _, chunk := range artifacts.Chunks {
		total += int64(len(chunk.Artifact.Bytes))
	}
	if artifacts.Archive != nil {
		total += int64(len(artifacts.Archive.Artifact.Bytes))
	}
	return total
}

// StartSweeper runs Sweep on cfg.SweepInterval until ctx is canceled or Stop
// is called. Intended to be launched once from the process entrypoint.
func (r *Registry) StartSweeper(ctx context.Context) {
	interval := r.cfg.SweepInterval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopCh:
				return
			case <-ticker.C:
				r.log.Debugf("export registry: running scheduled sweep")
				r.Sweep()
			}
		}
	}()
}

// Stop halts a running sweeper goroutine. Safe to call more than once.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}
