package command

import (
	"context"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-export/export"
)

// CreateExportHandler runs export jobs through the Export Coordinator.
type CreateExportHandler struct {
	Coordinator *export.Coordinator
}

func NewCreateExportHandler(coordinator *export.Coordinator) *CreateExportHandler {
	return &CreateExportHandler{Coordinator: coordinator}
}

func (h *CreateExportHandler) Execute(ctx context.Context, msg CreateExport) error {
	if h == nil || h.Coordinator == nil {
		return errors.New("export coordinator is required", errors.CategoryInternal).
			WithTextCode("COORDINATOR_REQUIRED")
	}
	record, err := h.Coordinator.Run(ctx, msg.Request)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = *record
	}
	if res := gcmd.ResultFromContext[export.ExportRecord](ctx); res != nil {
		res.Store(*record)
	}
	return nil
}

// CleanupExportsHandler runs a regular registry sweep.
type CleanupExportsHandler struct {
	Registry *export.Registry
	Config   gcmd.HandlerConfig
}

func NewCleanupExportsHandler(registry *export.Registry) *CleanupExportsHandler {
	return &CleanupExportsHandler{
		Registry: registry,
		Config:   gcmd.HandlerConfig{Expression: "@every 30m"},
	}
}

func (h *CleanupExportsHandler) Execute(ctx context.Context, msg CleanupExports) error {
	_ = ctx
	if h == nil || h.Registry == nil {
		return errors.New("export registry is required", errors.CategoryInternal).
			WithTextCode("REGISTRY_REQUIRED")
	}
	h.Registry.Sweep()
	remaining := h.Registry.Info().RecordCount
	if msg.Result != nil {
		*msg.Result = remaining
	}
	if res := gcmd.ResultFromContext[int](ctx); res != nil {
		res.Store(remaining)
	}
	return nil
}

func (h *CleanupExportsHandler) CronHandler() func() error {
	return func() error {
		return h.Execute(context.Background(), CleanupExports{})
	}
}

func (h *CleanupExportsHandler) CronOptions() gcmd.HandlerConfig {
	if h == nil {
		return gcmd.HandlerConfig{}
	}
	return h.Config
}

func (h *CleanupExportsHandler) CLIHandler() any {
	return &cleanupCLI{handler: h}
}

func (h *CleanupExportsHandler) CLIOptions() gcmd.CLIConfig {
	return gcmd.CLIConfig{
		Path:        []string{"exports-cleanup"},
		Description: "Sweep expired export artifacts (TTL, keep-N, storage pressure)",
		Group:       "exports",
	}
}

// ForceCleanupHandler evicts every live export record unconditionally.
type ForceCleanupHandler struct {
	Registry *export.Registry
}

func NewForceCleanupHandler(registry *export.Registry) *ForceCleanupHandler {
	return &ForceCleanupHandler{Registry: registry}
}

func (h *ForceCleanupHandler) Execute(ctx context.Context, msg ForceCleanup) error {
	_ = ctx
	_ = msg
	if h == nil || h.Registry == nil {
		return errors.New("export registry is required", errors.CategoryInternal).
			WithTextCode("REGISTRY_REQUIRED")
	}
	h.Registry.ForceEvictAll()
	return nil
}

func (h *ForceCleanupHandler) CLIHandler() any {
	return &forceCleanupCLI{handler: h}
}

func (h *ForceCleanupHandler) CLIOptions() gcmd.CLIConfig {
	return gcmd.CLIConfig{
		Path:        []string{"exports-cleanup-force"},
		Description: "Evict every export record regardless of retention",
		Group:       "exports",
	}
}

type cleanupCLI struct {
	handler *CleanupExportsHandler
}

func (c *cleanupCLI) Run() error {
	if c == nil || c.handler == nil {
		return errors.New("cleanup handler is required", errors.CategoryInternal).
			WithTextCode("CLEANUP_HANDLER_REQUIRED")
	}
	return c.handler.Execute(context.Background(), CleanupExports{})
}

type forceCleanupCLI struct {
	handler *ForceCleanupHandler
}

func (c *forceCleanupCLI) Run() error {
	if c == nil || c.handler == nil {
		return errors.New("force cleanup handler is required", errors.CategoryInternal).
			WithTextCode("FORCE_CLEANUP_HANDLER_REQUIRED")
	}
	return c.handler.Execute(context.Background(), ForceCleanup{})
}
