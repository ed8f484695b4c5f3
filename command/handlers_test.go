package command

import (
	"context"
	"testing"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-export/export"
)

func newTestCoordinator() *export.Coordinator {
	registry := export.NewRegistry(export.DefaultRegistryConfig(), export.NopLogger{})
	gate := export.NewConcurrencyGate(10, 10)
	return export.NewCoordinator(nil, registry, gate, export.DefaultCoordinatorConfig(), export.NopLogger{})
}

func TestCreateExportHandler_StoresResult(t *testing.T) {
	handler := NewCreateExportHandler(newTestCoordinator())

	var got export.ExportRecord
	result := gcmd.NewResult[export.ExportRecord]()
	ctx := gcmd.ContextWithResult(context.Background(), result)

	req := export.ExportRequest{
		ExportType:   export.TypeParticipants,
		TemplateName: "standard",
		OutputFormat: export.FormatCSV,
		Data: export.DataSource{
			InlineRows: []export.Record{
				{"id": "1", "name": "Ada"},
			},
		},
	}

	err := handler.Execute(ctx, CreateExport{Request: req, Result: &got})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got.ID == "" {
		t.Fatalf("expected result pointer to be populated")
	}

	stored, ok := result.Load()
	if !ok {
		t.Fatalf("expected context result")
	}
	if stored.ID != got.ID {
		t.Fatalf("expected context result %q, got %q", got.ID, stored.ID)
	}
}

func TestCreateExportHandler_RequiresCoordinator(t *testing.T) {
	handler := &CreateExportHandler{}
	err := handler.Execute(context.Background(), CreateExport{})
	if err == nil {
		t.Fatalf("expected error for missing coordinator")
	}
}

func TestCleanupExportsHandler_SweepsRegistry(t *testing.T) {
	registry := export.NewRegistry(export.DefaultRegistryConfig(), export.NopLogger{})
	handler := NewCleanupExportsHandler(registry)

	var count int
	err := handler.Execute(context.Background(), CleanupExports{Result: &count})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty registry to sweep to 0, got %d", count)
	}
}

func TestCleanupExportsHandler_CronAndCLIWiring(t *testing.T) {
	registry := export.NewRegistry(export.DefaultRegistryConfig(), export.NopLogger{})
	handler := NewCleanupExportsHandler(registry)

	if handler.CronOptions().Expression == "" {
		t.Fatalf("expected non-empty cron expression")
	}
	if err := handler.CronHandler()(); err != nil {
		t.Fatalf("cron handler: %v", err)
	}

	cli, ok := handler.CLIHandler().(*cleanupCLI)
	if !ok {
		t.Fatalf("expected *cleanupCLI, got %T", handler.CLIHandler())
	}
	if err := cli.Run(); err != nil {
		t.Fatalf("cli run: %v", err)
	}
	if handler.CLIOptions().Path[0] != "exports-cleanup" {
		t.Fatalf("unexpected CLI path: %v", handler.CLIOptions().Path)
	}
}

func TestForceCleanupHandler_EvictsRegardlessOfRetention(t *testing.T) {
	registry := export.NewRegistry(export.DefaultRegistryConfig(), export.NopLogger{})
	registry.Insert(&export.ExportRecord{ID: "exp-1", ExportType: export.TypeParticipants})
	registry.Insert(&export.ExportRecord{ID: "exp-2", ExportType: export.TypeParticipants})

	handler := NewForceCleanupHandler(registry)
	if err := handler.Execute(context.Background(), ForceCleanup{}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if registry.Info().RecordCount != 0 {
		t.Fatalf("expected all records evicted, got %d", registry.Info().RecordCount)
	}

	cli, ok := handler.CLIHandler().(*forceCleanupCLI)
	if !ok {
		t.Fatalf("expected *forceCleanupCLI, got %T", handler.CLIHandler())
	}
	if err := cli.Run(); err != nil {
		t.Fatalf("cli run: %v", err)
	}
	if handler.CLIOptions().Path[0] != "exports-cleanup-force" {
		t.Fatalf("unexpected CLI path: %v", handler.CLIOptions().Path)
	}
}

func TestForceCleanupHandler_RequiresRegistry(t *testing.T) {
	handler := &ForceCleanupHandler{}
	err := handler.Execute(context.Background(), ForceCleanup{})
	if err == nil {
		t.Fatalf("expected error for missing registry")
	}
}
