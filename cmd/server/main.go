// Command server runs the export engine's HTTP surface (spec §6.1): a
// fiber-backed go-router server wiring the Source Adapter, Export Registry,
// Concurrency Gate, and Export Coordinator together. The periodic retention
// sweep runs in-process via Registry.StartSweeper; command.CleanupExportsHandler
// and command.ForceCleanupHandler carry the same operations' cron/CLI
// descriptors for an external scheduler or admin CLI to pick up. The
// POST /cleanup and /cleanup/force HTTP routes call Registry.Sweep and
// Registry.ForceEvictAll directly, not through those handlers.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/goliatone/go-export/adapters/exportapi"
	exportrouter "github.com/goliatone/go-export/adapters/router"
	storefs "github.com/goliatone/go-export/adapters/store/fs"
	"github.com/goliatone/go-export/config"
	"github.com/goliatone/go-export/export"
	exportsql "github.com/goliatone/go-export/sources/sql"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()

	db, err := connectDB(cfg.DB)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	tableRegistry := exportsql.NewRegistry()
	registerTables(tableRegistry)
	source := exportsql.NewSource(db, tableRegistry)

	logger := export.NopLogger{}
	registry := export.NewRegistry(cfg.ToRegistryConfig(), logger)
	gate := export.NewConcurrencyGate(cfg.Gate.MaxConcurrentExports, cfg.Gate.MaxConcurrentLargeExports)
	coordinator := export.NewCoordinator(source, registry, gate, cfg.ToCoordinatorConfig(), logger)

	if cfg.Export.ArtifactDir != "" {
		mirror := storefs.NewStore(cfg.Export.ArtifactDir)
		coordinator.SetMirror(mirror)
		registry.SetEvictionHook(func(id string) {
			if err := mirror.Remove(id); err != nil {
				log.Printf("artifact mirror: failed to remove %s: %v", id, err)
			}
		})
	}

	if cfg.Export.CleanupOnStart {
		registry.Sweep()
	}
	registry.StartSweeper(ctx)
	defer registry.Stop()

	handler := exportrouter.NewHandler(exportapi.Config{
		Coordinator: coordinator,
		Registry:    registry,
		Logger:      logger,
	})

	srv := router.NewFiberAdapter(fiberAppInitializer())
	handler.RegisterRoutes(srv.Router())

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	go func() {
		log.Printf("export engine listening on http://%s", addr)
		if err := srv.Serve(addr); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down export engine...")
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func connectDB(cfg config.DBConfig) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// registerTables binds the three known export types to their backing tables
// (spec §3 "Source Adapter"). Field names follow the participants/payments/
// ambassadors schema the templates in export/templates.go project from.
func registerTables(reg *exportsql.Registry) {
	_ = reg.Register(export.TypeParticipants, exportsql.TableConfig{
		Table:        "participants",
		DateField:    "registration_date",
		ProgramField: "program_id",
		JoinExists: map[string]string{
			"has_payment": "EXISTS (SELECT 1 FROM payments p WHERE p.participant_id = t.id)",
			"has_form":    "EXISTS (SELECT 1 FROM forms f WHERE f.participant_id = t.id)",
		},
		SortableFields: []string{"id", "full_name", "email", "country", "registration_date", "category"},
	})
	_ = reg.Register(export.TypePayments, exportsql.TableConfig{
		Table:        "payments",
		DateField:    "paid_at",
		ProgramField: "program_id",
		SortableFields: []string{"id", "participant_id", "amount", "status", "paid_at"},
	})
	_ = reg.Register(export.TypeAmbassadors, exportsql.TableConfig{
		Table:        "ambassadors",
		DateField:    "joined_at",
		ProgramField: "program_id",
		SortableFields: []string{"id", "full_name", "email", "country", "referral_count", "joined_at"},
	})
}

func fiberAppInitializer() func(*fiber.App) *fiber.App {
	return func(*fiber.App) *fiber.App {
		app := fiber.New(fiber.Config{
			AppName:         "Export Engine",
			EnablePrintRoutes: true,
		})
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
		}))
		app.Use(cors.New(cors.Config{
			AllowOrigins: "*",
			AllowMethods: "GET,POST",
			AllowHeaders: "Content-Type,X-Request-Id",
		}))
		return app
	}
}
